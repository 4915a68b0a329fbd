// Package launcher starts the installed agent-telegram binary as a
// transparent child process: same arguments, environment and standard
// streams, and the child's exit code becomes the launcher's.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"

	"github.com/agent-telegram/binwrap/internal/binary"
	"github.com/agent-telegram/binwrap/internal/config"
	"github.com/agent-telegram/binwrap/internal/platform"
)

// ExitFailure is the launcher's own exit code for a missing binary or a
// failed spawn.
const ExitFailure = 1

// Launcher locates and runs the provisioned binary.
type Launcher struct {
	name       string
	detector   platform.Detector
	executable func() (string, error)
	envRoot    func() string

	stdin  *os.File
	stdout *os.File
	stderr *os.File
}

// New creates a launcher for the binary called name on the running host.
func New(name string) *Launcher {
	if name == "" {
		name = binary.DefaultName
	}
	return &Launcher{
		name:       name,
		detector:   platform.NewRuntimeDetector(),
		executable: os.Executable,
		envRoot:    config.EnvRoot,
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
	}
}

// ResolveBinary returns the canonical binary path. With AGENT_TELEGRAM_ROOT
// set it is <root>/bin/<name>; otherwise the binary sits next to the
// launcher executable. The host is the launcher's own compiled-in
// platform. Nothing here touches the network.
func (l *Launcher) ResolveBinary() (string, error) {
	host, err := l.detector.Detect(context.Background())
	if err != nil {
		return "", err
	}

	var path string
	if root := l.envRoot(); root != "" {
		abs, err := config.ExpandPath(root, "")
		if err != nil {
			return "", err
		}
		path = binary.CanonicalPath(abs, l.name, host)
	} else {
		self, err := l.executable()
		if err != nil {
			return "", fmt.Errorf("locate launcher executable: %w", err)
		}
		if resolved, err := filepath.EvalSymlinks(self); err == nil {
			self = resolved
		}
		path = filepath.Join(filepath.Dir(self), binary.BinaryName(l.name, host))
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", &NotInstalledError{ExpectedPath: path}
	}
	return path, nil
}

// Run starts path with args and waits for it. The returned code is the
// child's exit code, or 0 when the child ended without one (killed by a
// signal). Spawn failures return ExitFailure and a LaunchFailedError.
func (l *Launcher) Run(ctx context.Context, path string, args []string) (int, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = l.stdin
	cmd.Stdout = l.stdout
	cmd.Stderr = l.stderr
	cmd.Env = os.Environ()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, caughtSignals...)
	defer signal.Stop(sigs)

	if err := cmd.Start(); err != nil {
		return ExitFailure, &LaunchFailedError{Path: path, Cause: err}
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case s := <-sigs:
				if forwardedSignals[s] {
					_ = cmd.Process.Signal(s)
				}
			case <-done:
				return
			}
		}
	}()

	err := cmd.Wait()
	close(done)

	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ExitFailure, ctxErr
		}
		return 0, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ExitFailure, ctxErr
	}
	return ExitFailure, &LaunchFailedError{Path: path, Cause: err}
}

// Hints returns remediation lines for a launcher error.
func Hints(err error) []string {
	var notInstalled *NotInstalledError
	if errors.As(err, &notInstalled) {
		return []string{
			"run 'npm run postinstall' or agent-telegram-install to download it",
			"or build from source: go build -o " + filepath.Join("bin", filepath.Base(notInstalled.ExpectedPath)) + " .",
		}
	}
	if errors.Is(err, ErrLaunchFailed) {
		return []string{"reinstall with agent-telegram-install to replace a damaged binary"}
	}
	if errors.Is(err, platform.ErrUnsupportedPlatform) {
		return []string{"build from source for this platform: go build -o bin/agent-telegram ."}
	}
	return nil
}
