package binary

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
)

// MaxSearchDepth bounds how deep FindBinary descends into an extracted
// tree.
const MaxSearchDepth = 16

// Installer relocates an extracted executable to its canonical path and
// clears everything else out of the bin directory.
type Installer struct {
	goos   string
	logger *log.Logger
}

// NewInstaller creates an installer for the given GOOS. An empty goos
// means runtime.GOOS; a nil logger discards output.
func NewInstaller(goos string, logger *log.Logger) *Installer {
	if goos == "" {
		goos = runtime.GOOS
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Installer{goos: goos, logger: logger}
}

// Install finds binaryName below stageDir, makes it executable and moves
// it to binDir/binaryName. Afterwards every entry of binDir other than the
// binary and the names in keep is deleted, stageDir included.
//
// The permission bit is set before the move, so the canonical path only
// ever holds a complete executable.
func (i *Installer) Install(stageDir, binDir, binaryName string, keep []string) (*InstalledBinary, error) {
	found, err := FindBinary(stageDir, binaryName, MaxSearchDepth)
	if err != nil {
		return nil, err
	}
	i.logger.Debug("located binary", "path", found)

	if i.goos != "windows" {
		if err := SetExecutable(found); err != nil {
			return nil, err
		}
	}

	dest := filepath.Join(binDir, binaryName)
	if found != dest {
		if err := os.Rename(found, dest); err != nil {
			return nil, fmt.Errorf("move binary into place: %w", err)
		}
	}

	if err := Cleanup(binDir, append([]string{binaryName}, keep...)); err != nil {
		return nil, fmt.Errorf("clean up %s: %w", binDir, err)
	}

	return &InstalledBinary{Path: dest, Executable: true}, nil
}

// FindBinary walks root depth-first, in lexical order, and returns the
// first regular file named exactly name. Symlinks are not followed and
// directories deeper than maxDepth are not entered.
func FindBinary(root, name string, maxDepth int) (string, error) {
	type frame struct {
		path  string
		depth int
	}

	stack := []frame{{path: root}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(top.path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", top.path, err)
		}

		// Files at this level win over anything nested below it.
		for _, entry := range entries {
			if entry.Type().IsRegular() && entry.Name() == name {
				return filepath.Join(top.path, entry.Name()), nil
			}
		}

		if top.depth >= maxDepth {
			continue
		}
		for j := len(entries) - 1; j >= 0; j-- {
			if entries[j].IsDir() {
				stack = append(stack, frame{path: filepath.Join(top.path, entries[j].Name()), depth: top.depth + 1})
			}
		}
	}

	return "", &BinaryNotFoundError{ExpectedName: name}
}

// Cleanup removes every entry of dir whose name is not in keep.
func Cleanup(dir string, keep []string) error {
	keepSet := make(map[string]bool, len(keep))
	for _, k := range keep {
		keepSet[k] = true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var errs []error
	for _, entry := range entries {
		if keepSet[entry.Name()] {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
