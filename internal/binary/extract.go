package binary

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ulikunitz/xz"
)

// maxToolOutput bounds how much of a failing tool's output is kept in
// the error message.
const maxToolOutput = 2048

// extractStrategy is one way of unpacking an archive. Strategies backed by
// an external tool name it in tool so availability can be checked first.
type extractStrategy struct {
	name    string
	tool    string
	extract func(ctx context.Context, archivePath, destDir string) error
}

// Extractor unpacks downloaded artifacts using the host's archive tools,
// falling back through an ordered list of strategies that ends with a
// built-in Go implementation.
type Extractor struct {
	goos     string
	lookPath func(file string) (string, error)
	logger   *log.Logger
}

// NewExtractor creates an extractor for the given GOOS. An empty goos
// means runtime.GOOS; a nil logger discards output.
func NewExtractor(goos string, logger *log.Logger) *Extractor {
	if goos == "" {
		goos = runtime.GOOS
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Extractor{
		goos:     goos,
		lookPath: exec.LookPath,
		logger:   logger,
	}
}

// Extract unpacks archivePath into destDir. For FormatRaw the payload is
// the executable and is moved to destDir/binaryName. archivePath is
// always removed, whether extraction succeeds or not.
func (e *Extractor) Extract(ctx context.Context, archivePath string, format Format, destDir, binaryName string) error {
	defer os.Remove(archivePath)

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	if format == FormatRaw {
		if err := moveFile(archivePath, filepath.Join(destDir, binaryName)); err != nil {
			return &ExtractionFailedError{
				Format:   format,
				Attempts: []StrategyError{{Strategy: "write", Err: err}},
			}
		}
		return nil
	}

	strategies, err := e.strategies(format)
	if err != nil {
		return err
	}

	var attempts []StrategyError
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return err
		}

		if s.tool != "" {
			if _, err := e.lookPath(s.tool); err != nil {
				attempts = append(attempts, StrategyError{Strategy: s.name, Err: fmt.Errorf("%s not available: %w", s.tool, err)})
				continue
			}
		}

		e.logger.Debug("extracting", "strategy", s.name, "format", format)
		err := s.extract(ctx, archivePath, destDir)
		if err == nil {
			return nil
		}

		e.logger.Debug("extraction strategy failed", "strategy", s.name, "err", err)
		attempts = append(attempts, StrategyError{Strategy: s.name, Err: err})

		// Start the next strategy from an empty directory.
		if err := resetDir(destDir); err != nil {
			return fmt.Errorf("reset dest dir: %w", err)
		}
	}

	return &ExtractionFailedError{Format: format, Attempts: attempts}
}

// strategies returns the ordered extraction chain for format.
func (e *Extractor) strategies(format Format) ([]extractStrategy, error) {
	switch format {
	case FormatTarGz:
		return []extractStrategy{
			{name: "tar", tool: "tar", extract: toolExtractor("tar", "-xzf", "{archive}", "-C", "{dest}")},
			{name: "builtin-tar.gz", extract: extractTarGz},
		}, nil
	case FormatTarXz:
		return []extractStrategy{
			{name: "tar", tool: "tar", extract: toolExtractor("tar", "-xJf", "{archive}", "-C", "{dest}")},
			{name: "builtin-tar.xz", extract: extractTarXz},
		}, nil
	case FormatZip:
		chain := []extractStrategy{
			{name: "unzip", tool: "unzip", extract: toolExtractor("unzip", "-o", "-q", "{archive}", "-d", "{dest}")},
			// bsdtar, and the tar.exe shipped with Windows 10+, read zip files.
			{name: "tar", tool: "tar", extract: toolExtractor("tar", "-xf", "{archive}", "-C", "{dest}")},
		}
		if e.goos == "windows" {
			chain = append(chain, extractStrategy{name: "powershell", tool: "powershell", extract: expandArchive})
		}
		return append(chain, extractStrategy{name: "builtin-zip", extract: extractZip}), nil
	default:
		return nil, fmt.Errorf("unsupported archive format: %q", format)
	}
}

// toolExtractor runs an external command, substituting {archive} and
// {dest} in args.
func toolExtractor(tool string, args ...string) func(ctx context.Context, archivePath, destDir string) error {
	return func(ctx context.Context, archivePath, destDir string) error {
		argv := make([]string, len(args))
		for i, a := range args {
			argv[i] = strings.NewReplacer("{archive}", archivePath, "{dest}", destDir).Replace(a)
		}
		return runTool(ctx, tool, argv...)
	}
}

func expandArchive(ctx context.Context, archivePath, destDir string) error {
	quote := func(s string) string { return "'" + strings.ReplaceAll(s, "'", "''") + "'" }
	script := fmt.Sprintf("Expand-Archive -LiteralPath %s -DestinationPath %s -Force", quote(archivePath), quote(destDir))
	return runTool(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command", script)
}

func runTool(ctx context.Context, tool string, args ...string) error {
	out, err := exec.CommandContext(ctx, tool, args...).CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if len(msg) > maxToolOutput {
			msg = msg[:maxToolOutput] + "..."
		}
		if msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

func extractTarGz(ctx context.Context, archivePath, destDir string) error {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	gzipReader, err := gzip.NewReader(archiveFile)
	if err != nil {
		return fmt.Errorf("create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	return untar(ctx, tar.NewReader(gzipReader), destDir)
}

func extractTarXz(ctx context.Context, archivePath, destDir string) error {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	xzReader, err := xz.NewReader(archiveFile)
	if err != nil {
		return fmt.Errorf("create xz reader: %w", err)
	}

	return untar(ctx, tar.NewReader(xzReader), destDir)
}

// untar writes every directory, regular file and contained symlink of tr
// below destDir. Entries that would land outside destDir are rejected.
func untar(ctx context.Context, tarReader *tar.Reader, destDir string) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		header, err := tarReader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		target, err := safeJoin(destDir, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}

		case tar.TypeReg:
			if err := writeFile(target, tarReader, os.FileMode(header.Mode).Perm()); err != nil {
				return err
			}

		case tar.TypeSymlink:
			if filepath.IsAbs(header.Linkname) {
				return fmt.Errorf("illegal symlink target: %s -> %s", header.Name, header.Linkname)
			}
			if _, err := safeJoin(destDir, filepath.Join(filepath.Dir(header.Name), header.Linkname)); err != nil {
				return fmt.Errorf("illegal symlink target: %s -> %s", header.Name, header.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("create parent dir for %s: %w", target, err)
			}
			if err := os.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf("create symlink %s: %w", target, err)
			}

		default:
			// Skip other types (char devices, block devices, etc.)
			continue
		}
	}
}

func extractZip(ctx context.Context, archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer reader.Close()

	for _, f := range reader.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		target, err := safeJoin(destDir, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}
			continue
		}
		if !f.Mode().IsRegular() {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("open %s: %w", f.Name, err)
		}
		err = writeFile(target, rc, f.Mode().Perm())
		rc.Close()
		if err != nil {
			return err
		}
	}

	return nil
}

// safeJoin joins name onto destDir and rejects results outside destDir.
func safeJoin(destDir, name string) (string, error) {
	cleanDest := filepath.Clean(destDir)
	target := filepath.Join(cleanDest, name)
	if target != cleanDest && !strings.HasPrefix(target, cleanDest+string(os.PathSeparator)) {
		return "", fmt.Errorf("illegal file path: %s", name)
	}
	return target, nil
}

func writeFile(target string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", target, err)
	}
	if perm == 0 {
		perm = 0644
	}

	outFile, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("create file %s: %w", target, err)
	}
	if _, err := io.Copy(outFile, r); err != nil {
		outFile.Close()
		return fmt.Errorf("write file %s: %w", target, err)
	}
	return outFile.Close()
}

// moveFile renames src to dst, copying when they are on different
// filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	if err := writeFile(dst, in, 0644); err != nil {
		os.Remove(dst)
		return err
	}
	return nil
}

func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// SetExecutable sets executable permissions on a file
func SetExecutable(path string) error {
	if err := os.Chmod(path, 0755); err != nil {
		return fmt.Errorf("set executable: %w", err)
	}
	return nil
}
