package binary

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/agent-telegram/binwrap/internal/platform"
)

// DefaultPreserve lists bin directory entries the launcher depends on.
// Cleanup never removes them.
var DefaultPreserve = []string{"agent-telegram-run", "agent-telegram-run.exe", "run.js"}

// Manager orchestrates host resolution, download, verification,
// extraction and installation.
type Manager struct {
	root       string
	binDir     string
	preserve   []string
	detector   platform.Detector
	locator    *Locator
	downloader *Downloader
	verifier   *Verifier
	verifyCfg  VerifyConfig
	logger     *log.Logger

	state State
}

// Config holds configuration for the binary manager
type Config struct {
	// Root is the package root; the binary is installed to <Root>/bin
	Root string
	// Release configures artifact naming and location
	Release ReleaseConfig
	// Verify configures integrity checks
	Verify VerifyConfig
	// Detector resolves the host (default: gopsutil-backed detector)
	Detector platform.Detector
	// Preserve names bin entries kept during cleanup (default: DefaultPreserve)
	Preserve []string
	// UserAgent is sent with every request
	UserAgent string
	// Logger receives progress output; nil discards it
	Logger *log.Logger
}

// Result describes a completed provisioning run.
type Result struct {
	Host     *platform.Host
	Artifact *Artifact       // nil when the run was skipped
	Download *DownloadResult // nil when the run was skipped
	Binary   *InstalledBinary
	Skipped  bool
	Verified VerificationMethod
	Duration time.Duration
}

// NewManager creates a new binary manager
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("Root is required")
	}
	if cfg.Verify.GPGEnabled() && !keyringExists(cfg.Verify.KeyringPath) {
		return nil, fmt.Errorf("keyring %s does not exist or is empty", cfg.Verify.KeyringPath)
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	detector := cfg.Detector
	if detector == nil {
		detector = platform.NewDetector()
	}
	preserve := cfg.Preserve
	if preserve == nil {
		preserve = DefaultPreserve
	}

	return &Manager{
		root:       root,
		binDir:     BinDir(root),
		preserve:   preserve,
		detector:   detector,
		locator:    NewLocator(cfg.Release),
		downloader: NewDownloader(cfg.UserAgent, logger),
		verifier:   NewVerifier(cfg.Verify),
		verifyCfg:  cfg.Verify,
		logger:     logger,
		state:      StateNotStarted,
	}, nil
}

// State returns the pipeline stage the last Install call reached.
func (m *Manager) State() State {
	return m.state
}

// BinaryPath returns the canonical install path for host.
func (m *Manager) BinaryPath(host *platform.Host) string {
	return CanonicalPath(m.root, m.locator.cfg.Name, host)
}

// Locate resolves the artifact for version on host without downloading.
func (m *Manager) Locate(version string, host *platform.Host) (*Artifact, error) {
	return m.locator.Locate(version, host)
}

// IsInstalled checks if the binary is present at the canonical path as a
// regular file, executable on non-Windows hosts.
func (m *Manager) IsInstalled(host *platform.Host) (bool, error) {
	return IsInstalledAt(m.BinaryPath(host), host)
}

// IsInstalledAt applies the IsInstalled check to an explicit path. It
// touches nothing but the file's metadata.
func IsInstalledAt(path string, host *platform.Host) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat binary: %w", err)
	}

	if !info.Mode().IsRegular() {
		return false, nil
	}

	if !host.IsWindows() && info.Mode().Perm()&0111 == 0 {
		return false, nil
	}

	return true, nil
}

func (m *Manager) transition(s State) {
	m.logger.Debug("provisioning state", "from", m.state, "to", s)
	m.state = s
}

// Install provisions version. It returns immediately with Skipped set when
// the canonical binary already exists. On failure the canonical path is
// left untouched and the state is StateFailed.
func (m *Manager) Install(ctx context.Context, version string) (result *Result, err error) {
	start := time.Now()
	m.state = StateNotStarted

	defer func() {
		if err != nil {
			m.transition(StateFailed)
		}
	}()

	host, err := m.detector.Detect(ctx)
	if err != nil {
		return nil, err
	}

	installed, err := m.IsInstalled(host)
	if err != nil {
		return nil, fmt.Errorf("check if installed: %w", err)
	}
	if installed {
		m.transition(StateInstalled)
		m.logger.Info("Binary already exists", "path", m.BinaryPath(host))
		return &Result{
			Host:     host,
			Binary:   &InstalledBinary{Path: m.BinaryPath(host), Executable: true},
			Skipped:  true,
			Duration: time.Since(start),
		}, nil
	}
	m.transition(StatePlatformResolved)

	artifact, err := m.locator.Locate(version, host)
	if err != nil {
		return nil, fmt.Errorf("locate artifact: %w", err)
	}
	m.transition(StateArtifactLocated)

	workDir, err := os.MkdirTemp("", "agent-telegram-download-*")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	m.logger.Info("Downloading", "name", artifact.Name, "version", artifact.Version, "url", artifact.URL)
	assetPath := filepath.Join(workDir, artifact.AssetName)
	fetchStart := time.Now()
	size, err := m.downloader.Fetch(ctx, artifact.URL, assetPath)
	if err != nil {
		return nil, err
	}
	download := &DownloadResult{
		Path:         assetPath,
		Format:       artifact.Format,
		Size:         size,
		DownloadTime: time.Since(fetchStart),
	}
	m.transition(StateDownloaded)

	download.Verified, err = m.verify(ctx, artifact, assetPath, workDir)
	if err != nil {
		return nil, err
	}
	m.transition(StateVerified)

	if err := os.MkdirAll(m.binDir, 0755); err != nil {
		return nil, fmt.Errorf("create bin dir: %w", err)
	}
	stageDir, err := os.MkdirTemp(m.binDir, ".extract-*")
	if err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	defer func() {
		if err != nil {
			os.RemoveAll(stageDir)
		}
	}()

	extractor := NewExtractor(host.OS, m.logger)
	if err := extractor.Extract(ctx, assetPath, artifact.Format, stageDir, artifact.BinaryName); err != nil {
		return nil, err
	}
	m.transition(StateExtracted)

	bin, err := NewInstaller(host.OS, m.logger).Install(stageDir, m.binDir, artifact.BinaryName, m.preserve)
	if err != nil {
		return nil, err
	}
	m.transition(StateInstalled)

	m.logger.Info("Successfully installed", "name", artifact.Name, "path", bin.Path,
		"bytes", download.Size, "verified", download.Verified)
	return &Result{
		Host:     host,
		Artifact: artifact,
		Download: download,
		Binary:   bin,
		Verified: download.Verified,
		Duration: time.Since(start),
	}, nil
}

// verify fetches the checksum file (and signature material when
// configured) next to assetPath and checks the asset against it.
func (m *Manager) verify(ctx context.Context, a *Artifact, assetPath, workDir string) (VerificationMethod, error) {
	if m.verifyCfg.Mode == VerifyOff {
		m.logger.Warn("Skipping verification", "asset", a.AssetName)
		return VerificationNone, nil
	}

	checksumPath := filepath.Join(workDir, path.Base(a.ChecksumURL))
	if _, err := m.downloader.Fetch(ctx, a.ChecksumURL, checksumPath); err != nil {
		strict := m.verifyCfg.Mode == VerifyRequire || m.verifyCfg.GPGEnabled() || m.verifyCfg.SigstoreEnabled()
		if IsNotFound(err) && !strict {
			m.logger.Warn("No checksum file published; installing unverified", "url", a.ChecksumURL)
			return VerificationNone, nil
		}
		if IsNotFound(err) {
			return VerificationNone, &VerificationFailedError{Method: VerificationSHA256, AssetName: a.AssetName, Cause: err}
		}
		return VerificationNone, err
	}

	var signaturePath, bundlePath string
	if m.verifyCfg.GPGEnabled() {
		signaturePath = filepath.Join(workDir, path.Base(a.SignatureURL))
		if _, err := m.downloader.Fetch(ctx, a.SignatureURL, signaturePath); err != nil {
			return VerificationNone, &VerificationFailedError{Method: VerificationGPG, AssetName: a.AssetName, Cause: err}
		}
	}
	if m.verifyCfg.SigstoreEnabled() {
		bundlePath = filepath.Join(workDir, path.Base(a.BundleURL))
		if _, err := m.downloader.Fetch(ctx, a.BundleURL, bundlePath); err != nil {
			return VerificationNone, &VerificationFailedError{Method: VerificationSigstore, AssetName: a.AssetName, Cause: err}
		}
	}

	result, err := m.verifier.VerifyFile(assetPath, checksumPath, signaturePath, bundlePath, a)
	if err != nil {
		return VerificationNone, err
	}

	m.logger.Debug("verified", "asset", a.AssetName, "method", result.Method)
	return result.Method, nil
}
