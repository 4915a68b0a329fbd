package binary

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/agent-telegram/binwrap/internal/platform"
)

const (
	// DefaultName is the project and executable name
	DefaultName = "agent-telegram"
	// DefaultBaseURL is the GitHub releases download root
	DefaultBaseURL = "https://github.com/agent-telegram/agent-telegram/releases/download"
)

// semverPattern accepts MAJOR.MINOR.PATCH with optional pre-release and
// build metadata.
var semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(?:-[0-9A-Za-z.-]+)?(?:\+[0-9A-Za-z.-]+)?$`)

// ReleaseConfig is the explicit input of the Locator.
type ReleaseConfig struct {
	// Name is the project name used in asset and executable names
	Name string
	// BaseURL is the releases download root; "/v<version>/<asset>" is appended
	BaseURL string
	// Scheme selects bare or archive asset naming
	Scheme Scheme
	// ChecksumFile overrides the checksum file name. It may contain
	// {name} and {version} placeholders.
	ChecksumFile string
}

// Locator maps a version and host to a release Artifact. It is pure: the
// same inputs always produce the same Artifact.
type Locator struct {
	cfg ReleaseConfig
}

// NewLocator creates a locator, filling defaults for empty fields.
func NewLocator(cfg ReleaseConfig) *Locator {
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Scheme == "" {
		cfg.Scheme = SchemeArchive
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Locator{cfg: cfg}
}

// NormalizeVersion strips a single leading "v" and validates the result.
func NormalizeVersion(version string) (string, error) {
	v := strings.TrimPrefix(strings.TrimSpace(version), "v")
	if v == "" {
		return "", fmt.Errorf("version is required")
	}
	if !semverPattern.MatchString(v) {
		return "", fmt.Errorf("invalid version %q: expected MAJOR.MINOR.PATCH", version)
	}
	return v, nil
}

// Locate builds the Artifact for version on host.
func (l *Locator) Locate(version string, host *platform.Host) (*Artifact, error) {
	if host == nil {
		return nil, fmt.Errorf("host is required")
	}

	v, err := NormalizeVersion(version)
	if err != nil {
		return nil, err
	}

	a := &Artifact{
		Name:       l.cfg.Name,
		Version:    v,
		OS:         host.OS,
		Arch:       host.Arch,
		Scheme:     l.cfg.Scheme,
		BinaryName: BinaryName(l.cfg.Name, host),
	}

	switch l.cfg.Scheme {
	case SchemeBare:
		// Pattern: {name}-{os}-{arch}[.exe]
		a.Format = FormatRaw
		a.AssetName = fmt.Sprintf("%s-%s-%s%s", l.cfg.Name, host.OS, host.Arch, host.ExecutableSuffix())
	case SchemeArchive:
		// Pattern: {name}_{version}_{os}_{arch}.{tar.gz|zip}
		a.Format = FormatTarGz
		if host.IsWindows() {
			a.Format = FormatZip
		}
		a.AssetName = fmt.Sprintf("%s_%s_%s_%s%s", l.cfg.Name, v, host.OS, host.Arch, a.Format.Extension())
	default:
		return nil, fmt.Errorf("unknown naming scheme: %q", l.cfg.Scheme)
	}

	releaseURL := fmt.Sprintf("%s/v%s", l.cfg.BaseURL, v)
	a.URL = releaseURL + "/" + a.AssetName
	a.ChecksumURL = releaseURL + "/" + l.checksumFile(v)
	a.SignatureURL = a.ChecksumURL + ".sig"
	a.BundleURL = a.ChecksumURL + ".sigstore.json"

	return a, nil
}

// checksumFile follows goreleaser's default naming for archives.
func (l *Locator) checksumFile(version string) string {
	name := l.cfg.ChecksumFile
	if name == "" {
		if l.cfg.Scheme == SchemeBare {
			return "checksums.txt"
		}
		name = "{name}_{version}_checksums.txt"
	}
	return strings.NewReplacer("{name}", l.cfg.Name, "{version}", version).Replace(name)
}

// BinaryName returns the executable file name for name on host.
func BinaryName(name string, host *platform.Host) string {
	return name + host.ExecutableSuffix()
}

// BinDir returns the directory holding the installed binary under root.
func BinDir(root string) string {
	return filepath.Join(root, "bin")
}

// CanonicalPath returns <root>/bin/<name>[.exe], the one location the
// launcher checks regardless of naming scheme.
func CanonicalPath(root, name string, host *platform.Host) string {
	return filepath.Join(BinDir(root), BinaryName(name, host))
}
