package binary

import (
	"time"
)

// Format is the container format of a release artifact.
type Format string

const (
	// FormatTarGz is a gzip-compressed tarball
	FormatTarGz Format = "tar.gz"
	// FormatTarXz is an xz-compressed tarball
	FormatTarXz Format = "tar.xz"
	// FormatZip is a zip archive
	FormatZip Format = "zip"
	// FormatRaw means the payload is the executable itself
	FormatRaw Format = "raw"
)

// String returns the string representation of the format
func (f Format) String() string {
	return string(f)
}

// Extension returns the file name extension including the leading dot,
// or "" for raw binaries.
func (f Format) Extension() string {
	if f == FormatRaw {
		return ""
	}
	return "." + string(f)
}

// Scheme selects how release assets are named.
type Scheme string

const (
	// SchemeBare publishes one bare executable per platform:
	// name-os-arch[.exe]
	SchemeBare Scheme = "bare"
	// SchemeArchive publishes one archive per platform:
	// name_version_os_arch.{tar.gz|zip}
	SchemeArchive Scheme = "archive"
)

// ParseScheme converts a configuration string to a Scheme.
func ParseScheme(s string) (Scheme, bool) {
	switch Scheme(s) {
	case SchemeBare, SchemeArchive:
		return Scheme(s), true
	default:
		return "", false
	}
}

// Artifact fully identifies one downloadable release asset and where its
// contents end up.
type Artifact struct {
	Name       string // project name, e.g. "agent-telegram"
	Version    string // semantic version without leading "v"
	OS         string // "linux", "darwin", "windows"
	Arch       string // "amd64", "arm64", "arm"
	Scheme     Scheme
	Format     Format
	AssetName  string // file name of the asset in the release
	BinaryName string // executable name inside the asset, e.g. "agent-telegram.exe"

	URL          string // asset download URL
	ChecksumURL  string // SHA256 checksum file URL
	SignatureURL string // detached GPG signature over the checksum file
	BundleURL    string // Sigstore bundle over the checksum file
}

// VerificationMethod indicates how a download was verified
type VerificationMethod int

const (
	// VerificationNone indicates the artifact was installed unverified
	VerificationNone VerificationMethod = iota
	// VerificationSHA256 indicates the SHA256 checksum matched
	VerificationSHA256
	// VerificationGPG indicates a GPG-signed checksum file matched
	VerificationGPG
	// VerificationSigstore indicates a Sigstore-signed checksum file matched
	VerificationSigstore
)

// String returns the string representation of the verification method
func (v VerificationMethod) String() string {
	switch v {
	case VerificationNone:
		return "None"
	case VerificationSHA256:
		return "SHA256"
	case VerificationGPG:
		return "GPG"
	case VerificationSigstore:
		return "Sigstore"
	default:
		return "Unknown"
	}
}

// VerifyMode controls how strictly downloads are verified.
type VerifyMode string

const (
	// VerifyAuto verifies when a checksum file is published and warns otherwise
	VerifyAuto VerifyMode = "auto"
	// VerifyRequire fails when no checksum can be found
	VerifyRequire VerifyMode = "require"
	// VerifyOff skips verification entirely
	VerifyOff VerifyMode = "off"
)

// ParseVerifyMode converts a configuration string to a VerifyMode.
func ParseVerifyMode(s string) (VerifyMode, bool) {
	switch VerifyMode(s) {
	case VerifyAuto, VerifyRequire, VerifyOff:
		return VerifyMode(s), true
	default:
		return "", false
	}
}

// DownloadResult describes a fetched payload. It is transient: the file at
// Path is removed once extraction finishes.
type DownloadResult struct {
	Path         string
	Format       Format
	Size         int64
	Verified     VerificationMethod
	DownloadTime time.Duration
}

// VerificationResult contains the outcome of a verification attempt
type VerificationResult struct {
	Method  VerificationMethod
	Success bool
	Error   error
}

// InstalledBinary is the end state provisioning guarantees.
type InstalledBinary struct {
	Path       string
	Executable bool
}

// State is a provisioning pipeline stage.
type State int

const (
	StateNotStarted State = iota
	StatePlatformResolved
	StateArtifactLocated
	StateDownloaded
	StateVerified
	StateExtracted
	StateInstalled
	StateFailed
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NotStarted"
	case StatePlatformResolved:
		return "PlatformResolved"
	case StateArtifactLocated:
		return "ArtifactLocated"
	case StateDownloaded:
		return "Downloaded"
	case StateVerified:
		return "Verified"
	case StateExtracted:
		return "Extracted"
	case StateInstalled:
		return "Installed"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}
