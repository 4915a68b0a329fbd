// Package platform resolves the running host into the operating system and
// architecture vocabulary used by agent-telegram release artifacts.
//
// The architecture is the userland one (runtime.GOARCH) and the OS name
// comes from gopsutil with a runtime.GOOS fallback; both are normalized
// against a fixed enumeration. Anything outside it is an UnsupportedPlatformError, which
// callers treat as fatal before any network access happens.
package platform

import "context"

// Supported operating systems.
const (
	OSDarwin  = "darwin"
	OSLinux   = "linux"
	OSWindows = "windows"
)

// Supported architectures.
const (
	ArchAMD64 = "amd64"
	ArchARM64 = "arm64"
	ArchARM   = "arm"
)

// Linux distribution family constants, reported for diagnostics only.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora
	FamilySUSE    = "suse"    // openSUSE, SLES
	FamilyArch    = "arch"    // Arch Linux, Manjaro
	FamilyAlpine  = "alpine"  // Alpine Linux
	FamilyGentoo  = "gentoo"  // Gentoo
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// Host describes the machine a release artifact is chosen for.
// OS and Arch are always drawn from the supported enumeration.
type Host struct {
	OS      string // "darwin", "linux", "windows"
	Arch    string // "amd64", "arm64", "arm"
	RawOS   string // identifier as reported by the environment
	RawArch string // e.g. "x86_64", "aarch64", "armv7l"

	KernelArch string // kernel architecture, may differ from Arch (diagnostics only)

	Platform string // distro ID (Linux only, e.g. "ubuntu")
	Family   string // canonical family (e.g. "debian")
	Version  string // distro version (e.g. "22.04")
}

// String returns "os/arch".
func (h *Host) String() string {
	return h.OS + "/" + h.Arch
}

// Distro contains Linux distribution information.
type Distro struct {
	ID      string
	Family  string
	Version string
}

// GetDistro returns distro information on Linux hosts where detection
// succeeded, and nil otherwise.
func (h *Host) GetDistro() *Distro {
	if h.OS != OSLinux || h.Platform == "" {
		return nil
	}
	return &Distro{
		ID:      h.Platform,
		Family:  h.Family,
		Version: h.Version,
	}
}

// IsLinux returns true if the host runs Linux.
func (h *Host) IsLinux() bool {
	return h.OS == OSLinux
}

// IsMacOS returns true if the host runs macOS.
func (h *Host) IsMacOS() bool {
	return h.OS == OSDarwin
}

// IsWindows returns true if the host runs Windows.
func (h *Host) IsWindows() bool {
	return h.OS == OSWindows
}

// IsAMD64 returns true if the architecture is amd64.
func (h *Host) IsAMD64() bool {
	return h.Arch == ArchAMD64
}

// IsARM64 returns true if the architecture is arm64.
func (h *Host) IsARM64() bool {
	return h.Arch == ArchARM64
}

// IsARM returns true if the architecture is 32-bit arm.
func (h *Host) IsARM() bool {
	return h.Arch == ArchARM
}

// ExecutableSuffix returns ".exe" on Windows and "" elsewhere.
func (h *Host) ExecutableSuffix() string {
	if h.IsWindows() {
		return ".exe"
	}
	return ""
}

// Detector is the interface for host detection.
type Detector interface {
	Detect(ctx context.Context) (*Host, error)
}
