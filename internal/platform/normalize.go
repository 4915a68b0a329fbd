package platform

import (
	"strings"
)

// osMap maps raw OS identifiers to the supported OS names.
// Node-style ("win32") and uname-style ("Darwin") spellings are accepted.
var osMap = map[string]string{
	"darwin":  OSDarwin,
	"macos":   OSDarwin,
	"mac":     OSDarwin,
	"linux":   OSLinux,
	"windows": OSWindows,
	"win32":   OSWindows,
}

// archMap maps raw architecture identifiers to the supported arch names.
var archMap = map[string]string{
	"amd64":   ArchAMD64,
	"x86_64":  ArchAMD64,
	"x64":     ArchAMD64,
	"arm64":   ArchARM64,
	"aarch64": ArchARM64,
	"arm":     ArchARM,
	"armv6l":  ArchARM,
	"armv7":   ArchARM,
	"armv7l":  ArchARM,
}

// familyMap maps distribution names to their canonical family names.
// This is used to normalize variations of family strings from gopsutil.
var familyMap = map[string]string{
	"debian":   FamilyDebian,
	"ubuntu":   FamilyDebian,
	"rhel":     FamilyRHEL,
	"centos":   FamilyRHEL,
	"rocky":    FamilyRHEL,
	"fedora":   FamilyFedora,
	"suse":     FamilySUSE,
	"opensuse": FamilySUSE,
	"arch":     FamilyArch,
	"manjaro":  FamilyArch,
	"alpine":   FamilyAlpine,
	"gentoo":   FamilyGentoo,
}

// Resolve normalizes raw OS and architecture identifiers into a Host.
// It fails with *UnsupportedPlatformError when either value is outside
// the supported enumeration.
func Resolve(rawOS, rawArch string) (*Host, error) {
	goos, okOS := normalizeOS(rawOS)
	goarch, okArch := normalizeArch(rawArch)
	if !okOS || !okArch {
		return nil, &UnsupportedPlatformError{RawOS: rawOS, RawArch: rawArch}
	}

	return &Host{
		OS:      goos,
		Arch:    goarch,
		RawOS:   rawOS,
		RawArch: rawArch,
	}, nil
}

func normalizeOS(raw string) (string, bool) {
	v, ok := osMap[normalizePlatform(raw)]
	return v, ok
}

func normalizeArch(raw string) (string, bool) {
	v, ok := archMap[normalizePlatform(raw)]
	return v, ok
}

// normalizePlatform converts identifiers to lowercase for consistency.
func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

// mapFamily maps distribution family strings to canonical family names.
func mapFamily(family string) string {
	if canonical, ok := familyMap[normalizePlatform(family)]; ok {
		return canonical
	}
	return FamilyUnknown
}
