package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector using the compiled-in userland
// architecture and gopsutil host information.
type RealDetector struct {
	goos     string
	goarch   string
	hostInfo func(context.Context) (*host.InfoStat, error)
}

// NewDetector creates a new host detector.
func NewDetector() Detector {
	return &RealDetector{
		goos:     runtime.GOOS,
		goarch:   runtime.GOARCH,
		hostInfo: host.InfoWithContext,
	}
}

// Detect resolves the host. The architecture is always the userland one
// (runtime.GOARCH): a 64-bit kernel can run a 32-bit userland that cannot
// execute 64-bit binaries. The kernel architecture reported by gopsutil is
// kept in KernelArch for diagnostics. gopsutil failures only lose distro
// details; a cancelled context is a hard failure.
func (d *RealDetector) Detect(ctx context.Context) (*Host, error) {
	rawOS, rawArch := d.goos, d.goarch
	if rawOS == "" {
		rawOS = runtime.GOOS
	}
	if rawArch == "" {
		rawArch = runtime.GOARCH
	}
	hostInfo := d.hostInfo
	if hostInfo == nil {
		hostInfo = host.InfoWithContext
	}

	info, err := hostInfo(ctx)
	if err != nil && ctx.Err() != nil {
		return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
	}
	if err != nil {
		info = nil
	}
	if info != nil && info.OS != "" {
		rawOS = info.OS
	}

	h, err := Resolve(rawOS, rawArch)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return h, nil
	}

	h.KernelArch = info.KernelArch
	if h.IsLinux() {
		platform := normalizePlatform(info.Platform)
		if platform != "" {
			h.Platform = platform
			h.Family = mapFamily(info.PlatformFamily)
			h.Version = normalizePlatform(info.PlatformVersion)
		}
	}

	return h, nil
}

// StaticDetector resolves fixed raw identifiers without touching the
// system.
type StaticDetector struct {
	RawOS   string
	RawArch string
}

// NewRuntimeDetector returns a StaticDetector for the compiled-in
// runtime.GOOS and runtime.GOARCH. The launcher uses it: the binary it
// starts must match its own userland.
func NewRuntimeDetector() Detector {
	return &StaticDetector{RawOS: runtime.GOOS, RawArch: runtime.GOARCH}
}

// Detect resolves the configured identifiers.
func (d *StaticDetector) Detect(ctx context.Context) (*Host, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Resolve(d.RawOS, d.RawArch)
}
