package binary

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/agent-telegram/binwrap/internal/platform"
)

// BuildFromSource is the fallback for every failure mode.
const BuildFromSource = "go build -o bin/agent-telegram ."

// Remediation returns hint lines for a provisioning error. a may be nil
// when the failure happened before an artifact was located. Errors from
// outside the pipeline, such as bad flags, get no hints.
func Remediation(err error, a *Artifact) []string {
	if err == nil {
		return nil
	}

	var hints []string
	known := true

	var dfe *DownloadFailedError
	switch {
	case errors.Is(err, platform.ErrUnsupportedPlatform):
		hints = append(hints, "prebuilt binaries are published for darwin, linux and windows on amd64, arm64 and arm")
	case errors.As(err, &dfe) && dfe.StatusCode == http.StatusNotFound && a != nil:
		hints = append(hints, fmt.Sprintf("release v%s may not include a %s/%s build", a.Version, a.OS, a.Arch))
	case errors.As(err, &dfe) && dfe.Reason != "":
		hints = append(hints, "the release host kept redirecting; check any proxy or mirror configured in AGENT_TELEGRAM_BASE_URL")
	case errors.Is(err, ErrNetwork):
		hints = append(hints, "check your network connection and proxy settings (HTTPS_PROXY)")
	case errors.Is(err, ErrVerificationFailed):
		hints = append(hints, "the download did not match its published checksum or signature; retry, and report it if it persists")
	case errors.Is(err, ErrExtractionFailed):
		hints = append(hints, "install tar or unzip, or download the binary manually")
	case errors.Is(err, ErrBinaryNotFound):
		hints = append(hints, "the release archive has an unexpected layout; download the binary manually")
	default:
		known = false
	}
	if !known && a == nil {
		return nil
	}

	if a != nil {
		hints = append(hints, "download manually: "+a.URL)
		target := filepath.Join("bin", a.BinaryName)
		if a.Format == FormatRaw {
			hints = append(hints, fmt.Sprintf("and place it at %s", target))
		} else {
			hints = append(hints, fmt.Sprintf("then extract %s from the archive to %s", a.BinaryName, target))
		}
	}
	hints = append(hints, "or build from source: "+BuildFromSource)
	return hints
}
