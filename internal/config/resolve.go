package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agent-telegram/binwrap/internal/binary"
	"github.com/agent-telegram/binwrap/internal/platform"
)

// Overrides are values given on the command line. Empty fields are unset.
type Overrides struct {
	Root        string
	Version     string
	BaseURL     string
	Scheme      string
	Verify      string
	Keyring     string
	TrustedRoot string
	Verbose     bool
}

// Resolved is the merged configuration of one provisioning run.
type Resolved struct {
	Root     string
	Version  string
	Debug    bool
	Settings *Settings
	Release  *Release
	Manager  binary.Config
}

// Resolve merges every configuration source. Precedence, highest first:
// command line, environment, release.lua, package.json and built-in
// defaults. detector is handed to both the release parser and the
// resulting manager configuration.
func Resolve(ctx context.Context, o Overrides, detector platform.Detector) (*Resolved, error) {
	root, err := ResolveRoot(o.Root)
	if err != nil {
		return nil, err
	}

	settings, err := LoadSettings(root)
	if err != nil {
		return nil, err
	}

	release, err := NewParser(detector).ParseFile(ctx, filepath.Join(root, ReleaseFileName))
	if err != nil {
		return nil, err
	}

	version := firstNonEmpty(o.Version, settings.Version)

	scheme := binary.SchemeArchive
	if s := firstNonEmpty(o.Scheme, release.Scheme); s != "" {
		parsed, ok := binary.ParseScheme(s)
		if !ok {
			return nil, fmt.Errorf("unknown naming scheme %q: want bare or archive", s)
		}
		scheme = parsed
	}

	mode := binary.VerifyAuto
	if s := firstNonEmpty(o.Verify, settings.Verify, release.Verify); s != "" {
		parsed, ok := binary.ParseVerifyMode(s)
		if !ok {
			return nil, fmt.Errorf("unknown verify mode %q: want auto, require or off", s)
		}
		mode = parsed
	}

	keyring, err := ExpandPath(firstNonEmpty(o.Keyring, release.Keyring), root)
	if err != nil {
		return nil, err
	}
	trustedRoot, err := ExpandPath(firstNonEmpty(o.TrustedRoot, release.TrustedRoot), root)
	if err != nil {
		return nil, err
	}

	preserve := append([]string(nil), binary.DefaultPreserve...)
	preserve = append(preserve, release.Preserve...)

	return &Resolved{
		Root:     root,
		Version:  version,
		Debug:    o.Verbose || settings.Debug,
		Settings: settings,
		Release:  release,
		Manager: binary.Config{
			Root: root,
			Release: binary.ReleaseConfig{
				Name:         binary.DefaultName,
				BaseURL:      firstNonEmpty(o.BaseURL, settings.BaseURL, release.BaseURL),
				Scheme:       scheme,
				ChecksumFile: release.Checksums,
			},
			Verify: binary.VerifyConfig{
				Mode:            mode,
				KeyringPath:     keyring,
				IdentityIssuer:  release.IdentityIssuer,
				IdentitySAN:     release.IdentitySAN,
				TrustedRootPath: trustedRoot,
			},
			Detector: detector,
			Preserve: preserve,
		},
	}, nil
}

// RequireVersion fails when no source named a version to install.
func (r *Resolved) RequireVersion() error {
	if r.Version == "" {
		return fmt.Errorf("no version to install: set \"version\" in %s or %s_VERSION",
			filepath.Join(r.Root, PackageFileName), EnvPrefix)
	}
	return nil
}

// ResolveRoot picks the package root: the flag, then AGENT_TELEGRAM_ROOT,
// then the working directory, which is the package root when run from an
// npm lifecycle script. It reads no configuration files.
func ResolveRoot(flag string) (string, error) {
	root := firstNonEmpty(flag, EnvRoot())
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determine working directory: %w", err)
		}
		return wd, nil
	}
	return ExpandPath(root, "")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
