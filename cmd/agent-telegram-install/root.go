package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agent-telegram/binwrap/internal/binary"
	"github.com/agent-telegram/binwrap/internal/config"
	"github.com/agent-telegram/binwrap/internal/platform"
)

// newDetector is replaced in tests.
var newDetector = platform.NewDetector

// installFailure carries the located artifact alongside a provisioning
// error so diagnostics can point at the manual download.
type installFailure struct {
	err      error
	artifact *binary.Artifact
}

func (f *installFailure) Error() string { return f.err.Error() }

func (f *installFailure) Unwrap() error { return f.err }

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var o config.Overrides

	cmd := &cobra.Command{
		Use:           "agent-telegram-install",
		Short:         "Download and install the agent-telegram binary for this platform",
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, o)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.PersistentFlags()
	flags.StringVar(&o.Root, "root", "", "package root; the binary goes to <root>/bin (default: $AGENT_TELEGRAM_ROOT or the working directory)")
	flags.BoolVarP(&o.Verbose, "verbose", "v", false, "enable debug logging")

	local := cmd.Flags()
	local.StringVar(&o.Version, "binary-version", "", "install this version instead of package.json's")
	local.StringVar(&o.BaseURL, "base-url", "", "releases download root")
	local.StringVar(&o.Scheme, "scheme", "", "asset naming scheme: archive or bare")
	local.StringVar(&o.Verify, "verify", "", "verification mode: auto, require or off")
	local.StringVar(&o.Keyring, "keyring", "", "GPG public keyring used to check the checksum file signature")
	local.StringVar(&o.TrustedRoot, "trusted-root", "", "Sigstore trusted root JSON (default: public good instance)")

	cmd.AddCommand(
		newPathCmd(&o),
		newPlatformCmd(),
		newVersionCmd(&o),
	)

	return cmd
}

func runInstall(cmd *cobra.Command, o config.Overrides) error {
	ctx := cmd.Context()
	detector := newDetector()
	logger := config.NewLogger(cmd.ErrOrStderr(), o.Verbose || config.EnvDebug())

	// A rerun on an installed tree only checks the canonical path; neither
	// package.json nor release.lua is read.
	root, err := config.ResolveRoot(o.Root)
	if err != nil {
		return err
	}
	host, err := detector.Detect(ctx)
	if err != nil {
		return err
	}
	existing := binary.CanonicalPath(root, binary.DefaultName, host)
	installed, err := binary.IsInstalledAt(existing, host)
	if err != nil {
		return err
	}
	if installed {
		logger.Info("Binary already exists", "path", existing)
		return nil
	}

	resolved, err := config.Resolve(ctx, o, detector)
	if err != nil {
		return err
	}
	if err := resolved.RequireVersion(); err != nil {
		return err
	}

	resolved.Manager.Logger = logger
	logger.Debug("resolved configuration", "root", resolved.Root, "version", resolved.Version,
		"package", resolved.Settings.PackageFile, "verify", resolved.Manager.Verify.Mode)

	m, err := binary.NewManager(resolved.Manager)
	if err != nil {
		return err
	}

	result, err := m.Install(ctx, resolved.Version)
	if err != nil {
		failure := &installFailure{err: err}
		failure.artifact, _ = m.Locate(resolved.Version, host)
		return failure
	}

	if !result.Skipped {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "agent-telegram %s installed to %s\n", result.Artifact.Version, result.Binary.Path)
	}
	return nil
}

func verboseFlag(cmd *cobra.Command) bool {
	v, err := cmd.PersistentFlags().GetBool("verbose")
	return err == nil && v
}
