package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agent-telegram/binwrap/internal/binary"
	"github.com/agent-telegram/binwrap/internal/config"
)

func newPathCmd(o *config.Overrides) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the canonical install path of the binary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			detector := newDetector()

			resolved, err := config.Resolve(ctx, *o, detector)
			if err != nil {
				return err
			}
			host, err := detector.Detect(ctx)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), binary.CanonicalPath(resolved.Root, resolved.Manager.Release.Name, host))
			return err
		},
	}
}

func newPlatformCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "platform",
		Short: "Print the detected host platform",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			host, err := newDetector().Detect(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "platform: %s\n", host)
			_, _ = fmt.Fprintf(out, "reported: %s/%s\n", host.RawOS, host.RawArch)
			if host.KernelArch != "" {
				_, _ = fmt.Fprintf(out, "kernel:   %s\n", host.KernelArch)
			}
			if d := host.GetDistro(); d != nil {
				_, _ = fmt.Fprintf(out, "distro:   %s (%s family) %s\n", d.ID, d.Family, d.Version)
			}
			return nil
		},
	}
}

func newVersionCmd(o *config.Overrides) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the installer version and the binary version it provisions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "agent-telegram-install %s\n", Version)

			resolved, err := config.Resolve(cmd.Context(), *o, newDetector())
			if err != nil {
				return err
			}
			if err := resolved.RequireVersion(); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "agent-telegram %s\n", resolved.Version)
			return nil
		},
	}
}
