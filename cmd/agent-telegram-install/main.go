// Command agent-telegram-install provisions the agent-telegram binary for
// the running host into <root>/bin. It is meant to run from an npm
// postinstall script but works standalone.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// Version is overridden at build time via -ldflags.
var Version = "dev"

func main() {
	runMain(os.Args, os.Stdout, os.Stderr, os.Exit)
}

// runMain executes the CLI and exits 1 on any failure.
func runMain(args []string, stdout, stderr io.Writer, exit func(int)) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(stdout, stderr)
	if len(args) > 1 {
		cmd.SetArgs(args[1:])
	} else {
		cmd.SetArgs([]string{})
	}

	if err := cmd.ExecuteContext(ctx); err != nil {
		printFailure(stderr, err, verboseFlag(cmd))
		stop()
		exit(1)
	}
}
