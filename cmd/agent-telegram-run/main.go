// Command agent-telegram-run is the package's entry point. It execs the
// provisioned agent-telegram binary with the same arguments and streams
// and exits with its exit code.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/agent-telegram/binwrap/internal/config"
	"github.com/agent-telegram/binwrap/internal/launcher"
)

func main() {
	runMain(launcher.New(""), os.Args, os.Stderr, os.Exit)
}

// runMain always calls exit: with the child's code, or launcher.ExitFailure
// when the binary is missing or cannot be started.
func runMain(l *launcher.Launcher, args []string, stderr io.Writer, exit func(int)) {
	logger := config.NewLogger(stderr, config.EnvDebug())

	path, err := l.ResolveBinary()
	if err != nil {
		printFailure(stderr, err)
		exit(launcher.ExitFailure)
		return
	}
	logger.Debug("launching", "path", path, "args", len(args)-1)

	var forwarded []string
	if len(args) > 1 {
		forwarded = args[1:]
	}

	// Interrupts are not bound to this context; the child receives them
	// from the terminal and decides when to exit.
	code, err := l.Run(context.Background(), path, forwarded)
	if err != nil {
		printFailure(stderr, err)
	}
	exit(code)
}

func printFailure(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "%s %s\n", color.RedString("Error:"), err)
	hintColor := color.New(color.FgYellow)
	for _, hint := range launcher.Hints(err) {
		_, _ = hintColor.Fprint(w, "hint:")
		_, _ = fmt.Fprintf(w, " %s\n", hint)
	}
}
