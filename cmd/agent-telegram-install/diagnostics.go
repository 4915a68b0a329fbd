package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/agent-telegram/binwrap/internal/binary"
	"github.com/agent-telegram/binwrap/internal/config"
)

// printFailure writes "Error: <cause>" followed by any remediation hints.
func printFailure(w io.Writer, err error, verbose bool) {
	_, _ = fmt.Fprintf(w, "%s %s\n", color.RedString("Error:"), config.FormatError(err, verbose))

	var artifact *binary.Artifact
	var failure *installFailure
	if errors.As(err, &failure) {
		artifact = failure.artifact
	}

	hintColor := color.New(color.FgYellow)
	for _, hint := range binary.Remediation(err, artifact) {
		_, _ = hintColor.Fprint(w, "hint:")
		_, _ = fmt.Fprintf(w, " %s\n", hint)
	}
}
