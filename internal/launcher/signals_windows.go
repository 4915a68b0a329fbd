//go:build windows

package launcher

import "os"

// Console control events reach every process attached to the console, so
// nothing is forwarded on Windows.
var (
	caughtSignals    = []os.Signal{os.Interrupt}
	forwardedSignals = map[os.Signal]bool{}
)
