//go:build !windows

package launcher

import (
	"os"
	"syscall"
)

// forwardedSignals are relayed to the child. os.Interrupt is caught only
// so the launcher outlives the child; the terminal already delivers it to
// the whole process group.
var (
	caughtSignals    = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}
	forwardedSignals = map[os.Signal]bool{syscall.SIGTERM: true, syscall.SIGHUP: true}
)
