//go:build windows

package launcher

import "os"

func waitForTerm() { os.Exit(2) }
