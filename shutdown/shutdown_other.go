//go:build !windows

package shutdown

import (
	"os"
	"syscall"
)

// SIGHUP covers a closed terminal window.
var signals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}
