//go:build !windows

package shutdown

import (
	"os"

	"golang.org/x/sys/unix"
)

const interruptName = "SIGINT"

var handledSignals = []os.Signal{unix.SIGHUP, unix.SIGINT, unix.SIGTERM}

func isTerminate(sig os.Signal) bool { return sig == unix.SIGTERM }
func isHangup(sig os.Signal) bool    { return sig == unix.SIGHUP }
