//go:build windows

package shutdown

import (
	"os"
	"syscall"
)

const interruptName = "CTRL_BREAK_EVENT"

// Console control events, CTRL_BREAK included, arrive as os.Interrupt.
var handledSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func isTerminate(sig os.Signal) bool { return sig == syscall.SIGTERM }
func isHangup(os.Signal) bool        { return false }
