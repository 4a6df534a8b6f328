//go:build !windows

package process

import (
	"errors"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

func exitCode(state *os.ProcessState) int {
	if status, ok := state.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return 128 + int(status.Signal())
	}
	return state.ExitCode()
}

func signalGroup(pid int, sig unix.Signal) error {
	pgid, err := unix.Getpgid(pid)
	if err != nil {
		pgid = pid
	}
	if err := unix.Kill(-pgid, sig); err != nil && !errors.Is(err, unix.ESRCH) {
		return err
	}
	return nil
}

func interrupt(pid int) error {
	return signalGroup(pid, unix.SIGINT)
}

func terminate(pid int, _ bool) error {
	return signalGroup(pid, unix.SIGKILL)
}

func hangup(pid int) error {
	return signalGroup(pid, unix.SIGHUP)
}

func envKeyEqual(a, b string) bool { return a == b }
