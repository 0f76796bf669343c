//go:build unix

package main

import (
	"errors"
	"os"
	"syscall"
)

// processAlive checks pid with signal 0. EPERM means the process exists
// under another user.
func processAlive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = p.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
