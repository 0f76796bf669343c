//go:build windows

package main

import "os"

// processAlive relies on FindProcess opening a handle, which fails for
// an exited process.
func processAlive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	p.Release()
	return true
}
