package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// pidFileName is also read by `learneasy stop`
const pidFileName = "learneasyd.pid"

var errAlreadyRunning = errors.New("daemon already running")

// acquirePIDFile records this process in path. A file naming a live
// process blocks the start; a stale or unreadable one is replaced. The
// returned func removes the file if it still names this process.
func acquirePIDFile(path string) (func(), error) {
	if pid, err := readPID(path); err == nil && pid != os.Getpid() && processAlive(pid) {
		return nil, fmt.Errorf("%w: pid %d (%s)", errAlreadyRunning, pid, path)
	} else if err == nil {
		slog.Warn("replacing stale pid file", "path", path, "pid", pid)
	}

	self := os.Getpid()
	if err := os.WriteFile(path, []byte(strconv.Itoa(self)+"\n"), 0644); err != nil {
		return nil, fmt.Errorf("write pid file: %w", err)
	}

	return func() {
		if pid, err := readPID(path); err == nil && pid == self {
			os.Remove(path)
		}
	}, nil
}

func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("pid file %s: invalid content", path)
	}
	return pid, nil
}
