package main

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/felixgeelhaar/learneasy/internal/client"
	"github.com/felixgeelhaar/learneasy/internal/config"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the LearnEasy daemon",
	Args:  cobra.NoArgs,
	RunE:  runStart,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the LearnEasy daemon",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recent daemon logs",
	Args:  cobra.NoArgs,
	RunE:  runLogs,
}

// runStart starts the daemon in the background
func runStart(cmd *cobra.Command, args []string) error {
	addr, err := daemonURL(cmd)
	if err != nil {
		return err
	}

	if isRunning(cmd, addr) {
		fmt.Println("✓ Daemon is already running")
		return nil
	}

	baseDir, err := config.EnsureLearnEasyDir()
	if err != nil {
		return fmt.Errorf("setup learneasy directory: %w", err)
	}

	daemonPath, err := findDaemonBinary()
	if err != nil {
		return fmt.Errorf("find daemon binary: %w", err)
	}

	proc := exec.Command(daemonPath)
	proc.Dir = baseDir
	proc.Stdout = nil
	proc.Stderr = nil

	// Detach from parent process (platform-specific)
	configureDaemonProcess(proc)

	if err := proc.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	fmt.Print("Starting daemon...")
	for i := 0; i < 30; i++ {
		time.Sleep(100 * time.Millisecond)
		if isRunning(cmd, addr) {
			fmt.Println(" ✓")
			fmt.Printf("Daemon running at %s\n", addr)
			return nil
		}
		fmt.Print(".")
	}

	fmt.Println(" ✗")
	return fmt.Errorf("daemon failed to start (check logs with 'learneasy logs')")
}

// runStop sends SIGTERM to the daemon recorded in the PID file
func runStop(cmd *cobra.Command, args []string) error {
	addr, err := daemonURL(cmd)
	if err != nil {
		return err
	}

	if !isRunning(cmd, addr) {
		fmt.Println("Daemon is not running")
		return nil
	}

	baseDir, err := config.LearnEasyDir()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(filepath.Join(baseDir, pidFile))
	if err != nil {
		return fmt.Errorf("read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return fmt.Errorf("parse PID: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process: %w", err)
	}

	fmt.Print("Stopping daemon...")
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("send signal: %w", err)
	}

	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		if !isRunning(cmd, addr) {
			fmt.Println(" ✓")
			return nil
		}
		fmt.Print(".")
	}

	fmt.Println(" ✗")
	return fmt.Errorf("daemon did not stop gracefully")
}

// runStatus shows daemon status
func runStatus(cmd *cobra.Command, args []string) error {
	addr, err := daemonURL(cmd)
	if err != nil {
		return err
	}

	if !isRunning(cmd, addr) {
		fmt.Println("Status: stopped")
		return nil
	}

	status, err := client.New(addr, client.DefaultOptions()).Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("get status: %w", err)
	}

	fmt.Printf("Status:     %s\n", status.Status)
	fmt.Printf("Version:    %s\n", status.Version)
	fmt.Printf("Uptime:     %s\n", time.Duration(status.UptimeSeconds)*time.Second)
	fmt.Printf("Lessons:    %d (%d in catalog)\n", status.Content.Lessons, status.Content.CatalogEntries)
	fmt.Printf("Challenges: %d\n", status.Content.Challenges)
	fmt.Printf("Sessions:   %d (%s store)\n", status.Sessions, status.SessionStore)
	fmt.Printf("Pass rate:  %.0f%%\n", status.PassProbability*100)
	fmt.Printf("Languages:  %s\n", strings.Join(status.Languages, ", "))
	fmt.Printf("Address:    %s\n", addr)

	return nil
}

// runLogs prints the tail of the daemon log
func runLogs(cmd *cobra.Command, args []string) error {
	baseDir, err := config.LearnEasyDir()
	if err != nil {
		return err
	}

	logPath := filepath.Join(baseDir, "logs", "learneasyd.log")

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		fmt.Println("No log file found. Start the daemon first.")
		return nil
	}

	file, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	// Seek to end and go back ~4KB for recent logs
	info, _ := file.Stat()
	offset := info.Size() - 4096
	if offset < 0 {
		offset = 0
	}
	_, _ = file.Seek(offset, 0)

	reader := bufio.NewReader(file)
	// Skip partial first line if we seeked
	if offset > 0 {
		_, _ = reader.ReadString('\n')
	}

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		fmt.Println(scanner.Text())
	}

	return scanner.Err()
}

// findDaemonBinary locates the learneasyd binary
func findDaemonBinary() (string, error) {
	if path, err := exec.LookPath("learneasyd"); err == nil {
		return path, nil
	}

	// Check relative to this binary
	self, err := os.Executable()
	if err == nil {
		path := filepath.Join(filepath.Dir(self), "learneasyd")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	locations := []string{
		"/usr/local/bin/learneasyd",
		"./learneasyd",
		"./cmd/learneasyd/learneasyd",
	}

	for _, path := range locations {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("learneasyd binary not found (build with 'go build ./cmd/learneasyd')")
}
