package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveContentPath(t *testing.T) {
	base := t.TempDir()
	withCatalog := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(withCatalog, "content"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(withCatalog, "content", "catalog.yaml"), []byte("lessons: []\n"), 0644))

	tests := []struct {
		name                      string
		configured, flag, baseDir string
		want                      string
	}{
		{"flag wins", "/etc/lessons", "/tmp/lessons", withCatalog, "/tmp/lessons"},
		{"configured path", "/etc/lessons", "", withCatalog, "/etc/lessons"},
		{"home content with catalog", "", "", withCatalog, filepath.Join(withCatalog, "content")},
		{"built-in catalog", "", "", base, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveContentPath(tt.configured, tt.flag, tt.baseDir))
		})
	}
}

func TestStateDir_Home(t *testing.T) {
	home := filepath.Join(t.TempDir(), "state")

	dir, err := stateDir(home)
	require.NoError(t, err)
	assert.Equal(t, home, dir)
	assert.DirExists(t, filepath.Join(home, "logs"))
	assert.DirExists(t, filepath.Join(home, "content"))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("info"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("loud"))
}

func TestNewLogHandler(t *testing.T) {
	var file, console bytes.Buffer
	logger := slog.New(newLogHandler(&file, &console, slog.LevelInfo)).With("component", "test")

	logger.Debug("hidden")
	logger.Info("content loaded", "lessons", 2)

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(file.Bytes(), &record))
	assert.Equal(t, "content loaded", record["msg"])
	assert.Equal(t, "test", record["component"])
	assert.EqualValues(t, 2, record["lessons"])

	assert.Contains(t, console.String(), "msg=\"content loaded\"")
	assert.NotContains(t, console.String(), "hidden")
}

func TestNewLogHandler_FileOnly(t *testing.T) {
	var file bytes.Buffer
	slog.New(newLogHandler(&file, nil, slog.LevelInfo)).Info("quiet start")

	assert.Equal(t, 1, strings.Count(file.String(), "\n"))
}

func TestAcquirePIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), pidFileName)

	release, err := acquirePIDFile(path)
	require.NoError(t, err)

	pid, err := readPID(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	release()
	assert.NoFileExists(t, path)
}

func TestAcquirePIDFile_Stale(t *testing.T) {
	path := filepath.Join(t.TempDir(), pidFileName)
	// pids never reach this value on supported platforms
	require.NoError(t, os.WriteFile(path, []byte("2147483646\n"), 0644))

	release, err := acquirePIDFile(path)
	require.NoError(t, err)
	defer release()

	pid, _ := readPID(path)
	assert.Equal(t, os.Getpid(), pid)
}

func TestAcquirePIDFile_LiveProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), pidFileName)
	// the parent (go test) is alive for the duration of the test
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(os.Getppid())), 0644))

	_, err := acquirePIDFile(path)
	assert.True(t, errors.Is(err, errAlreadyRunning), "err = %v", err)

	pid, _ := readPID(path)
	assert.Equal(t, os.Getppid(), pid, "existing pid file must be left alone")
}

func TestAcquirePIDFile_ReleaseKeepsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), pidFileName)

	release, err := acquirePIDFile(path)
	require.NoError(t, err)

	// another daemon took over the file
	require.NoError(t, os.WriteFile(path, []byte("2147483646\n"), 0644))
	release()

	assert.FileExists(t, path)
}
