package oplog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedLogger(sinks ...Sink) *Logger {
	l := New(sinks...)
	l.now = func() time.Time { return time.Date(2025, 3, 1, 12, 30, 0, 0, time.Local) }
	return l
}

func TestLogger_FansOutWithSeverity(t *testing.T) {
	rec := &Recorder{}
	var seen []Severity
	l := fixedLogger(rec, FuncSink(func(line Line) { seen = append(seen, line.Severity) }))

	l.Infof("running %s", "package-cache")
	l.Successf("package cache cleaned")
	l.Errorf("failed: %v", "exit 1")

	lines := rec.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, "running package-cache", lines[0].Message)
	assert.Equal(t, []Severity{Info, Success, Error}, seen)
	assert.Equal(t, "[2025-03-01 12:30:00] package cache cleaned", lines[1].String())
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "info", Info.String())
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "error", Error.String())
}

func TestConsoleSink(t *testing.T) {
	var buf bytes.Buffer
	l := fixedLogger(NewConsoleSink(&buf))

	l.Errorf("mhwd-kernel is not installed")

	assert.Contains(t, buf.String(), "2025-03-01 12:30:00")
	assert.Contains(t, buf.String(), "mhwd-kernel is not installed")
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "archmole.log")
	fs, err := NewFileSink(path, 1)
	require.NoError(t, err)

	l := fixedLogger(fs)
	l.Successf("docker pruned")
	l.Errorf("vram reset failed")
	require.NoError(t, fs.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "docker pruned")
	assert.Contains(t, string(data), "ERROR")
	assert.Contains(t, string(data), "success")
	assert.NotContains(t, string(data), `"run"`)
}

func TestFileSink_TagsRunID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archmole.log")
	fs, err := NewFileSink(path, 1)
	require.NoError(t, err)
	rec := &Recorder{}

	l := fixedLogger(fs, rec)
	l.Infof("before any run")
	l.SetRun("0b6f2a1e-6c55-4c1c-9d3e-2f1f4f2b9a10")
	l.Successf("package cache cleaned")
	require.NoError(t, fs.Close())

	lines := rec.Lines()
	require.Len(t, lines, 2)
	assert.Empty(t, lines[0].Run)
	assert.Equal(t, "0b6f2a1e-6c55-4c1c-9d3e-2f1f4f2b9a10", lines[1].Run)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	logged := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, logged, 2)
	assert.NotContains(t, logged[0], "0b6f2a1e")
	assert.Contains(t, logged[1], "package cache cleaned")
	assert.Contains(t, logged[1], `"run": "0b6f2a1e-6c55-4c1c-9d3e-2f1f4f2b9a10"`)
}
