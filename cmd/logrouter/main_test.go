package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/fyrsmithlabs/logrouter/internal/config"
	"github.com/fyrsmithlabs/logrouter/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range newRootCmd().Commands() {
		names[cmd.Name()] = true
		assert.NotEmpty(t, cmd.Short, cmd.Name())
		assert.NotEmpty(t, cmd.Long, cmd.Name())
	}
	for _, want := range []string{"emit", "stress", "levels"} {
		assert.True(t, names[want], "missing %s command", want)
	}
}

func TestLoadConfig_Precedence(t *testing.T) {
	t.Setenv("LOGROUTER_LEVEL", "error")
	t.Setenv("LOGROUTER_CATEGORIES", "Net=warning")
	t.Setenv("LOGROUTER_FILE_MAX_SIZE", "64KiB")
	t.Setenv("LOGROUTER_FILE_MAX_GENERATIONS", "3")
	t.Setenv("LOGROUTER_WATCH_DEBOUNCE", "250ms")

	cfg, ws, err := loadConfig(&rootFlags{})
	require.NoError(t, err)
	assert.Equal(t, logging.LevelError, cfg.Level)
	assert.Equal(t, logging.CategoryLevels{"Net": logging.LevelWarning}, cfg.Categories)
	assert.Equal(t, config.ByteSize(64<<10), cfg.File.MaxSize)
	assert.Equal(t, 3, cfg.File.MaxGenerations)
	assert.False(t, ws.Watch.Enabled)
	assert.Equal(t, "250ms", ws.Watch.Debounce.Duration().String())

	cfg, ws, err = loadConfig(&rootFlags{
		level:      "trace",
		categories: []string{"Render=debug"},
		filePath:   "out.log",
		noConsole:  true,
		color:      "never",
		watch:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, logging.LevelTrace, cfg.Level)
	assert.Equal(t, logging.CategoryLevels{"Net": logging.LevelWarning, "Render": logging.LevelDebug}, cfg.Categories)
	assert.True(t, cfg.File.Enabled)
	assert.Equal(t, "out.log", cfg.File.Path)
	assert.False(t, cfg.Console.Enabled)
	assert.Equal(t, "never", cfg.Console.Color)
	assert.True(t, ws.Watch.Enabled)
}

func TestLoadConfig_InvalidFlag(t *testing.T) {
	_, _, err := loadConfig(&rootFlags{level: "loud"})
	assert.ErrorIs(t, err, logging.ErrInvalidLevel)

	_, _, err = loadConfig(&rootFlags{categories: []string{"Net"}})
	assert.ErrorContains(t, err, "--category-level")
}

func TestEmit_CategoryOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	before := logging.Default()

	_, err := runCmd(t, "emit", "--no-console", "--file", path,
		"--category-level", "Net=warning", "--level", "debug", "--category", "Net", "dropped")
	require.NoError(t, err)

	_, err = runCmd(t, "emit", "--no-console", "--file", path,
		"--category-level", "Net=warning", "--level", "error", "--category", "Net", "--count", "2", "socket", "closed")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.Regexp(t, `^\[\d{2}:\d{2}:\d{2}\.\d{3}\] \[ERROR\] \[Net\] socket closed$`, line)
	}
	assert.Same(t, before, logging.Default(), "default router restored")
}

func TestEmit_InvalidArgs(t *testing.T) {
	_, err := runCmd(t, "emit", "--no-console", "--level", "loud", "x")
	assert.ErrorIs(t, err, logging.ErrInvalidLevel)

	_, err = runCmd(t, "emit", "--count", "0", "x")
	assert.Error(t, err)

	_, err = runCmd(t, "emit")
	assert.Error(t, err)
}

func TestLevels_Output(t *testing.T) {
	t.Setenv("LOGROUTER_CATEGORIES", "Net=warning")
	path := filepath.Join(t.TempDir(), "app.log")

	out, err := runCmd(t, "levels", "--level", "debug", "--color", "never", "--file", path, "--watch")
	require.NoError(t, err)

	assert.Contains(t, out, "global: debug\n")
	assert.Contains(t, out, "category Net: warning\n")
	assert.Contains(t, out, "sink console: enabled min=trace color=false\n")
	assert.Contains(t, out, "sink file: enabled min=trace path="+path+" max_size=10 MiB generations=5\n")
}

func TestStress_Summary(t *testing.T) {
	t.Setenv("LOGROUTER_FILE_MAX_SIZE", "8KiB")
	t.Setenv("LOGROUTER_FILE_MAX_GENERATIONS", "50")
	path := filepath.Join(t.TempDir(), "stress.log")

	out, err := runCmd(t, "stress", "--no-console", "--file", path, "--goroutines", "4", "--records", "100")
	require.NoError(t, err)

	assert.Contains(t, out, "records: 400 in ")
	// Every worker record plus the start banner.
	assert.Contains(t, out, "accepted: 401\n")
	assert.Contains(t, out, "sink panics: 0\n")
	assert.Regexp(t, `run: [0-9a-f-]{36}\n`, out)
	assert.NotContains(t, out, "rotations: 0\n")

	lines := 0
	for k := 0; k < 50; k++ {
		name := path
		if k > 0 {
			name = path + "." + strconv.Itoa(k)
		}
		data, err := os.ReadFile(name)
		if os.IsNotExist(err) {
			continue
		}
		require.NoError(t, err)
		lines += strings.Count(string(data), "\n")
	}
	assert.Equal(t, 401, lines)
}

func TestStress_InvalidArgs(t *testing.T) {
	_, err := runCmd(t, "stress", "--no-console", "--goroutines", "0")
	assert.Error(t, err)
}
