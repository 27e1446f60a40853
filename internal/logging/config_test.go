package logging

import (
	"path/filepath"
	"testing"

	"github.com/fyrsmithlabs/logrouter/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, LevelInfo, cfg.Level)
	assert.Empty(t, cfg.Categories)
	assert.True(t, cfg.Console.Enabled)
	assert.Equal(t, "auto", cfg.Console.Color)
	assert.False(t, cfg.Debugger.Enabled)
	assert.False(t, cfg.File.Enabled)
	assert.Equal(t, "logs/app.log", cfg.File.Path)
	assert.True(t, cfg.File.Append)
	assert.Equal(t, config.ByteSize(10*1024*1024), cfg.File.MaxSize)
	assert.Equal(t, 5, cfg.File.MaxGenerations)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{
			name:   "invalid level",
			mutate: func(c *Config) { c.Level = Level(9) },
			errMsg: "invalid log level",
		},
		{
			name:   "invalid category level",
			mutate: func(c *Config) { c.Categories = CategoryLevels{"Net": Level(-1)} },
			errMsg: `category "Net"`,
		},
		{
			name:   "empty category name",
			mutate: func(c *Config) { c.Categories = CategoryLevels{"": LevelInfo} },
			errMsg: "category override name cannot be empty",
		},
		{
			name:   "invalid color",
			mutate: func(c *Config) { c.Console.Color = "rainbow" },
			errMsg: "console.color must be",
		},
		{
			name: "file without path",
			mutate: func(c *Config) {
				c.File.Enabled = true
				c.File.Path = ""
			},
			errMsg: "file.path is required",
		},
		{
			name: "file without size",
			mutate: func(c *Config) {
				c.File.Enabled = true
				c.File.MaxSize = 0
			},
			errMsg: "file.max_size must be > 0",
		},
		{
			name: "file without generations",
			mutate: func(c *Config) {
				c.File.Enabled = true
				c.File.MaxGenerations = 0
			},
			errMsg: "file.max_generations must be >= 1",
		},
		{
			name:   "no sinks",
			mutate: func(c *Config) { c.Console.Enabled = false },
			errMsg: "at least one sink must be enabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestCategoryLevels_Text(t *testing.T) {
	var c CategoryLevels
	require.NoError(t, c.UnmarshalText([]byte(" Net=warn, Render=debug ,,")))
	assert.Equal(t, CategoryLevels{"Net": LevelWarning, "Render": LevelDebug}, c)

	text, err := c.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "Net=warning,Render=debug", string(text))

	require.NoError(t, c.UnmarshalText(nil))
	assert.Empty(t, c)
}

func TestCategoryLevels_InvalidText(t *testing.T) {
	var c CategoryLevels
	assert.ErrorContains(t, c.UnmarshalText([]byte("Net")), "expected name=level")
	assert.ErrorIs(t, c.UnmarshalText([]byte("Net=loud")), ErrInvalidLevel)
}

func TestNewRouterFromConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Level = LevelWarning
	cfg.Categories = CategoryLevels{"Net": LevelTrace}
	cfg.Console.Color = "never"
	cfg.Debugger.Enabled = true
	cfg.File.Enabled = true
	cfg.File.Path = filepath.Join(t.TempDir(), "app.log")
	cfg.File.MaxSize = 4096
	cfg.File.MaxGenerations = 3
	cfg.File.MinLevel = LevelError

	r, err := NewRouterFromConfig(cfg, zap.NewNop(), nil)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, LevelWarning, r.GlobalMinLevel())
	assert.Equal(t, LevelTrace, r.CategoryLevel("Net"))

	sinks := r.Sinks()
	require.Len(t, sinks, 3)

	console, ok := sinks[0].(*ConsoleSink)
	require.True(t, ok)
	assert.False(t, console.ColorEnabled())

	_, ok = sinks[1].(*DebugChannelSink)
	require.True(t, ok)

	file, ok := sinks[2].(*RotatingFileSink)
	require.True(t, ok)
	assert.True(t, file.IsOpen())
	assert.Equal(t, cfg.File.Path, file.Path())
	assert.Equal(t, int64(4096), file.MaxFileSize())
	assert.Equal(t, 3, file.MaxGenerations())
	assert.Equal(t, LevelError, file.MinLevel())
}

func TestNewRouterFromConfig_Invalid(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Console.Color = "sometimes"

	r, err := NewRouterFromConfig(cfg, zap.NewNop(), nil)
	assert.Nil(t, r)
	assert.ErrorContains(t, err, "invalid config")
}
