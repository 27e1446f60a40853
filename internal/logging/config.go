// internal/logging/config.go
package logging

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fyrsmithlabs/logrouter/internal/config"
	"go.uber.org/zap"
)

// Config describes a router and its sinks.
type Config struct {
	Level      Level          `koanf:"level"`
	Categories CategoryLevels `koanf:"categories"`
	Console    ConsoleConfig  `koanf:"console"`
	Debugger   DebuggerConfig `koanf:"debugger"`
	File       FileConfig     `koanf:"file"`
}

// ConsoleConfig controls the console sink.
type ConsoleConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Color    string `koanf:"color"` // auto, always, never
	MinLevel Level  `koanf:"min_level"`
}

// DebuggerConfig controls the debugger channel sink.
type DebuggerConfig struct {
	Enabled  bool  `koanf:"enabled"`
	MinLevel Level `koanf:"min_level"`
}

// FileConfig controls the rotating file sink.
type FileConfig struct {
	Enabled        bool            `koanf:"enabled"`
	Path           string          `koanf:"path"`
	Append         bool            `koanf:"append"`
	MaxSize        config.ByteSize `koanf:"max_size"`
	MaxGenerations int             `koanf:"max_generations"`
	MinLevel       Level           `koanf:"min_level"`
}

// CategoryLevels maps category names to threshold overrides. Its text form
// is a comma-separated list of name=level pairs, e.g. "Net=warning,Render=debug".
type CategoryLevels map[string]Level

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *CategoryLevels) UnmarshalText(text []byte) error {
	out := make(CategoryLevels)
	for _, pair := range strings.Split(string(text), ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, levelName, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("category override %q: expected name=level", pair)
		}
		level, err := ParseLevel(levelName)
		if err != nil {
			return fmt.Errorf("category override %q: %w", pair, err)
		}
		out[strings.TrimSpace(name)] = level
	}
	*c = out
	return nil
}

// MarshalText implements encoding.TextMarshaler. Pairs are sorted by name.
func (c CategoryLevels) MarshalText() ([]byte, error) {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+c[name].String())
	}
	return []byte(strings.Join(pairs, ",")), nil
}

// NewDefaultConfig returns a console-only configuration at LevelInfo.
func NewDefaultConfig() *Config {
	return &Config{
		Level: LevelInfo,
		Console: ConsoleConfig{
			Enabled:  true,
			Color:    "auto",
			MinLevel: LevelTrace,
		},
		Debugger: DebuggerConfig{
			Enabled:  false,
			MinLevel: LevelTrace,
		},
		File: FileConfig{
			Enabled:        false,
			Path:           "logs/app.log",
			Append:         true,
			MaxSize:        config.ByteSize(DefaultMaxFileSize),
			MaxGenerations: DefaultMaxGenerations,
			MinLevel:       LevelTrace,
		},
	}
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	if !c.Level.Valid() {
		return fmt.Errorf("level: %w", ErrInvalidLevel)
	}
	for name, level := range c.Categories {
		if name == "" {
			return fmt.Errorf("category override name cannot be empty")
		}
		if !level.Valid() {
			return fmt.Errorf("category %q: %w", name, ErrInvalidLevel)
		}
	}

	switch c.Console.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("console.color must be 'auto', 'always' or 'never', got %q", c.Console.Color)
	}

	if c.File.Enabled {
		if c.File.Path == "" {
			return fmt.Errorf("file.path is required when the file sink is enabled")
		}
		if c.File.MaxSize <= 0 {
			return fmt.Errorf("file.max_size must be > 0, got %d", c.File.MaxSize)
		}
		if c.File.MaxGenerations < 1 {
			return fmt.Errorf("file.max_generations must be >= 1, got %d", c.File.MaxGenerations)
		}
	}

	if !c.Console.Enabled && !c.Debugger.Enabled && !c.File.Enabled {
		return fmt.Errorf("at least one sink must be enabled (console, debugger or file)")
	}
	return nil
}

// NewRouterFromConfig validates cfg and builds a router with the sinks it
// enables, in the order console, debugger, file. diag is the fallback
// diagnostic logger shared by the router and its sinks; nil selects the
// default stderr logger. metrics may be nil.
func NewRouterFromConfig(cfg *Config, diag *zap.Logger, metrics *Metrics, opts ...RouterOption) (*Router, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	base := []RouterOption{
		WithGlobalMinLevel(cfg.Level),
		WithDiagnostics(diag),
		WithMetrics(metrics),
	}
	r := New(append(base, opts...)...)

	for name, level := range cfg.Categories {
		r.SetCategoryLevel(name, level)
	}

	if cfg.Console.Enabled {
		consoleOpts := []ConsoleOption{WithConsoleDiagnostics(diag)}
		switch cfg.Console.Color {
		case "always":
			consoleOpts = append(consoleOpts, WithColor(true))
		case "never":
			consoleOpts = append(consoleOpts, WithColor(false))
		}
		console := NewConsoleSink(consoleOpts...)
		console.SetMinLevel(cfg.Console.MinLevel)
		r.AddSink(console)
	}

	if cfg.Debugger.Enabled {
		dbg := NewDebugChannelSink()
		dbg.SetMinLevel(cfg.Debugger.MinLevel)
		r.AddSink(dbg)
	}

	if cfg.File.Enabled {
		file := NewRotatingFileSink(cfg.File.Path, cfg.File.Append,
			WithMaxFileSize(int64(cfg.File.MaxSize)),
			WithMaxGenerations(cfg.File.MaxGenerations),
			WithFileDiagnostics(diag),
			WithFileMetrics(metrics),
		)
		file.SetMinLevel(cfg.File.MinLevel)
		r.AddSink(file)
	}

	return r, nil
}
