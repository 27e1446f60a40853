// Package config loads settings from the environment into typed structs.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// LoadEnv overlays environment variables starting with prefix onto target,
// which must be a pointer to a struct with koanf tags. Fields without a
// matching variable keep their current values, so callers pass a struct
// already populated with defaults.
//
// # Environment Variable Mapping
//
// The prefix is stripped, the rest is lowercased and split on the first
// underscore into section and field name:
//
//	LOGROUTER_LEVEL          -> level
//	LOGROUTER_FILE_MAX_SIZE  -> file.max_size
//	LOGROUTER_CONSOLE_COLOR  -> console.color
//
// Values are decoded with encoding.TextUnmarshaler where the field type
// implements it.
//
// # Example
//
//	cfg := logging.NewDefaultConfig()
//	if err := config.LoadEnv("LOGROUTER_", cfg); err != nil {
//	    return err
//	}
func LoadEnv(prefix string, target any) error {
	k := koanf.New(".")

	if err := k.Load(env.Provider(prefix, ".", func(s string) string {
		return envKey(prefix, s)
	}), nil); err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := k.Unmarshal("", target); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

// envKey maps an environment variable name to a koanf key.
//
// Strategy: split on first underscore only (section.field_name pattern).
func envKey(prefix, name string) string {
	lower := strings.ToLower(strings.TrimPrefix(name, prefix))
	section, field, ok := strings.Cut(lower, "_")
	if !ok {
		// No underscore: top-level field
		return lower
	}
	return section + "." + field
}
