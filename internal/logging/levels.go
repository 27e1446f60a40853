// internal/logging/levels.go
package logging

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Level is the severity of a record. Levels are totally ordered and every
// threshold comparison in the package uses that order.
type Level int8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarning
	LevelError
	LevelFatal
)

// levelCount is the number of defined levels.
const levelCount = int(LevelFatal) + 1

// ErrInvalidLevel is returned when a level name cannot be parsed.
var ErrInvalidLevel = errors.New("invalid log level")

// zapTraceLevel is the zap level used for LevelTrace.
// Value: -2 (Debug is -1, Info is 0)
const zapTraceLevel = zapcore.Level(-2)

// Fixed-width labels used by the formatter. Every label is five bytes wide.
var levelLabels = [levelCount]string{
	LevelTrace:   "TRACE",
	LevelDebug:   "DEBUG",
	LevelInfo:    "INFO ",
	LevelWarning: "WARN ",
	LevelError:   "ERROR",
	LevelFatal:   "FATAL",
}

var levelNames = [levelCount]string{
	LevelTrace:   "trace",
	LevelDebug:   "debug",
	LevelInfo:    "info",
	LevelWarning: "warning",
	LevelError:   "error",
	LevelFatal:   "fatal",
}

// Valid reports whether l is one of the defined levels.
func (l Level) Valid() bool {
	return l >= LevelTrace && l <= LevelFatal
}

// String returns the lowercase level name.
func (l Level) String() string {
	if !l.Valid() {
		return fmt.Sprintf("Level(%d)", int8(l))
	}
	return levelNames[l]
}

// Label returns the fixed-width uppercase token used in formatted lines.
func (l Level) Label() string {
	if !l.Valid() {
		return "UNKNOWN"
	}
	return levelLabels[l]
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, int8(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so levels can be read
// straight from environment variables and flags.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel parses a level name, case-insensitively.
// Accepts "warn" as an alias of "warning".
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	}
	return LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}

// ZapLevel maps l onto the zap level scale.
func (l Level) ZapLevel() zapcore.Level {
	switch l {
	case LevelTrace:
		return zapTraceLevel
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelWarning:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.FatalLevel
	}
}

// levelFromZap maps a zap level onto Level. DPanic and Panic collapse into
// LevelFatal since both end the program in production builds.
func levelFromZap(l zapcore.Level) Level {
	switch {
	case l <= zapTraceLevel:
		return LevelTrace
	case l == zapcore.DebugLevel:
		return LevelDebug
	case l == zapcore.InfoLevel:
		return LevelInfo
	case l == zapcore.WarnLevel:
		return LevelWarning
	case l == zapcore.ErrorLevel:
		return LevelError
	default:
		return LevelFatal
	}
}
