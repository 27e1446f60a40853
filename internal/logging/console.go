package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"go.uber.org/zap"
)

// Level colors, as 16-color ANSI indexes.
var levelColors = [levelCount]lipgloss.Color{
	LevelTrace:   "8",  // dark gray
	LevelDebug:   "7",  // light gray
	LevelInfo:    "10", // light green
	LevelWarning: "11", // yellow
	LevelError:   "9",  // light red
	LevelFatal:   "13", // light magenta
}

// ConsoleSink writes formatted records to stdout, or to stderr for
// LevelError and above. With color enabled every line is wrapped in the
// level's color and a reset, so the terminal returns to its prior state.
type ConsoleSink struct {
	SinkBase

	mu       sync.Mutex
	out      io.Writer
	errOut   io.Writer
	color    bool
	colorSet bool
	styles   [levelCount]lipgloss.Style
	diag     *diagnostics
}

// ConsoleOption configures a ConsoleSink.
type ConsoleOption func(*ConsoleSink)

// WithConsoleWriters replaces stdout and stderr.
func WithConsoleWriters(out, errOut io.Writer) ConsoleOption {
	return func(s *ConsoleSink) {
		s.out = out
		s.errOut = errOut
	}
}

// WithColor forces color on or off. By default color is on only when the
// sink's standard output writer is a terminal.
func WithColor(enabled bool) ConsoleOption {
	return func(s *ConsoleSink) {
		s.color = enabled
		s.colorSet = true
	}
}

// WithConsoleDiagnostics sets the logger used to report write failures.
func WithConsoleDiagnostics(logger *zap.Logger) ConsoleOption {
	return func(s *ConsoleSink) {
		s.diag = newDiagnostics(logger)
	}
}

// NewConsoleSink creates a console sink on the process's stdout and stderr.
func NewConsoleSink(opts ...ConsoleOption) *ConsoleSink {
	s := &ConsoleSink{
		out:    os.Stdout,
		errOut: os.Stderr,
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.colorSet {
		s.color = isTerminal(s.out)
	}
	if s.diag == nil {
		s.diag = newDiagnostics(nil)
	}

	// Color detection is done above; the renderer always emits ANSI codes.
	renderer := lipgloss.NewRenderer(s.out)
	renderer.SetColorProfile(termenv.ANSI256)
	for l := LevelTrace; l <= LevelFatal; l++ {
		s.styles[l] = renderer.NewStyle().
			Foreground(levelColors[l]).
			TabWidth(lipgloss.NoTabConversion)
	}
	return s
}

// Name identifies the sink in diagnostics.
func (s *ConsoleSink) Name() string { return "console" }

// SetColorEnabled turns colored output on or off.
func (s *ConsoleSink) SetColorEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.color = enabled
}

// ColorEnabled reports whether output is colored.
func (s *ConsoleSink) ColorEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.color
}

// Write formats rec and writes it as one line.
func (s *ConsoleSink) Write(rec Record) {
	if !s.ShouldWrite(rec) {
		return
	}
	line := Format(rec)

	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.out
	if rec.Level >= LevelError {
		w = s.errOut
	}
	if s.color && rec.Level.Valid() {
		line = s.colorize(rec.Level, line)
	}
	if _, err := io.WriteString(w, line+"\n"); err != nil {
		s.diag.report("console write failed", zap.Error(err))
	}
}

// colorize renders each line of text separately so multi-line messages are
// not padded to a common width.
func (s *ConsoleSink) colorize(level Level, text string) string {
	style := s.styles[level]
	if !strings.Contains(text, "\n") {
		return style.Render(text)
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = style.Render(l)
	}
	return strings.Join(lines, "\n")
}

// Flush syncs stdout and stderr when they are files.
func (s *ConsoleSink) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range []io.Writer{s.out, s.errOut} {
		syncer, ok := w.(interface{ Sync() error })
		if !ok {
			continue
		}
		if err := syncer.Sync(); err != nil && !isStdoutSyncError(err) {
			s.diag.report("console sync failed", zap.Error(err))
		}
	}
}

// isTerminal reports whether w is a terminal. Replaced in tests.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
