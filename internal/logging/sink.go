package logging

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrSinkClosed is returned by operations on a sink that has been closed.
var ErrSinkClosed = errors.New("sink closed")

// Sink is an independently configurable output destination.
//
// Write must check Enabled and MinLevel itself before doing any work: the
// Router filters by category threshold only, and sinks may be used on their
// own. Write never returns an error; failures are reported on the sink's
// diagnostic channel. Implementations must be safe for concurrent use and
// must never interleave the bytes of two records.
//
// Sinks owning a resource should also implement io.Closer; the Router
// flushes and closes them when they are cleared.
type Sink interface {
	Write(rec Record)
	Flush()
	Enabled() bool
	MinLevel() Level
}

// SinkBase carries the enable flag and minimum level shared by all sinks.
// The zero value is enabled with a minimum level of LevelTrace. Embed it to
// get default Flush, Enabled and MinLevel implementations.
type SinkBase struct {
	disabled atomic.Bool
	minLevel atomic.Int32
}

// Enabled reports whether the sink accepts records at all.
func (b *SinkBase) Enabled() bool {
	return !b.disabled.Load()
}

// SetEnabled turns the sink on or off.
func (b *SinkBase) SetEnabled(enabled bool) {
	b.disabled.Store(!enabled)
}

// MinLevel returns the lowest level the sink writes.
func (b *SinkBase) MinLevel() Level {
	return Level(b.minLevel.Load())
}

// SetMinLevel sets the lowest level the sink writes.
func (b *SinkBase) SetMinLevel(level Level) {
	b.minLevel.Store(int32(level))
}

// ShouldWrite is the sink-level gate: enabled and at or above MinLevel.
func (b *SinkBase) ShouldWrite(rec Record) bool {
	return b.Enabled() && rec.Level >= b.MinLevel()
}

// Flush is a no-op.
func (b *SinkBase) Flush() {}

// sinkName returns a short type name for diagnostics.
func sinkName(s Sink) string {
	if n, ok := s.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}
