// internal/logging/testing.go
package logging

import (
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// RecordingSink keeps every record it accepts in memory.
type RecordingSink struct {
	SinkBase

	mu      sync.Mutex
	records []Record
	flushes int
	closed  bool
	onFlush func()
}

// NewRecordingSink creates an enabled sink that accepts every level.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

// Name identifies the sink in diagnostics.
func (s *RecordingSink) Name() string { return "recording" }

// Write stores rec if it passes the sink's gate.
func (s *RecordingSink) Write(rec Record) {
	if !s.ShouldWrite(rec) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
}

// Flush counts the call and runs the OnFlush hook, if any.
func (s *RecordingSink) Flush() {
	s.mu.Lock()
	s.flushes++
	hook := s.onFlush
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
}

// Close marks the sink closed. A second call returns ErrSinkClosed.
func (s *RecordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	s.closed = true
	return nil
}

// OnFlush sets a hook run after every Flush.
func (s *RecordingSink) OnFlush(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFlush = fn
}

// Records returns a copy of the stored records in arrival order.
func (s *RecordingSink) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Messages returns the message of every stored record.
func (s *RecordingSink) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.records))
	for i, rec := range s.records {
		out[i] = rec.Message
	}
	return out
}

// Flushes returns the number of Flush calls.
func (s *RecordingSink) Flushes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushes
}

// Closed reports whether Close was called.
func (s *RecordingSink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Reset drops stored records and the flush count.
func (s *RecordingSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.flushes = 0
}

// AssertLogged verifies a record at level containing msgContains was stored.
func (s *RecordingSink) AssertLogged(tb testing.TB, level Level, msgContains string) {
	tb.Helper()
	for _, rec := range s.Records() {
		if rec.Level == level && strings.Contains(rec.Message, msgContains) {
			return
		}
	}
	tb.Errorf("expected record at %v containing %q, records: %+v", level, msgContains, s.Records())
}

// AssertNotLogged verifies no record at level containing msgContains was stored.
func (s *RecordingSink) AssertNotLogged(tb testing.TB, level Level, msgContains string) {
	tb.Helper()
	for _, rec := range s.Records() {
		if rec.Level == level && strings.Contains(rec.Message, msgContains) {
			tb.Errorf("unexpected record at %v containing %q", level, msgContains)
		}
	}
}

// NewObservedDiagnostics returns a diagnostic logger that captures every
// entry, for asserting on sink failure reports.
func NewObservedDiagnostics() (*zap.Logger, *observer.ObservedLogs) {
	core, observed := observer.New(zapcore.DebugLevel)
	return zap.New(core), observed
}
