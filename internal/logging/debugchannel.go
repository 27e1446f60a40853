package logging

import "sync"

// DebugChannelSink forwards formatted records to the attached-debugger
// output channel (OutputDebugString on Windows). On platforms without such a
// channel it accepts records and discards them.
type DebugChannelSink struct {
	SinkBase

	mu     sync.Mutex
	output func(string)
}

// NewDebugChannelSink creates a sink on the platform debugger channel.
func NewDebugChannelSink() *DebugChannelSink {
	return &DebugChannelSink{output: platformDebugOutput}
}

// Name identifies the sink in diagnostics.
func (s *DebugChannelSink) Name() string { return "debugger" }

// Available reports whether the platform has a debugger channel at all.
func (s *DebugChannelSink) Available() bool {
	return s.output != nil
}

// Write formats rec and sends it to the debugger channel.
func (s *DebugChannelSink) Write(rec Record) {
	if !s.ShouldWrite(rec) || s.output == nil {
		return
	}
	line := Format(rec) + "\n"

	s.mu.Lock()
	defer s.mu.Unlock()
	s.output(line)
}
