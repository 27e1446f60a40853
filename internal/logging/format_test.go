package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		rec      Record
		expected string
	}{
		{
			name: "all segments",
			rec: Record{
				Level:    LevelWarning,
				Category: "Net",
				Message:  "socket closed",
				Origin:   Origin{File: "/src/net/client.go", Line: 88},
				Time:     fixedTime,
			},
			expected: "[14:03:07.042] [WARN ] [Net] socket closed (client.go:88)",
		},
		{
			name:     "no category",
			rec:      Record{Level: LevelInfo, Message: "started", Origin: Origin{File: "main.go", Line: 3}, Time: fixedTime},
			expected: "[14:03:07.042] [INFO ] started (main.go:3)",
		},
		{
			name:     "no origin",
			rec:      Record{Level: LevelError, Category: "Sys", Message: "disk full", Time: fixedTime},
			expected: "[14:03:07.042] [ERROR] [Sys] disk full",
		},
		{
			name:     "origin without line",
			rec:      Record{Level: LevelDebug, Message: "x", Origin: Origin{File: "a.go"}, Time: fixedTime},
			expected: "[14:03:07.042] [DEBUG] x",
		},
		{
			name:     "windows path",
			rec:      Record{Level: LevelTrace, Message: "tick", Origin: Origin{File: `C:\src\app\loop.cpp`, Line: 7}, Time: fixedTime},
			expected: "[14:03:07.042] [TRACE] tick (loop.cpp:7)",
		},
		{
			name:     "empty message",
			rec:      Record{Level: LevelFatal, Category: "Sys", Time: fixedTime},
			expected: "[14:03:07.042] [FATAL] [Sys] ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Format(tt.rec))
			assert.Equal(t, tt.expected, tt.rec.Format())
		})
	}
}

func TestFormat_Deterministic(t *testing.T) {
	rec := Record{Level: LevelInfo, Category: "Render", Message: "frame", Origin: Origin{File: "r.go", Line: 1}, Time: fixedTime}
	assert.Equal(t, Format(rec), Format(rec))
}

func TestCaller(t *testing.T) {
	o := Caller(0)
	assert.Equal(t, "format_test.go", baseName(o.File))
	assert.Positive(t, o.Line)
	assert.False(t, o.IsZero())
}

func TestGoroutineID(t *testing.T) {
	main := goroutineID()
	assert.NotZero(t, main)

	other := make(chan uint64)
	go func() { other <- goroutineID() }()
	assert.NotEqual(t, main, <-other)
}
