package logging

import (
	"bytes"
	"runtime"
	"strconv"
	"time"
)

// Origin is the source location a record was emitted from.
type Origin struct {
	File string
	Line int
}

// IsZero reports whether the origin carries no usable location.
func (o Origin) IsZero() bool {
	return o.File == "" || o.Line <= 0
}

// Caller returns the origin of the function skip frames above its caller.
// Caller(0) is the location of the Caller call itself.
func Caller(skip int) Origin {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return Origin{}
	}
	return Origin{File: file, Line: line}
}

// Record describes one accepted log event. It is built once by the Router
// and passed by value to every sink, so sinks cannot mutate what the others see.
type Record struct {
	Level    Level
	Category string
	Message  string
	Origin   Origin
	Time     time.Time
	// Goroutine identifies the emitting goroutine, for untangling
	// interleaved output.
	Goroutine uint64
}

// Format renders the record with Format.
func (r Record) Format() string {
	return Format(r)
}

var goroutinePrefix = []byte("goroutine ")

// goroutineID returns the id of the calling goroutine, or 0 if the runtime
// stack header cannot be parsed.
func goroutineID() uint64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, goroutinePrefix)
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
