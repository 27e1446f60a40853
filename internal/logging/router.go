// internal/logging/router.go
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Router accepts records from any goroutine and fans them out to its sinks.
//
// A record is delivered to a sink only if its level passes the router's
// effective threshold for its category (the category override when one is
// set, the global level otherwise) and then the sink's own gate.
//
// Sinks are called in registration order on the caller's goroutine, with no
// router lock held, so a sink or a failure handler may log through the same
// router. The sink list is copy-on-write: a fan-out uses the list as it was
// when the record was accepted, and each sink serializes its own writes.
type Router struct {
	mu             sync.RWMutex
	sinks          []Sink
	categoryLevels map[string]Level

	globalMin atomic.Int32
	overrides atomic.Int32

	enabled bool
	diag    *diagnostics
	metrics *Metrics
	exit    func(code int)
	now     func() time.Time
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithDiagnostics sets the logger used to report sink failures.
func WithDiagnostics(logger *zap.Logger) RouterOption {
	return func(r *Router) {
		r.diag = newDiagnostics(logger)
	}
}

// WithMetrics attaches instruments to the router.
func WithMetrics(m *Metrics) RouterOption {
	return func(r *Router) {
		r.metrics = m
	}
}

// WithGlobalMinLevel sets the initial global threshold.
func WithGlobalMinLevel(level Level) RouterOption {
	return func(r *Router) {
		r.globalMin.Store(int32(level))
	}
}

// WithDisabled makes the router reject every record before dispatch, as a
// release build does.
func WithDisabled() RouterOption {
	return func(r *Router) {
		r.enabled = false
	}
}

// WithExitFunc replaces os.Exit on the fatal path. Used by tests.
func WithExitFunc(exit func(code int)) RouterOption {
	return func(r *Router) {
		r.exit = exit
	}
}

// New creates a Router with no sinks and a global threshold of LevelTrace.
// Records are dispatched only when the binary was built without the
// logrouter_release tag.
func New(opts ...RouterOption) *Router {
	r := &Router{
		categoryLevels: make(map[string]Level),
		enabled:        BuildEnabled,
		exit:           os.Exit,
		now:            time.Now,
	}
	r.globalMin.Store(int32(LevelTrace))
	for _, opt := range opts {
		opt(r)
	}
	if r.diag == nil {
		r.diag = newDiagnostics(nil)
	}
	return r
}

// AddSink appends a sink. The router takes ownership: it flushes and closes
// the sink on ClearSinks or Close. Nil sinks are ignored; the same kind of
// sink may be registered more than once.
func (r *Router) AddSink(s Sink) {
	if s == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	sinks := make([]Sink, len(r.sinks), len(r.sinks)+1)
	copy(sinks, r.sinks)
	r.sinks = append(sinks, s)
}

// Sinks returns a snapshot of the registered sinks in fan-out order.
func (r *Router) Sinks() []Sink {
	sinks := r.sinkList()
	out := make([]Sink, len(sinks))
	copy(out, sinks)
	return out
}

// sinkList returns the current sink slice. The slice is never modified in
// place, so it may be read after the lock is released.
func (r *Router) sinkList() []Sink {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sinks
}

// ClearSinks flushes, closes and removes every sink.
func (r *Router) ClearSinks() {
	_ = r.clearSinks()
}

// Close flushes and closes every sink. The router stays usable; records
// logged afterwards go nowhere until sinks are added again.
func (r *Router) Close() error {
	return r.clearSinks()
}

func (r *Router) clearSinks() error {
	r.mu.Lock()
	sinks := r.sinks
	r.sinks = nil
	r.mu.Unlock()

	var errs []error
	for _, s := range sinks {
		r.flushSink(s)
		if c, ok := s.(io.Closer); ok {
			if err := r.closeSink(c, s); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", sinkName(s), err))
			}
		}
	}
	return errors.Join(errs...)
}

func (r *Router) closeSink(c io.Closer, s Sink) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
			r.sinkPanicked(s, "close", p)
		}
	}()
	return c.Close()
}

// SetGlobalMinLevel sets the threshold used for categories without an override.
func (r *Router) SetGlobalMinLevel(level Level) {
	r.globalMin.Store(int32(level))
}

// GlobalMinLevel returns the threshold used for categories without an override.
func (r *Router) GlobalMinLevel() Level {
	return Level(r.globalMin.Load())
}

// SetCategoryLevel overrides the threshold for one category.
func (r *Router) SetCategoryLevel(category string, level Level) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categoryLevels[category]; !ok {
		r.overrides.Add(1)
	}
	r.categoryLevels[category] = level
}

// ClearCategoryLevel removes a category override. The category falls back
// to the global threshold.
func (r *Router) ClearCategoryLevel(category string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categoryLevels[category]; ok {
		delete(r.categoryLevels, category)
		r.overrides.Add(-1)
	}
}

// CategoryLevel returns the effective threshold for category: its override
// if one is set, the global threshold otherwise.
func (r *Router) CategoryLevel(category string) Level {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if level, ok := r.categoryLevels[category]; ok {
		return level
	}
	return Level(r.globalMin.Load())
}

// accepts is the fast-reject check. It takes no lock while no category
// overrides exist.
func (r *Router) accepts(level Level, category string) bool {
	if !r.enabled {
		return false
	}
	if r.overrides.Load() == 0 {
		return level >= Level(r.globalMin.Load())
	}
	return level >= r.CategoryLevel(category)
}

// lowestThreshold returns the smallest threshold across the global level and
// every override, i.e. the lowest level any category could accept.
func (r *Router) lowestThreshold() Level {
	lowest := Level(r.globalMin.Load())
	if r.overrides.Load() == 0 {
		return lowest
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, level := range r.categoryLevels {
		if level < lowest {
			lowest = level
		}
	}
	return lowest
}

// Log delivers a record to every sink if level passes the effective
// threshold of category. A rejected call builds nothing and touches no sink.
func (r *Router) Log(level Level, category, message string, origin Origin) {
	if !r.accepts(level, category) {
		return
	}
	r.dispatch(r.newRecord(level, category, message, origin))
}

func (r *Router) newRecord(level Level, category, message string, origin Origin) Record {
	return Record{
		Level:     level,
		Category:  category,
		Message:   message,
		Origin:    origin,
		Time:      r.now(),
		Goroutine: goroutineID(),
	}
}

func (r *Router) dispatch(rec Record) {
	for _, s := range r.sinkList() {
		r.writeSink(s, rec)
	}

	r.metrics.RecordAccepted(context.Background(), rec.Level)
}

// writeSink contains a misbehaving sink: a panic is reported and the
// fan-out continues with the next sink.
func (r *Router) writeSink(s Sink, rec Record) {
	defer func() {
		if p := recover(); p != nil {
			r.sinkPanicked(s, "write", p)
		}
	}()
	s.Write(rec)
}

func (r *Router) flushSink(s Sink) {
	defer func() {
		if p := recover(); p != nil {
			r.sinkPanicked(s, "flush", p)
		}
	}()
	s.Flush()
}

func (r *Router) sinkPanicked(s Sink, op string, p any) {
	name := sinkName(s)
	r.diag.report("sink panicked",
		zap.String("sink", name),
		zap.String("op", op),
		zap.Any("panic", p),
	)
	r.metrics.RecordSinkPanic(context.Background(), name)
}

// logCaller is shared by the per-level helpers; the origin is captured only
// after the threshold check passes.
func (r *Router) logCaller(level Level, category, message string) {
	if !r.accepts(level, category) {
		return
	}
	// 0 = logCaller, 1 = the level helper, 2 = its caller.
	r.dispatch(r.newRecord(level, category, message, Caller(2)))
}

// Trace logs at LevelTrace with the caller's location.
func (r *Router) Trace(category, message string) {
	r.logCaller(LevelTrace, category, message)
}

// Debug logs at LevelDebug with the caller's location.
func (r *Router) Debug(category, message string) {
	r.logCaller(LevelDebug, category, message)
}

// Info logs at LevelInfo with the caller's location.
func (r *Router) Info(category, message string) {
	r.logCaller(LevelInfo, category, message)
}

// Warning logs at LevelWarning with the caller's location.
func (r *Router) Warning(category, message string) {
	r.logCaller(LevelWarning, category, message)
}

// Error logs at LevelError with the caller's location.
func (r *Router) Error(category, message string) {
	r.logCaller(LevelError, category, message)
}

// Fatal logs at LevelFatal with the caller's location. It does not exit;
// use Check for the terminating path.
func (r *Router) Fatal(category, message string) {
	r.logCaller(LevelFatal, category, message)
}

// LogError logs message and err at LevelError when err is non-nil.
// It reports whether err was non-nil.
func (r *Router) LogError(category string, err error, message string) bool {
	if err == nil {
		return false
	}
	if r.accepts(LevelError, category) {
		r.dispatch(r.newRecord(LevelError, category, message+" - "+err.Error(), Caller(1)))
	}
	return true
}

// LogResult logs the outcome of an operation: LevelError with the error
// text when err is non-nil, LevelInfo otherwise.
func (r *Router) LogResult(category string, err error, message string) {
	level, text := LevelInfo, message+" - ok"
	if err != nil {
		level, text = LevelError, message+" - "+err.Error()
	}
	if r.accepts(level, category) {
		r.dispatch(r.newRecord(level, category, text, Caller(1)))
	}
}

// Flush flushes every sink. A panicking sink does not stop the others.
func (r *Router) Flush() {
	for _, s := range r.sinkList() {
		r.flushSink(s)
	}
}

// Check terminates the process when cond is false. It logs message at
// LevelFatal, flushes every sink, breaks into an attached debugger if there
// is one, and exits with status 1. The flush always completes before exit.
func (r *Router) Check(cond bool, category, message string) {
	if cond {
		return
	}
	r.Log(LevelFatal, category, message, Caller(1))
	r.Flush()
	if debuggerPresent() {
		debugBreak()
	}
	r.exit(1)
}
