package logging

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

const (
	// DefaultMaxFileSize is the size at which the live file is rotated.
	DefaultMaxFileSize int64 = 10 * 1024 * 1024
	// DefaultMaxGenerations is the number of files kept, live file included.
	DefaultMaxGenerations = 5
)

// RotatingFileSink appends formatted records to a file and rotates it by
// size.
//
// On disk, the live file is at Path(), generation k (1..MaxGenerations-1) at
// "<path>.<k>", with .1 the most recent. The generation that would become
// MaxGenerations is deleted, so at most MaxGenerations files exist.
//
// When the file cannot be opened the sink reports it once and every Write is
// a no-op until Reopen succeeds.
type RotatingFileSink struct {
	SinkBase

	mu             sync.Mutex
	path           string
	file           *os.File
	currentSize    int64
	maxFileSize    int64
	maxGenerations int
	closed         bool

	// unavailableReported suppresses repeat reports of the same outage.
	unavailableReported bool

	diag    *diagnostics
	metrics *Metrics
}

// FileOption configures a RotatingFileSink.
type FileOption func(*RotatingFileSink)

// WithMaxFileSize sets the rotation threshold in bytes.
func WithMaxFileSize(bytes int64) FileOption {
	return func(s *RotatingFileSink) {
		s.maxFileSize = bytes
	}
}

// WithMaxGenerations sets the number of files kept, live file included.
func WithMaxGenerations(n int) FileOption {
	return func(s *RotatingFileSink) {
		s.maxGenerations = max(n, 1)
	}
}

// WithFileDiagnostics sets the logger used to report file failures.
func WithFileDiagnostics(logger *zap.Logger) FileOption {
	return func(s *RotatingFileSink) {
		s.diag = newDiagnostics(logger)
	}
}

// WithFileMetrics attaches instruments to the sink.
func WithFileMetrics(m *Metrics) FileOption {
	return func(s *RotatingFileSink) {
		s.metrics = m
	}
}

// NewRotatingFileSink opens path for writing, creating its parent directory
// if needed. In append mode the size of the existing file counts toward the
// rotation threshold; otherwise the file is truncated.
//
// Failure to open is not returned: it is reported on the diagnostic channel
// and the sink stays inert. Use IsOpen to check.
func NewRotatingFileSink(path string, appendMode bool, opts ...FileOption) *RotatingFileSink {
	s := &RotatingFileSink{
		path:           path,
		maxFileSize:    DefaultMaxFileSize,
		maxGenerations: DefaultMaxGenerations,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.diag == nil {
		s.diag = newDiagnostics(nil)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			s.diag.reportError("failed to create log directory",
				zap.String("dir", dir), zap.Error(err))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.open(appendMode)
	return s
}

// Name identifies the sink in diagnostics.
func (s *RotatingFileSink) Name() string { return "file" }

// Path returns the live file path.
func (s *RotatingFileSink) Path() string { return s.path }

// IsOpen reports whether the sink currently has a writable file.
func (s *RotatingFileSink) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file != nil
}

// Size returns the byte count written to the live file since it was opened,
// including its size at open time in append mode.
func (s *RotatingFileSink) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentSize
}

// MaxFileSize returns the rotation threshold in bytes.
func (s *RotatingFileSink) MaxFileSize() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxFileSize
}

// SetMaxFileSize sets the rotation threshold in bytes.
func (s *RotatingFileSink) SetMaxFileSize(bytes int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxFileSize = bytes
}

// MaxGenerations returns the number of files kept, live file included.
func (s *RotatingFileSink) MaxGenerations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxGenerations
}

// SetMaxGenerations sets the number of files kept, live file included.
// Values below 1 are treated as 1.
func (s *RotatingFileSink) SetMaxGenerations(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxGenerations = max(n, 1)
}

// Write appends the formatted record and a newline, rotating first if the
// live file has reached the size threshold.
func (s *RotatingFileSink) Write(rec Record) {
	if !s.ShouldWrite(rec) {
		return
	}
	line := Format(rec) + "\n"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return
	}
	if s.currentSize >= s.maxFileSize {
		s.rotate()
		if s.file == nil {
			return
		}
	}

	n, err := s.file.WriteString(line)
	s.currentSize += int64(n)
	if err != nil {
		s.diag.report("log file write failed",
			zap.String("path", s.path), zap.Error(err))
	}
}

// Flush commits written data to stable storage.
func (s *RotatingFileSink) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return
	}
	if err := s.file.Sync(); err != nil {
		s.diag.report("log file sync failed",
			zap.String("path", s.path), zap.Error(err))
	}
}

// Close flushes and closes the file. Later writes are dropped.
func (s *RotatingFileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	s.closed = true
	if s.file == nil {
		return nil
	}
	f := s.file
	s.file = nil
	syncErr := f.Sync()
	return errors.Join(syncErr, f.Close())
}

// Reopen is the recovery path for a sink whose file was lost: it reopens the
// live path in append mode. It is a no-op while the open handle still refers
// to the file at Path(), so it is safe to call on any filesystem event.
func (s *RotatingFileSink) Reopen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	if s.file != nil && s.handleMatchesPath() {
		return nil
	}
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}
	return s.open(true)
}

func (s *RotatingFileSink) handleMatchesPath() bool {
	open, err := s.file.Stat()
	if err != nil {
		return false
	}
	onDisk, err := os.Stat(s.path)
	if err != nil {
		return false
	}
	return os.SameFile(open, onDisk)
}

// open must be called with s.mu held.
func (s *RotatingFileSink) open(appendMode bool) error {
	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(s.path, flags, 0o644)
	if err != nil {
		s.markUnavailable(err)
		return err
	}

	s.currentSize = 0
	if appendMode {
		if info, err := f.Stat(); err == nil {
			s.currentSize = info.Size()
		}
	}
	s.file = f
	s.unavailableReported = false
	return nil
}

func (s *RotatingFileSink) markUnavailable(err error) {
	s.file = nil
	s.metrics.RecordUnavailable(context.Background())
	if s.unavailableReported {
		return
	}
	s.unavailableReported = true
	s.diag.reportError("log file unavailable, sink disabled until reopened",
		zap.String("path", s.path), zap.Error(err))
}

// rotate shifts every generation up by one, moves the live file to .1 and
// starts a fresh live file. A failed step is reported and the remaining
// steps still run. Must be called with s.mu held.
func (s *RotatingFileSink) rotate() {
	ctx := context.Background()
	size := s.currentSize

	if s.file != nil {
		if err := s.file.Close(); err != nil {
			s.diag.report("failed to close log file before rotation",
				zap.String("path", s.path), zap.Error(err))
		}
		s.file = nil
	}

	for i := s.maxGenerations - 1; i >= 1; i-- {
		older := backupPath(s.path, i)
		if !s.exists(older) {
			continue
		}
		if i == s.maxGenerations-1 {
			if err := os.Remove(older); err != nil {
				s.rotationFailed(ctx, "remove", older, "", err)
			}
			continue
		}
		newer := backupPath(s.path, i+1)
		if err := os.Rename(older, newer); err != nil {
			s.rotationFailed(ctx, "rename", older, newer, err)
		}
	}

	// With a single generation there is no .1; reopening truncates the live file.
	if s.maxGenerations > 1 && s.exists(s.path) {
		first := backupPath(s.path, 1)
		if err := os.Rename(s.path, first); err != nil {
			s.rotationFailed(ctx, "rename", s.path, first, err)
		}
	}

	s.currentSize = 0
	if err := s.open(false); err != nil {
		// open has already reported the outage.
		return
	}
	s.metrics.RecordRotation(ctx)
	s.diag.logger.Debug("log file rotated",
		zap.String("path", s.path),
		zap.String("rotated_size", humanize.IBytes(uint64(size))),
		zap.Int("generations", s.maxGenerations),
	)
}

func (s *RotatingFileSink) exists(path string) bool {
	_, err := os.Stat(path)
	if err == nil {
		return true
	}
	if !errors.Is(err, fs.ErrNotExist) {
		s.diag.report("failed to stat log generation",
			zap.String("path", path), zap.Error(err))
	}
	return false
}

func (s *RotatingFileSink) rotationFailed(ctx context.Context, step, from, to string, err error) {
	fields := []zap.Field{zap.String("step", step), zap.String("path", from), zap.Error(err)}
	if to != "" {
		fields = append(fields, zap.String("to", to))
	}
	s.diag.report("log rotation step failed", fields...)
	s.metrics.RecordRotationFailure(ctx, step)
}

// backupPath returns the path of generation n.
func backupPath(path string, n int) string {
	return path + "." + strconv.Itoa(n)
}
