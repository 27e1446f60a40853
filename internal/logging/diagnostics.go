package logging

import (
	"errors"
	"os"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
)

// Diagnostic reports are capped so a failing disk cannot flood stderr.
const (
	diagnosticRate  = rate.Limit(5)
	diagnosticBurst = 20
)

// diagnostics is the fallback channel for failures inside the logging
// system itself. It never reports back into a Router.
type diagnostics struct {
	logger  *zap.Logger
	limiter *rate.Limiter
}

var defaultDiagnosticLogger = NewDiagnosticLogger()

// NewDiagnosticLogger returns the zap logger used for fallback diagnostics
// when no other is supplied: console encoding on stderr, named "logrouter".
func NewDiagnosticLogger() *zap.Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(os.Stderr),
		zapcore.InfoLevel,
	)
	return zap.New(core).Named("logrouter")
}

func newDiagnostics(logger *zap.Logger) *diagnostics {
	if logger == nil {
		logger = defaultDiagnosticLogger
	}
	return &diagnostics{
		logger:  logger,
		limiter: rate.NewLimiter(diagnosticRate, diagnosticBurst),
	}
}

// report emits a warning, subject to the rate limit.
func (d *diagnostics) report(msg string, fields ...zap.Field) {
	if d == nil || !d.limiter.Allow() {
		return
	}
	d.logger.Warn(msg, fields...)
}

// reportError emits an error regardless of the rate limit. Callers use it
// for one-shot events such as a destination becoming unavailable.
func (d *diagnostics) reportError(msg string, fields ...zap.Field) {
	if d == nil {
		return
	}
	d.logger.Error(msg, fields...)
}

// isStdoutSyncError checks if error is harmless stdout/stderr sync error.
// On Linux, syncing stdout/stderr returns EINVAL or ENOTTY which are safe to ignore.
func isStdoutSyncError(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EINVAL || errno == syscall.ENOTTY
	}
	return false
}
