package logging

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/logrouter/internal/logging"

// Metrics holds the logging system's own instruments. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	meter            metric.Meter
	logger           *zap.Logger
	accepted         metric.Int64Counter
	sinkPanics       metric.Int64Counter
	rotations        metric.Int64Counter
	rotationFailures metric.Int64Counter
	unavailable      metric.Int64Counter

	levelAttrs [levelCount]metric.AddOption
}

// NewMetrics creates Metrics on the global meter provider.
func NewMetrics(logger *zap.Logger) *Metrics {
	return NewMetricsWithMeter(otel.Meter(instrumentationName), logger)
}

// NewMetricsWithMeter creates Metrics on the given meter.
func NewMetricsWithMeter(meter metric.Meter, logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Metrics{
		meter:  meter,
		logger: logger,
	}
	m.init()
	return m
}

func (m *Metrics) init() {
	var err error

	m.accepted, err = m.meter.Int64Counter(
		"logrouter.records.accepted_total",
		metric.WithDescription("Records that passed the router threshold and were fanned out, labeled by level."),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		m.logger.Warn("failed to create accepted counter", zap.Error(err))
	}

	m.sinkPanics, err = m.meter.Int64Counter(
		"logrouter.sink.panics_total",
		metric.WithDescription("Panics recovered while writing to or flushing a sink, labeled by sink type."),
		metric.WithUnit("{panic}"),
	)
	if err != nil {
		m.logger.Warn("failed to create sink panic counter", zap.Error(err))
	}

	m.rotations, err = m.meter.Int64Counter(
		"logrouter.file.rotations_total",
		metric.WithDescription("Completed log file rotations."),
		metric.WithUnit("{rotation}"),
	)
	if err != nil {
		m.logger.Warn("failed to create rotation counter", zap.Error(err))
	}

	m.rotationFailures, err = m.meter.Int64Counter(
		"logrouter.file.rotation_failures_total",
		metric.WithDescription("Rename or remove steps that failed during rotation, labeled by step."),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		m.logger.Warn("failed to create rotation failure counter", zap.Error(err))
	}

	m.unavailable, err = m.meter.Int64Counter(
		"logrouter.file.unavailable_total",
		metric.WithDescription("Times a log file could not be opened or reopened."),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		m.logger.Warn("failed to create unavailable counter", zap.Error(err))
	}

	for l := LevelTrace; l <= LevelFatal; l++ {
		m.levelAttrs[l] = metric.WithAttributeSet(attribute.NewSet(attribute.String("level", l.String())))
	}
}

// RecordAccepted counts one record fanned out at level.
func (m *Metrics) RecordAccepted(ctx context.Context, level Level) {
	if m == nil || m.accepted == nil || !level.Valid() {
		return
	}
	m.accepted.Add(ctx, 1, m.levelAttrs[level])
}

// RecordSinkPanic counts a panic recovered from a sink.
func (m *Metrics) RecordSinkPanic(ctx context.Context, sink string) {
	if m == nil || m.sinkPanics == nil {
		return
	}
	m.sinkPanics.Add(ctx, 1, metric.WithAttributes(attribute.String("sink", sink)))
}

// RecordRotation counts a completed rotation.
func (m *Metrics) RecordRotation(ctx context.Context) {
	if m == nil || m.rotations == nil {
		return
	}
	m.rotations.Add(ctx, 1)
}

// RecordRotationFailure counts a failed rotation step ("rename" or "remove").
func (m *Metrics) RecordRotationFailure(ctx context.Context, step string) {
	if m == nil || m.rotationFailures == nil {
		return
	}
	m.rotationFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("step", step)))
}

// RecordUnavailable counts a failure to open the destination file.
func (m *Metrics) RecordUnavailable(ctx context.Context) {
	if m == nil || m.unavailable == nil {
		return
	}
	m.unavailable.Add(ctx, 1)
}
