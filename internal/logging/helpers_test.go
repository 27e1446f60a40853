package logging

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// fixedTime is 14:03:07.042 local time.
var fixedTime = time.Date(2024, time.March, 9, 14, 3, 7, 42*int(time.Millisecond), time.Local)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return NewMetricsWithMeter(mp.Meter(instrumentationName), nil), reader
}

// counterValue sums the data points of the named counter whose attributes
// include every attr given.
func counterValue(t *testing.T, reader *sdkmetric.ManualReader, name string, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				if hasAttrs(dp.Attributes, attrs) {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func hasAttrs(set attribute.Set, attrs []attribute.KeyValue) bool {
	for _, kv := range attrs {
		v, ok := set.Value(kv.Key)
		if !ok || v.Emit() != kv.Value.Emit() {
			return false
		}
	}
	return true
}

// recordOfSize returns a record whose formatted line, newline included, is
// exactly n bytes.
func recordOfSize(t *testing.T, n int, tag string) Record {
	t.Helper()
	rec := Record{Level: LevelInfo, Message: tag, Time: fixedTime}
	pad := n - 1 - len(Format(rec))
	require.GreaterOrEqual(t, pad, 0, "line size %d too small for tag %q", n, tag)
	rec.Message = tag + strings.Repeat(".", pad)
	require.Len(t, Format(rec)+"\n", n)
	return rec
}

// panicSink panics on every call.
type panicSink struct {
	SinkBase
}

func (*panicSink) Name() string { return "panicky" }

func (*panicSink) Write(Record) { panic("write exploded") }

func (*panicSink) Flush() { panic("flush exploded") }

// waitClosed fails the test if ch is not closed within two seconds.
func waitClosed(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for %s", what)
	}
}
