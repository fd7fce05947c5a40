package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/plaenen/modqueue/pkg/modifier"
	"github.com/plaenen/modqueue/pkg/observability"
)

// Compile-time check that the instruments satisfy the engine's hook.
var _ modifier.MetricsRecorder = (*observability.Metrics)(nil)

func TestMetricsRecording(t *testing.T) {
	ctx := context.Background()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { provider.Shutdown(ctx) })

	metrics, err := observability.NewMetrics(provider.Meter("modqueue"))
	require.NoError(t, err)

	metrics.RecordAttempt(ctx, "apply", "apply_succeeded")
	metrics.RecordAttempt(ctx, "unapply", "revert_failed")
	metrics.RecordSweep(ctx, 5*time.Millisecond, 1, 0, 0, 1)
	metrics.RecordQueueDepth(ctx, 2)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.NotEmpty(t, rm.ScopeMetrics)

	found := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			found[m.Name] = true
		}
	}
	assert.True(t, found["modqueue.attempt.total"])
	assert.True(t, found["modqueue.attempt.errors"])
	assert.True(t, found["modqueue.sweep.duration"])
	assert.True(t, found["modqueue.queue.depth"])
}

func TestTelemetryInitDisabled(t *testing.T) {
	ctx := context.Background()

	tel, err := observability.Init(ctx, observability.Config{
		ServiceName:    "modqueue-test",
		ServiceVersion: "0.0.1",
		Environment:    "dev",
	})
	require.NoError(t, err)
	t.Cleanup(func() { tel.Shutdown(ctx) })

	// With no exporter or reader configured the providers are no-ops
	// but still usable.
	assert.NotNil(t, tel.Tracer("modqueue"))
	assert.NotNil(t, tel.Meter("modqueue"))
}
