package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all metric instruments for the modification engine.
// It implements modifier.MetricsRecorder.
type Metrics struct {
	// Attempt metrics
	AttemptTotal  metric.Int64Counter
	AttemptErrors metric.Int64Counter

	// Sweep metrics
	SweepDuration metric.Float64Histogram
	SweepApplied  metric.Int64Counter
	SweepReverted metric.Int64Counter

	// Queue metrics
	QueueDepth metric.Int64Gauge
}

// NewMetrics creates all metric instruments
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.AttemptTotal, err = meter.Int64Counter(
		"modqueue.attempt.total",
		metric.WithDescription("Total apply and unapply attempts"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating attempt.total: %w", err)
	}

	m.AttemptErrors, err = meter.Int64Counter(
		"modqueue.attempt.errors",
		metric.WithDescription("Total failed apply and unapply attempts"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating attempt.errors: %w", err)
	}

	m.SweepDuration, err = meter.Float64Histogram(
		"modqueue.sweep.duration",
		metric.WithDescription("Queue sweep duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sweep.duration: %w", err)
	}

	m.SweepApplied, err = meter.Int64Counter(
		"modqueue.sweep.applied",
		metric.WithDescription("Modifications applied during sweeps"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sweep.applied: %w", err)
	}

	m.SweepReverted, err = meter.Int64Counter(
		"modqueue.sweep.reverted",
		metric.WithDescription("Modifications reverted during sweeps"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sweep.reverted: %w", err)
	}

	m.QueueDepth, err = meter.Int64Gauge(
		"modqueue.queue.depth",
		metric.WithDescription("Modifications currently registered with the queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue.depth: %w", err)
	}

	return m, nil
}

// RecordAttempt records one apply or unapply attempt with its outcome.
func (m *Metrics) RecordAttempt(ctx context.Context, op string, status string) {
	attrs := []attribute.KeyValue{
		attribute.String("op", op),
		attribute.String("status", status),
	}

	m.AttemptTotal.Add(ctx, 1, metric.WithAttributes(attrs...))

	switch status {
	case "apply_failed", "revert_failed":
		m.AttemptErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordSweep records the outcome of one full queue sweep.
func (m *Metrics) RecordSweep(ctx context.Context, duration time.Duration, applied, applyFailed, reverted, revertFailed int) {
	m.SweepDuration.Record(ctx, duration.Seconds())

	m.SweepApplied.Add(ctx, int64(applied),
		metric.WithAttributes(attribute.Bool("success", true)))
	m.SweepApplied.Add(ctx, int64(applyFailed),
		metric.WithAttributes(attribute.Bool("success", false)))
	m.SweepReverted.Add(ctx, int64(reverted),
		metric.WithAttributes(attribute.Bool("success", true)))
	m.SweepReverted.Add(ctx, int64(revertFailed),
		metric.WithAttributes(attribute.Bool("success", false)))
}

// RecordQueueDepth records the number of registered modifications.
func (m *Metrics) RecordQueueDepth(ctx context.Context, depth int) {
	m.QueueDepth.Record(ctx, int64(depth))
}
