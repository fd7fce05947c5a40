package modifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/plaenen/modqueue/pkg/audit"
)

// MetricsRecorder receives engine metrics. pkg/observability provides
// an OpenTelemetry-backed implementation; the default is a no-op.
type MetricsRecorder interface {
	// RecordAttempt records one apply or unapply attempt and the
	// status it produced.
	RecordAttempt(ctx context.Context, op string, status string)

	// RecordSweep records one ProcessAll pass.
	RecordSweep(ctx context.Context, duration time.Duration, applied, applyFailed, reverted, revertFailed int)

	// RecordQueueDepth records the number of modifications in the queue.
	RecordQueueDepth(ctx context.Context, depth int)
}

type nopMetrics struct{}

func (nopMetrics) RecordAttempt(context.Context, string, string)                   {}
func (nopMetrics) RecordSweep(context.Context, time.Duration, int, int, int, int) {}
func (nopMetrics) RecordQueueDepth(context.Context, int)                          {}

// Report summarizes one ProcessAll pass.
type Report struct {
	// Applied counts modifications whose apply attempt succeeded.
	Applied int

	// ApplyFailed counts modifications whose apply attempt failed.
	ApplyFailed int

	// Reverted counts previously failed reverts that succeeded this pass.
	Reverted int

	// RevertFailed counts revert retries that failed again.
	RevertFailed int
}

// Attempts returns the total number of apply and unapply attempts made
// during the pass.
func (r Report) Attempts() int {
	return r.Applied + r.ApplyFailed + r.Reverted + r.RevertFailed
}

// Manager owns the queue of modifications and routes all queue
// mutation through its public operations. Insertion order is preserved
// for iteration and display only; it carries no correctness semantics.
// The final state of the targets is identical regardless of
// registration order, sweep order, and the order individual reverts
// are issued, as long as each modification's own apply precedes its
// own revert.
//
// A single lock serializes all operations, so modifications touching
// the same target field never interleave.
type Manager struct {
	mu      sync.Mutex
	order   []uuid.UUID
	entries map[uuid.UUID]*Modification
	logger  *slog.Logger
	metrics MetricsRecorder
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger for queue-level events.
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(q *Manager) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(metrics MetricsRecorder) ManagerOption {
	return func(q *Manager) {
		if metrics != nil {
			q.metrics = metrics
		}
	}
}

// NewManager creates an empty queue.
func NewManager(opts ...ManagerOption) *Manager {
	q := &Manager{
		entries: make(map[uuid.UUID]*Modification),
		logger:  slog.Default(),
		metrics: nopMetrics{},
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Register adds a modification to the queue. A modification ID may be
// registered at most once. Registration has no effect on the target.
func (q *Manager) Register(m *Modification) error {
	if m == nil {
		return errors.New("register: nil modification")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.entries[m.id]; exists {
		return fmt.Errorf("modification %s: %w", m.id, ErrAlreadyRegistered)
	}
	q.entries[m.id] = m
	q.order = append(q.order, m.id)

	q.logger.Info("modification registered",
		"modification_id", m.id.String(),
		"target", m.target.Name(),
		"field", m.field,
		"delta", m.delta.String(),
	)
	q.metrics.RecordQueueDepth(context.Background(), len(q.entries))
	return nil
}

// Len returns the number of modifications currently in the queue.
func (q *Manager) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Modifications returns the queued modifications in insertion order.
func (q *Manager) Modifications() []*Modification {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]*Modification, 0, len(q.order))
	for _, id := range q.order {
		out = append(out, q.entries[id])
	}
	return out
}

// HasPending reports whether any modification still has work
// outstanding and another ProcessAll pass is warranted.
func (q *Manager) HasPending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, m := range q.entries {
		if m.status.Pending() {
			return true
		}
	}
	return false
}

// ProcessAll sweeps the queue twice. The first sweep attempts Apply on
// every modification that is queued or whose last apply failed; the
// second sweep gives every modification whose last revert failed
// another Unapply attempt. The pass is best effort: each eligible
// modification is attempted exactly once, a failing modification never
// aborts the rest, and each outcome is recorded on the modification
// itself. Modifications whose retried revert succeeds are removed from
// the queue. Modifications already settled are left untouched, so
// repeated passes over a settled queue mutate nothing.
func (q *Manager) ProcessAll(ctx context.Context) Report {
	q.mu.Lock()
	defer q.mu.Unlock()

	start := time.Now()
	var report Report

	for _, id := range q.order {
		m := q.entries[id]
		if !m.status.applyAllowed() {
			continue
		}
		if err := m.Apply(ctx); err != nil {
			report.ApplyFailed++
		} else {
			report.Applied++
		}
		q.metrics.RecordAttempt(ctx, string(audit.OpApply), m.status.String())
	}

	var completed []uuid.UUID
	for _, id := range q.order {
		m := q.entries[id]
		if m.status != StatusRevertFailed {
			continue
		}
		if err := m.Unapply(ctx); err != nil {
			report.RevertFailed++
		} else {
			report.Reverted++
			completed = append(completed, id)
		}
		q.metrics.RecordAttempt(ctx, string(audit.OpUnapply), m.status.String())
	}
	for _, id := range completed {
		q.removeLocked(id)
	}

	q.metrics.RecordSweep(ctx, time.Since(start),
		report.Applied, report.ApplyFailed, report.Reverted, report.RevertFailed)
	q.metrics.RecordQueueDepth(ctx, len(q.entries))

	if report.Attempts() > 0 {
		q.logger.InfoContext(ctx, "queue processed",
			"applied", report.Applied,
			"apply_failed", report.ApplyFailed,
			"reverted", report.Reverted,
			"revert_failed", report.RevertFailed,
			"remaining", len(q.entries),
		)
	}
	return report
}

// Revert unapplies the given modification and, on success, removes it
// from the queue. The argument must be the registered instance; a
// modification that is not in the queue yields ErrNotFound. The
// modification must be in StatusApplySucceeded, or in
// StatusRevertFailed for a direct retry of an earlier failed revert;
// any other status yields an InvalidStateError and the target is not
// touched. A failed revert leaves the modification in the queue so it
// can be retried here or by ProcessAll.
func (q *Manager) Revert(ctx context.Context, m *Modification) error {
	if m == nil {
		return fmt.Errorf("revert: %w", ErrNotFound)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	registered, ok := q.entries[m.id]
	if !ok || registered != m {
		return fmt.Errorf("modification %s: %w", m.id, ErrNotFound)
	}
	return q.revertLocked(ctx, registered)
}

// RevertByID is Revert keyed by modification identifier.
func (q *Manager) RevertByID(ctx context.Context, id uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	m, ok := q.entries[id]
	if !ok {
		return fmt.Errorf("modification %s: %w", id, ErrNotFound)
	}
	return q.revertLocked(ctx, m)
}

func (q *Manager) revertLocked(ctx context.Context, m *Modification) error {
	if !m.status.unapplyAllowed() {
		return &InvalidStateError{Op: "revert", Status: m.status}
	}

	err := m.Unapply(ctx)
	q.metrics.RecordAttempt(ctx, string(audit.OpUnapply), m.status.String())
	if err != nil {
		return err
	}

	q.removeLocked(m.id)
	q.metrics.RecordQueueDepth(ctx, len(q.entries))
	q.logger.InfoContext(ctx, "modification reverted and removed",
		"modification_id", m.id.String(),
		"target", m.target.Name(),
		"field", m.field,
	)
	return nil
}

func (q *Manager) removeLocked(id uuid.UUID) {
	delete(q.entries, id)
	for i, queued := range q.order {
		if queued == id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
}
