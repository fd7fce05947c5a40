package modifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/plaenen/modqueue/pkg/audit"
	"github.com/plaenen/modqueue/pkg/validators"
)

// Modification is a single reversible change: a signed delta bound to
// one field of one target. The delta is immutable after construction;
// the status is the only mutable state and records the outcome of the
// most recent apply or unapply attempt.
type Modification struct {
	id       uuid.UUID
	target   *Target
	field    string
	delta    decimal.Decimal
	status   Status
	logger   *slog.Logger
	recorder audit.Recorder
}

// ModificationOption configures a Modification.
type ModificationOption func(*Modification)

// WithLogger sets the logger used for apply and unapply attempts.
func WithLogger(logger *slog.Logger) ModificationOption {
	return func(m *Modification) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithRecorder sets the audit recorder that receives an entry for
// every apply and unapply attempt.
func WithRecorder(recorder audit.Recorder) ModificationOption {
	return func(m *Modification) {
		if recorder != nil {
			m.recorder = recorder
		}
	}
}

// NewModification creates a queued modification of the named field.
// The modification gets a random 128-bit identifier at construction.
func NewModification(target *Target, field string, delta decimal.Decimal, opts ...ModificationOption) (*Modification, error) {
	if target == nil {
		return nil, ErrNilTarget
	}
	if err := validators.FieldName(field); err != nil {
		return nil, err
	}

	m := &Modification{
		id:       uuid.New(),
		target:   target,
		field:    field,
		delta:    delta,
		status:   StatusQueued,
		logger:   slog.Default(),
		recorder: audit.NopRecorder{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// ID returns the modification's unique identifier.
func (m *Modification) ID() uuid.UUID {
	return m.id
}

// Target returns the target this modification is bound to.
func (m *Modification) Target() *Target {
	return m.target
}

// Field returns the name of the field this modification changes.
func (m *Modification) Field() string {
	return m.field
}

// Delta returns the signed change this modification applies.
func (m *Modification) Delta() decimal.Decimal {
	return m.delta
}

// Status returns the outcome of the most recent transition.
func (m *Modification) Status() Status {
	return m.status
}

// Apply adds the delta to the bound field. Valid only while the status
// is StatusQueued or StatusApplyFailed; any other status is rejected
// with an InvalidStateError rather than a silent no-op, so double
// application cannot pass unnoticed. On failure the field is left
// untouched, the status becomes StatusApplyFailed, and the attempt may
// be retried.
func (m *Modification) Apply(ctx context.Context) error {
	if !m.status.applyAllowed() {
		return &InvalidStateError{Op: string(audit.OpApply), Status: m.status}
	}
	return m.mutate(ctx, audit.OpApply, m.delta, StatusApplySucceeded, StatusApplyFailed)
}

// Unapply subtracts the delta from the bound field. Valid only after a
// successful apply (StatusApplySucceeded) or a previously failed
// revert attempt (StatusRevertFailed). On failure the field keeps the
// applied delta, the status becomes StatusRevertFailed, and the
// attempt may be retried.
func (m *Modification) Unapply(ctx context.Context) error {
	if !m.status.unapplyAllowed() {
		return &InvalidStateError{Op: string(audit.OpUnapply), Status: m.status}
	}
	return m.mutate(ctx, audit.OpUnapply, m.delta.Neg(), StatusRevertSucceeded, StatusRevertFailed)
}

func (m *Modification) mutate(ctx context.Context, op audit.Op, delta decimal.Decimal, onSuccess, onFailure Status) error {
	before, after, err := m.target.adjust(m.field, delta)
	if err != nil {
		m.status = onFailure
	} else {
		m.status = onSuccess
	}

	m.observe(ctx, op, before, after, err)

	if err != nil {
		return fmt.Errorf("%s modification %s: %w", op, m.id, err)
	}
	return nil
}

func (m *Modification) observe(ctx context.Context, op audit.Op, before, after decimal.Decimal, attemptErr error) {
	entry := audit.NewEntry(op, m.id.String(), m.target.Name(), m.field,
		before.String(), after.String(), m.status.String(), attemptErr)
	if err := m.recorder.Record(ctx, entry); err != nil {
		m.logger.WarnContext(ctx, "audit recorder failed",
			slog.String("modification_id", m.id.String()),
			slog.String("error", err.Error()))
	}

	level := slog.LevelInfo
	msg := "modification " + string(op) + " succeeded"
	if attemptErr != nil {
		level = slog.LevelWarn
		msg = "modification " + string(op) + " failed"
	}
	m.logger.LogAttrs(ctx, level, msg,
		slog.String("modification_id", m.id.String()),
		slog.String("target", m.target.Name()),
		slog.String("field", m.field),
		slog.String("old_value", before.String()),
		slog.String("new_value", after.String()),
		slog.String("status", m.status.String()),
	)
}
