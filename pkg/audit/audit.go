// Package audit defines the audit trail emitted by the modification
// engine. Every apply and unapply attempt produces one Entry; recorders
// deliver entries to logs, message buses, or durable stores so callers
// get an external audit trail without the engine persisting history.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/plaenen/modqueue/pkg/idgen"
)

// Op identifies the direction of a field mutation.
type Op string

const (
	// OpApply adds a modification's delta to its field.
	OpApply Op = "apply"

	// OpUnapply subtracts a previously applied delta from its field.
	OpUnapply Op = "unapply"
)

// Entry is a single audit record for one apply or unapply attempt.
// Field values are carried as decimal strings so entries serialize
// without loss of precision.
type Entry struct {
	// ID is a sortable ULID assigned when the entry is created.
	ID string `json:"id"`

	// ModificationID is the ID of the modification that was attempted.
	ModificationID string `json:"modification_id"`

	// Op is the attempted operation.
	Op Op `json:"op"`

	// Target is the identifying name of the mutated target.
	Target string `json:"target"`

	// Field is the name of the mutated field.
	Field string `json:"field"`

	// OldValue is the field value before the attempt.
	OldValue string `json:"old_value"`

	// NewValue is the field value after the attempt. Equal to OldValue
	// when the attempt failed.
	NewValue string `json:"new_value"`

	// Status is the modification status produced by the attempt.
	Status string `json:"status"`

	// Error holds the failure message when the attempt failed.
	Error string `json:"error,omitempty"`

	// Timestamp is when the attempt was recorded, in UTC.
	Timestamp time.Time `json:"timestamp"`
}

// NewEntry builds an Entry with a fresh sortable ID and timestamp.
func NewEntry(op Op, modificationID, target, field, oldValue, newValue, status string, attemptErr error) Entry {
	e := Entry{
		ID:             idgen.SortableID(),
		ModificationID: modificationID,
		Op:             op,
		Target:         target,
		Field:          field,
		OldValue:       oldValue,
		NewValue:       newValue,
		Status:         status,
		Timestamp:      time.Now().UTC(),
	}
	if attemptErr != nil {
		e.Error = attemptErr.Error()
	}
	return e
}

// Failed reports whether the recorded attempt ended in failure.
func (e Entry) Failed() bool {
	return e.Error != ""
}

// Recorder receives audit entries.
type Recorder interface {
	// Record delivers one entry. Implementations should be fast;
	// the engine calls Record synchronously on every attempt.
	Record(ctx context.Context, entry Entry) error
}

// RecorderFunc is a function adapter for Recorder.
type RecorderFunc func(ctx context.Context, entry Entry) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, entry Entry) error {
	return f(ctx, entry)
}

// NopRecorder discards all entries.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(context.Context, Entry) error { return nil }

// MultiRecorder fans every entry out to all wrapped recorders. Each
// recorder is attempted even when an earlier one fails; failures are
// joined into the returned error.
type MultiRecorder struct {
	recorders []Recorder
}

// NewMultiRecorder creates a recorder that delivers to every given
// recorder in order.
func NewMultiRecorder(recorders ...Recorder) *MultiRecorder {
	return &MultiRecorder{recorders: recorders}
}

// Record implements Recorder.
func (m *MultiRecorder) Record(ctx context.Context, entry Entry) error {
	var errs []error
	for _, r := range m.recorders {
		if err := r.Record(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
