package modifier

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a revert refers to a modification
	// that is not in the queue (never registered, or already reverted
	// and removed).
	ErrNotFound = errors.New("modification not found")

	// ErrAlreadyRegistered is returned when a modification with the
	// same ID is already present in the queue.
	ErrAlreadyRegistered = errors.New("modification already registered")

	// ErrInvalidState is returned when an operation is requested on a
	// modification whose current status does not permit it.
	ErrInvalidState = errors.New("invalid state for operation")

	// ErrFieldNotFound is returned when a modification names a field
	// its target does not have.
	ErrFieldNotFound = errors.New("field not found")

	// ErrNilTarget is returned when a modification is constructed
	// without a target to mutate.
	ErrNilTarget = errors.New("target reference is nil")

	// ErrOutOfBounds is returned when a mutation would leave a field
	// outside its configured bounds.
	ErrOutOfBounds = errors.New("field value out of bounds")
)

// InvalidStateError reports an operation rejected because of the
// modification's current status.
type InvalidStateError struct {
	Op     string
	Status Status
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state for operation: %s not allowed while status is %s", e.Op, e.Status)
}

func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

// BoundsError reports a mutation rejected because it would leave the
// field outside its configured range.
type BoundsError struct {
	Field string
	Value decimal.Decimal
	Min   decimal.Decimal
	Max   decimal.Decimal
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("field value out of bounds: %s would become %s, allowed range [%s, %s]",
		e.Field, e.Value, e.Min, e.Max)
}

func (e *BoundsError) Is(target error) bool {
	return target == ErrOutOfBounds
}
