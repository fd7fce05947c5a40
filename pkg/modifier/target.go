package modifier

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/plaenen/modqueue/pkg/validators"
)

// Target is a mutable entity with independently addressable numeric
// fields. It is a pure data holder: it has no awareness of the
// modifications applied to it, and the engine mutates it only through
// Modification.Apply and Modification.Unapply.
//
// A Target is not safe for concurrent mutation. Serialize access to a
// target's fields, e.g. by routing all mutation through one Manager.
type Target struct {
	name   string
	fields map[string]decimal.Decimal
	bounds map[string]fieldBounds
}

type fieldBounds struct {
	min decimal.Decimal
	max decimal.Decimal
}

// TargetOption configures a Target.
type TargetOption func(*Target) error

// WithBounds constrains a field to the closed range [min, max]. Any
// mutation that would leave the field outside the range fails and
// leaves the field unchanged.
func WithBounds(field string, min, max decimal.Decimal) TargetOption {
	return func(t *Target) error {
		if _, ok := t.fields[field]; !ok {
			return fmt.Errorf("bounds for %q: %w", field, ErrFieldNotFound)
		}
		if min.GreaterThan(max) {
			return fmt.Errorf("bounds for %q: min %s greater than max %s", field, min, max)
		}
		t.bounds[field] = fieldBounds{min: min, max: max}
		return nil
	}
}

// NewTarget creates a target with the given initial field values.
// Field values are always defined once the target is constructed;
// fields can be neither added nor removed afterwards. Initial values
// must satisfy any bounds configured for them.
func NewTarget(name string, fields map[string]decimal.Decimal, opts ...TargetOption) (*Target, error) {
	if err := validators.TargetName(name); err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}

	t := &Target{
		name:   name,
		fields: make(map[string]decimal.Decimal, len(fields)),
		bounds: make(map[string]fieldBounds),
	}
	for field, value := range fields {
		if err := validators.FieldName(field); err != nil {
			return nil, fmt.Errorf("target %q: %w", name, err)
		}
		t.fields[field] = value
	}

	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, fmt.Errorf("target %q: %w", name, err)
		}
	}

	for field, b := range t.bounds {
		v := t.fields[field]
		if v.LessThan(b.min) || v.GreaterThan(b.max) {
			return nil, fmt.Errorf("target %q: initial value %s for %q outside [%s, %s]",
				name, v, field, b.min, b.max)
		}
	}

	return t, nil
}

// Name returns the identifying name of the target.
func (t *Target) Name() string {
	return t.name
}

// Field returns the current value of the named field.
func (t *Target) Field(name string) (decimal.Decimal, error) {
	v, ok := t.fields[name]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("target %q has no field %q: %w", t.name, name, ErrFieldNotFound)
	}
	return v, nil
}

// FieldNames returns the target's field names in sorted order.
func (t *Target) FieldNames() []string {
	names := make([]string, 0, len(t.fields))
	for name := range t.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of the target's current field values.
func (t *Target) Snapshot() map[string]decimal.Decimal {
	snapshot := make(map[string]decimal.Decimal, len(t.fields))
	for name, value := range t.fields {
		snapshot[name] = value
	}
	return snapshot
}

// adjust adds delta to the named field. The update is all or nothing:
// on any error the field keeps its previous value. Returns the field
// value before and after the mutation.
func (t *Target) adjust(field string, delta decimal.Decimal) (before, after decimal.Decimal, err error) {
	current, ok := t.fields[field]
	if !ok {
		return decimal.Decimal{}, decimal.Decimal{},
			fmt.Errorf("target %q has no field %q: %w", t.name, field, ErrFieldNotFound)
	}

	next := current.Add(delta)
	if b, bounded := t.bounds[field]; bounded {
		if next.LessThan(b.min) || next.GreaterThan(b.max) {
			return current, current, &BoundsError{Field: field, Value: next, Min: b.min, Max: b.max}
		}
	}

	t.fields[field] = next
	return current, next, nil
}
