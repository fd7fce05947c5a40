// Package validators contains the input validation helpers shared by
// the engine's constructors.
package validators

import (
	"errors"
	"fmt"

	"github.com/asaskevich/govalidator"
)

// ErrInvalidName is returned when a target or field name fails validation.
var ErrInvalidName = errors.New("invalid name")

const maxNameLength = 64

// namePattern matches snake_case identifiers: a lowercase letter
// followed by lowercase letters, digits, or underscores.
const namePattern = `^[a-z][a-z0-9_]*$`

// TargetName validates the identifying name of a target.
func TargetName(name string) error {
	return identifier("target name", name)
}

// FieldName validates the name of a target field.
func FieldName(name string) error {
	return identifier("field name", name)
}

func identifier(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%w: %s must not be empty", ErrInvalidName, kind)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: %s %q exceeds %d characters", ErrInvalidName, kind, name, maxNameLength)
	}
	if !govalidator.Matches(name, namePattern) {
		return fmt.Errorf("%w: %s %q must be a snake_case identifier", ErrInvalidName, kind, name)
	}
	return nil
}
