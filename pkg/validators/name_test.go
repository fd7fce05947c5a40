package validators_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plaenen/modqueue/pkg/validators"
)

func TestTargetName(t *testing.T) {
	valid := []string{"alice", "bob_2", "a", "hero_of_the_north"}
	for _, name := range valid {
		assert.NoError(t, validators.TargetName(name), name)
	}

	invalid := []string{
		"",
		"Alice",
		"9lives",
		"has space",
		"_leading",
		"trailing-",
		strings.Repeat("a", 65),
	}
	for _, name := range invalid {
		assert.ErrorIs(t, validators.TargetName(name), validators.ErrInvalidName, name)
	}
}

func TestFieldName(t *testing.T) {
	assert.NoError(t, validators.FieldName("agility"))

	err := validators.FieldName("Agility")
	assert.ErrorIs(t, err, validators.ErrInvalidName)
	assert.Contains(t, err.Error(), "field name")
}
