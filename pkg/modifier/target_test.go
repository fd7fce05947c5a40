package modifier_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plaenen/modqueue/pkg/modifier"
	"github.com/plaenen/modqueue/pkg/validators"
)

func TestNewTarget(t *testing.T) {
	t.Run("ValidNames", func(t *testing.T) {
		target, err := modifier.NewTarget("alice", map[string]decimal.Decimal{
			"agility":  decimal.NewFromInt(10),
			"strength": decimal.NewFromInt(7),
		})
		require.NoError(t, err)

		assert.Equal(t, "alice", target.Name())
		assert.Equal(t, []string{"agility", "strength"}, target.FieldNames())
	})

	t.Run("InvalidTargetName", func(t *testing.T) {
		for _, name := range []string{"", "Alice", "9lives", "has space"} {
			_, err := modifier.NewTarget(name, nil)
			assert.ErrorIs(t, err, validators.ErrInvalidName, "name %q", name)
		}
	})

	t.Run("InvalidFieldName", func(t *testing.T) {
		_, err := modifier.NewTarget("alice", map[string]decimal.Decimal{
			"Agility": decimal.NewFromInt(10),
		})
		assert.ErrorIs(t, err, validators.ErrInvalidName)
	})

	t.Run("BoundsForUnknownField", func(t *testing.T) {
		_, err := modifier.NewTarget("alice",
			map[string]decimal.Decimal{"agility": decimal.NewFromInt(10)},
			modifier.WithBounds("charisma", decimal.Zero, decimal.NewFromInt(20)),
		)
		assert.ErrorIs(t, err, modifier.ErrFieldNotFound)
	})

	t.Run("BoundsMinAboveMax", func(t *testing.T) {
		_, err := modifier.NewTarget("alice",
			map[string]decimal.Decimal{"agility": decimal.NewFromInt(10)},
			modifier.WithBounds("agility", decimal.NewFromInt(20), decimal.Zero),
		)
		assert.Error(t, err)
	})

	t.Run("InitialValueOutsideBounds", func(t *testing.T) {
		_, err := modifier.NewTarget("alice",
			map[string]decimal.Decimal{"agility": decimal.NewFromInt(30)},
			modifier.WithBounds("agility", decimal.Zero, decimal.NewFromInt(20)),
		)
		assert.Error(t, err)
	})
}

func TestTargetField(t *testing.T) {
	target, err := modifier.NewTarget("alice", map[string]decimal.Decimal{
		"agility": decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	v, err := target.Field("agility")
	require.NoError(t, err)
	assert.True(t, v.Equal(decimal.NewFromInt(10)), "agility = %s", v)

	_, err = target.Field("charisma")
	assert.ErrorIs(t, err, modifier.ErrFieldNotFound)
}

func TestTargetSnapshot(t *testing.T) {
	target, err := modifier.NewTarget("alice", map[string]decimal.Decimal{
		"agility":  decimal.NewFromInt(10),
		"strength": decimal.NewFromInt(7),
	})
	require.NoError(t, err)

	snapshot := target.Snapshot()
	require.Len(t, snapshot, 2)
	assert.True(t, snapshot["agility"].Equal(decimal.NewFromInt(10)))

	// Mutating the snapshot must not touch the target.
	snapshot["agility"] = decimal.NewFromInt(99)
	v, err := target.Field("agility")
	require.NoError(t, err)
	assert.True(t, v.Equal(decimal.NewFromInt(10)))
}
