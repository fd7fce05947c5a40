package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plaenen/modqueue/pkg/audit"
	"github.com/plaenen/modqueue/pkg/sqlite"
)

func newTestStore(t *testing.T) *sqlite.AuditStore {
	t.Helper()
	store, err := sqlite.NewAuditStore(sqlite.WithMemoryDatabase())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAuditStoreAppendAndQuery(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	apply := audit.NewEntry(audit.OpApply, "mod-1", "alice", "agility", "10", "18", "apply_succeeded", nil)
	unapply := audit.NewEntry(audit.OpUnapply, "mod-1", "alice", "agility", "18", "10", "revert_succeeded", nil)
	other := audit.NewEntry(audit.OpApply, "mod-2", "bob", "charisma", "0", "-42", "apply_succeeded", nil)

	require.NoError(t, store.Append(ctx, apply))
	require.NoError(t, store.Append(ctx, unapply))
	require.NoError(t, store.Append(ctx, other))

	t.Run("ByTarget", func(t *testing.T) {
		entries, err := store.ByTarget(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, audit.OpApply, entries[0].Op)
		assert.Equal(t, audit.OpUnapply, entries[1].Op)
		assert.Equal(t, "18", entries[0].NewValue)
		assert.Equal(t, apply.Timestamp.UTC(), entries[0].Timestamp)
	})

	t.Run("ByModification", func(t *testing.T) {
		entries, err := store.ByModification(ctx, "mod-2")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "bob", entries[0].Target)
	})

	t.Run("NoMatches", func(t *testing.T) {
		entries, err := store.ByTarget(ctx, "carol")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestAuditStoreDuplicateID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	entry := audit.NewEntry(audit.OpApply, "mod-1", "alice", "agility", "10", "18", "apply_succeeded", nil)
	require.NoError(t, store.Append(ctx, entry))
	assert.Error(t, store.Append(ctx, entry), "entry IDs are the primary key")
}

func TestAuditStoreRecordsFailures(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	failed := audit.NewEntry(audit.OpUnapply, "mod-1", "alice", "power", "1", "1",
		"revert_failed", errors.New("field value out of bounds"))
	require.NoError(t, store.Record(ctx, failed))

	entries, err := store.ByModification(ctx, "mod-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Failed())
	assert.Equal(t, "field value out of bounds", entries[0].Error)
}
