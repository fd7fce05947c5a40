package audit_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plaenen/modqueue/pkg/audit"
)

func TestNewEntry(t *testing.T) {
	entry := audit.NewEntry(audit.OpApply, "mod-1", "alice", "agility", "10", "18", "apply_succeeded", nil)

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, audit.OpApply, entry.Op)
	assert.Equal(t, "mod-1", entry.ModificationID)
	assert.Equal(t, "alice", entry.Target)
	assert.Equal(t, "agility", entry.Field)
	assert.Equal(t, "10", entry.OldValue)
	assert.Equal(t, "18", entry.NewValue)
	assert.False(t, entry.Failed())
	assert.False(t, entry.Timestamp.IsZero())

	t.Run("FailedAttempt", func(t *testing.T) {
		failed := audit.NewEntry(audit.OpUnapply, "mod-2", "bob", "charisma", "0", "0",
			"revert_failed", errors.New("field value out of bounds"))
		assert.True(t, failed.Failed())
		assert.Equal(t, "field value out of bounds", failed.Error)
	})

	t.Run("SortableIDs", func(t *testing.T) {
		a := audit.NewEntry(audit.OpApply, "m", "t", "f", "0", "1", "apply_succeeded", nil)
		b := audit.NewEntry(audit.OpApply, "m", "t", "f", "1", "2", "apply_succeeded", nil)
		assert.NotEqual(t, a.ID, b.ID)
		assert.Len(t, a.ID, 26)
	})
}

func TestSlogRecorder(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	recorder := audit.NewSlogRecorder(logger)

	entry := audit.NewEntry(audit.OpApply, "mod-1", "alice", "agility", "10", "18", "apply_succeeded", nil)
	require.NoError(t, recorder.Record(context.Background(), entry))

	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "target=alice")
	assert.Contains(t, out, "field=agility")
	assert.Contains(t, out, "old_value=10")
	assert.Contains(t, out, "new_value=18")
	assert.Contains(t, out, "status=apply_succeeded")

	t.Run("FailureLogsAtWarn", func(t *testing.T) {
		buf.Reset()
		failed := audit.NewEntry(audit.OpUnapply, "mod-2", "bob", "charisma", "0", "0",
			"revert_failed", errors.New("boom"))
		require.NoError(t, recorder.Record(context.Background(), failed))

		out := buf.String()
		assert.Contains(t, out, "level=WARN")
		assert.Contains(t, out, "error=boom")
	})
}

func TestMultiRecorder(t *testing.T) {
	var first, second int
	ok := audit.RecorderFunc(func(context.Context, audit.Entry) error {
		first++
		return nil
	})
	failing := audit.RecorderFunc(func(context.Context, audit.Entry) error {
		second++
		return errors.New("sink unavailable")
	})

	multi := audit.NewMultiRecorder(failing, ok)
	entry := audit.NewEntry(audit.OpApply, "mod-1", "alice", "agility", "10", "18", "apply_succeeded", nil)

	err := multi.Record(context.Background(), entry)
	assert.Error(t, err)

	// Both recorders must be attempted even though the first failed.
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}

func TestNopRecorder(t *testing.T) {
	assert.NoError(t, audit.NopRecorder{}.Record(context.Background(), audit.Entry{}))
}
