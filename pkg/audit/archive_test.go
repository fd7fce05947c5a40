package audit_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/memblob"

	"github.com/plaenen/modqueue/pkg/audit"
)

func openTestBucket(t *testing.T) *blob.Bucket {
	t.Helper()
	bucket, err := blob.OpenBucket(context.Background(), "mem://")
	require.NoError(t, err)
	t.Cleanup(func() { bucket.Close() })
	return bucket
}

func TestArchiverFlush(t *testing.T) {
	ctx := context.Background()
	bucket := openTestBucket(t)
	archiver := audit.NewArchiver(bucket)

	for i := 0; i < 3; i++ {
		entry := audit.NewEntry(audit.OpApply, fmt.Sprintf("mod-%d", i), "alice", "agility",
			"10", "18", "apply_succeeded", nil)
		require.NoError(t, archiver.Record(ctx, entry))
	}
	require.NoError(t, archiver.Flush(ctx))

	iter := bucket.List(&blob.ListOptions{Prefix: "audit/"})
	obj, err := iter.Next(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(obj.Key, ".jsonl"))

	data, err := bucket.ReadAll(ctx, obj.Key)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)

	var entry audit.Entry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "mod-0", entry.ModificationID)
	assert.Equal(t, "alice", entry.Target)
}

func TestArchiverBatchSize(t *testing.T) {
	ctx := context.Background()
	bucket := openTestBucket(t)
	archiver := audit.NewArchiver(bucket, audit.WithBatchSize(2), audit.WithPrefix("trail/"))

	// One entry stays buffered; the second completes a batch and flushes.
	first := audit.NewEntry(audit.OpApply, "mod-1", "alice", "agility", "10", "18", "apply_succeeded", nil)
	require.NoError(t, archiver.Record(ctx, first))

	iter := bucket.List(&blob.ListOptions{Prefix: "trail/"})
	_, err := iter.Next(ctx)
	assert.Error(t, err, "nothing should be written before the batch fills")

	second := audit.NewEntry(audit.OpUnapply, "mod-1", "alice", "agility", "18", "10", "revert_succeeded", nil)
	require.NoError(t, archiver.Record(ctx, second))

	iter = bucket.List(&blob.ListOptions{Prefix: "trail/"})
	obj, err := iter.Next(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(obj.Key, "trail/"))

	require.NoError(t, archiver.Close(ctx))
}

func TestArchiverEmptyFlush(t *testing.T) {
	bucket := openTestBucket(t)
	archiver := audit.NewArchiver(bucket)
	assert.NoError(t, archiver.Flush(context.Background()))
}
