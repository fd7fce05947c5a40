package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"gocloud.dev/blob"
	// Blob drivers are opt-in - import in your application code:
	// _ "gocloud.dev/blob/fileblob" // Local filesystem
	// _ "gocloud.dev/blob/gcsblob"  // Google Cloud Storage
	// _ "gocloud.dev/blob/memblob"  // In-memory (tests)
	// _ "gocloud.dev/blob/s3blob"   // Amazon S3
)

const (
	defaultArchivePrefix    = "audit/"
	defaultArchiveBatchSize = 64
)

// Archiver batches audit entries and writes them as JSON Lines objects
// to a blob bucket. Object keys start with the first entry's sortable
// ID, so listed objects are in chronological order.
type Archiver struct {
	bucket    *blob.Bucket
	prefix    string
	batchSize int

	mu      sync.Mutex
	pending []Entry
}

// ArchiverOption configures an Archiver.
type ArchiverOption func(*Archiver)

// WithPrefix sets the object key prefix. Default is "audit/".
func WithPrefix(prefix string) ArchiverOption {
	return func(a *Archiver) {
		a.prefix = prefix
	}
}

// WithBatchSize sets how many entries are buffered before a flush.
// Default is 64.
func WithBatchSize(n int) ArchiverOption {
	return func(a *Archiver) {
		if n > 0 {
			a.batchSize = n
		}
	}
}

// NewArchiver creates an archiver writing to the given bucket.
// The caller retains ownership of the bucket and closes it after
// closing the archiver.
func NewArchiver(bucket *blob.Bucket, opts ...ArchiverOption) *Archiver {
	a := &Archiver{
		bucket:    bucket,
		prefix:    defaultArchivePrefix,
		batchSize: defaultArchiveBatchSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Record implements Recorder. The entry is buffered; a full batch is
// written out synchronously.
func (a *Archiver) Record(ctx context.Context, entry Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.pending = append(a.pending, entry)
	if len(a.pending) >= a.batchSize {
		return a.flushLocked(ctx)
	}
	return nil
}

// Flush writes any buffered entries out as one object.
func (a *Archiver) Flush(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.flushLocked(ctx)
}

// Close flushes remaining entries. The archiver must not be used after
// Close.
func (a *Archiver) Close(ctx context.Context) error {
	return a.Flush(ctx)
}

func (a *Archiver) flushLocked(ctx context.Context) error {
	if len(a.pending) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, entry := range a.pending {
		if err := enc.Encode(entry); err != nil {
			return fmt.Errorf("encode audit entry %s: %w", entry.ID, err)
		}
	}

	key := a.prefix + a.pending[0].ID + ".jsonl"
	opts := &blob.WriterOptions{ContentType: "application/x-ndjson"}
	if err := a.bucket.WriteAll(ctx, key, buf.Bytes(), opts); err != nil {
		return fmt.Errorf("write audit archive %s: %w", key, err)
	}

	a.pending = a.pending[:0]
	return nil
}
