// Package sqlite persists audit entries in a SQLite database using the
// pure-Go modernc.org/sqlite driver, so queries over the trail work
// without CGO or an external service.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/plaenen/modqueue/pkg/audit"
)

const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_entries (
	id              TEXT PRIMARY KEY,
	modification_id TEXT NOT NULL,
	op              TEXT NOT NULL,
	target          TEXT NOT NULL,
	field           TEXT NOT NULL,
	old_value       TEXT NOT NULL,
	new_value       TEXT NOT NULL,
	status          TEXT NOT NULL,
	error           TEXT NOT NULL DEFAULT '',
	timestamp       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_entries_target
	ON audit_entries (target);

CREATE INDEX IF NOT EXISTS idx_audit_entries_modification
	ON audit_entries (modification_id);
`

// AuditStore is a SQLite-backed audit sink. It implements
// audit.Recorder, and additionally supports querying the trail by
// target or by modification.
type AuditStore struct {
	db  *sql.DB
	dsn string

	maxOpenConns int
	maxIdleConns int
	walMode      bool
}

// AuditStoreOption configures an AuditStore.
type AuditStoreOption func(*AuditStore)

// WithDSN sets the database connection string.
func WithDSN(dsn string) AuditStoreOption {
	return func(s *AuditStore) {
		s.dsn = dsn
	}
}

// WithMemoryDatabase configures an in-memory database, useful for tests.
func WithMemoryDatabase() AuditStoreOption {
	return func(s *AuditStore) {
		s.dsn = ":memory:"
	}
}

// WithMaxOpenConns sets the maximum number of open connections.
func WithMaxOpenConns(n int) AuditStoreOption {
	return func(s *AuditStore) {
		s.maxOpenConns = n
	}
}

// WithMaxIdleConns sets the maximum number of idle connections.
func WithMaxIdleConns(n int) AuditStoreOption {
	return func(s *AuditStore) {
		s.maxIdleConns = n
	}
}

// WithWALMode enables write-ahead logging.
func WithWALMode() AuditStoreOption {
	return func(s *AuditStore) {
		s.walMode = true
	}
}

// NewAuditStore opens the database and ensures the schema exists.
func NewAuditStore(opts ...AuditStoreOption) (*AuditStore, error) {
	s := &AuditStore{
		dsn:          "audit.db",
		maxOpenConns: 1,
		maxIdleConns: 1,
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open("sqlite", s.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(s.maxOpenConns)
	db.SetMaxIdleConns(s.maxIdleConns)

	if s.walMode {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if _, err := db.Exec(auditSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	s.db = db
	return s, nil
}

// Record implements audit.Recorder.
func (s *AuditStore) Record(ctx context.Context, entry audit.Entry) error {
	return s.Append(ctx, entry)
}

// Append writes one audit entry.
func (s *AuditStore) Append(ctx context.Context, entry audit.Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_entries
			(id, modification_id, op, target, field, old_value, new_value, status, error, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.ModificationID,
		string(entry.Op),
		entry.Target,
		entry.Field,
		entry.OldValue,
		entry.NewValue,
		entry.Status,
		entry.Error,
		entry.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry %s: %w", entry.ID, err)
	}
	return nil
}

// ByTarget returns all entries for a target, oldest first. Entry IDs
// are lexically sortable, so ordering by id is chronological.
func (s *AuditStore) ByTarget(ctx context.Context, target string) ([]audit.Entry, error) {
	return s.query(ctx, "target", target)
}

// ByModification returns all entries for a modification, oldest first.
func (s *AuditStore) ByModification(ctx context.Context, modificationID string) ([]audit.Entry, error) {
	return s.query(ctx, "modification_id", modificationID)
}

func (s *AuditStore) query(ctx context.Context, column, value string) ([]audit.Entry, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, modification_id, op, target, field, old_value, new_value, status, error, timestamp
		FROM audit_entries
		WHERE %s = ?
		ORDER BY id`, column), value)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var entry audit.Entry
		var op, timestamp string
		if err := rows.Scan(
			&entry.ID,
			&entry.ModificationID,
			&op,
			&entry.Target,
			&entry.Field,
			&entry.OldValue,
			&entry.NewValue,
			&entry.Status,
			&entry.Error,
			&timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entry.Op = audit.Op(op)
		entry.Timestamp, err = time.Parse(time.RFC3339Nano, timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp for entry %s: %w", entry.ID, err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// DB exposes the underlying database handle for migrations or
// ad-hoc queries.
func (s *AuditStore) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *AuditStore) Close() error {
	return s.db.Close()
}
