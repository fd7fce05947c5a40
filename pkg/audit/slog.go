package audit

import (
	"context"
	"log/slog"
)

// SlogRecorder emits audit entries as structured log records.
// Successful attempts log at Info, failed attempts at Warn.
type SlogRecorder struct {
	logger *slog.Logger
}

// NewSlogRecorder creates a recorder writing to the given logger.
// A nil logger falls back to slog.Default.
func NewSlogRecorder(logger *slog.Logger) *SlogRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogRecorder{logger: logger}
}

// Record implements Recorder.
func (r *SlogRecorder) Record(ctx context.Context, entry Entry) error {
	level := slog.LevelInfo
	msg := "audit: " + string(entry.Op) + " succeeded"
	if entry.Failed() {
		level = slog.LevelWarn
		msg = "audit: " + string(entry.Op) + " failed"
	}

	attrs := []slog.Attr{
		slog.String("entry_id", entry.ID),
		slog.String("modification_id", entry.ModificationID),
		slog.String("target", entry.Target),
		slog.String("field", entry.Field),
		slog.String("old_value", entry.OldValue),
		slog.String("new_value", entry.NewValue),
		slog.String("status", entry.Status),
	}
	if entry.Failed() {
		attrs = append(attrs, slog.String("error", entry.Error))
	}

	r.logger.LogAttrs(ctx, level, msg, attrs...)
	return nil
}
