package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/plaenen/modqueue/pkg/audit"
)

// Publisher delivers audit entries to NATS JetStream. It implements
// audit.Recorder. Entries are published to
// <prefix>.<target>.<op> subjects with the entry ID as the message ID,
// so redeliveries deduplicate on the broker.
type Publisher struct {
	nc         *nats.Conn
	js         nats.JetStreamContext
	streamName string
	prefix     string
}

// Config holds configuration for the audit publisher.
type Config struct {
	// URL is the NATS server URL.
	URL string

	// StreamName is the JetStream stream name for audit entries.
	StreamName string

	// SubjectPrefix is the first subject token (default: "audit").
	SubjectPrefix string

	// MaxAge is how long to retain audit entries in the stream.
	MaxAge time.Duration

	// MaxBytes is the maximum bytes the stream can store.
	MaxBytes int64
}

// DefaultConfig returns sensible defaults for the audit publisher.
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		StreamName:    "AUDIT",
		SubjectPrefix: "audit",
		MaxAge:        7 * 24 * time.Hour,
		MaxBytes:      1024 * 1024 * 1024, // 1 GB
	}
}

// NewPublisher connects to NATS and ensures the audit stream exists.
func NewPublisher(config Config) (*Publisher, error) {
	nc, err := nats.Connect(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	p := &Publisher{
		nc:         nc,
		js:         js,
		streamName: config.StreamName,
		prefix:     config.SubjectPrefix,
	}

	if err := p.ensureStream(config); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream: %w", err)
	}

	return p, nil
}

// ensureStream creates or updates the JetStream stream.
func (p *Publisher) ensureStream(config Config) error {
	streamConfig := &nats.StreamConfig{
		Name:      config.StreamName,
		Subjects:  []string{config.SubjectPrefix + ".>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    config.MaxAge,
		MaxBytes:  config.MaxBytes,
		Storage:   nats.FileStorage,
		Replicas:  1,
	}

	if _, err := p.js.StreamInfo(config.StreamName); err != nil {
		if _, err := p.js.AddStream(streamConfig); err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}
		return nil
	}

	if _, err := p.js.UpdateStream(streamConfig); err != nil {
		return fmt.Errorf("failed to update stream: %w", err)
	}
	return nil
}

// Record implements audit.Recorder.
func (p *Publisher) Record(ctx context.Context, entry audit.Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to serialize audit entry %s: %w", entry.ID, err)
	}

	subject := fmt.Sprintf("%s.%s.%s", p.prefix, entry.Target, entry.Op)
	if _, err := p.js.Publish(subject, data, nats.MsgId(entry.ID), nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish audit entry %s: %w", entry.ID, err)
	}
	return nil
}

// Close drains the connection, flushing buffered publishes.
func (p *Publisher) Close() error {
	return p.nc.Drain()
}
