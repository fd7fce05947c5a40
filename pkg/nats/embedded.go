// Package nats publishes the engine's audit trail over NATS JetStream
// and provides an embedded server for tests and single-binary setups.
package nats

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

const embeddedReadyTimeout = 5 * time.Second

// EmbeddedServer wraps an in-process NATS server with JetStream
// enabled. Useful for testing without external dependencies.
type EmbeddedServer struct {
	server       *server.Server
	url          string
	logger       *slog.Logger
	shutdownOnce sync.Once
}

// EmbeddedOption configures an EmbeddedServer.
type EmbeddedOption func(*EmbeddedServer)

// WithEmbeddedLogger sets the logger used during shutdown.
func WithEmbeddedLogger(logger *slog.Logger) EmbeddedOption {
	return func(e *EmbeddedServer) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// StartEmbeddedServer starts an embedded NATS server on a random local
// port and blocks until it accepts connections.
func StartEmbeddedServer(opts ...EmbeddedOption) (*EmbeddedServer, error) {
	e := &EmbeddedServer{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}

	srv, err := server.NewServer(&server.Options{
		Host:      "127.0.0.1",
		Port:      -1, // Random port
		JetStream: true,
		StoreDir:  "", // Temp directory
	})
	if err != nil {
		return nil, err
	}

	go srv.Start()

	if !srv.ReadyForConnections(embeddedReadyTimeout) {
		srv.Shutdown()
		return nil, errors.New("embedded nats server not ready")
	}

	e.server = srv
	e.url = srv.ClientURL()
	return e, nil
}

// URL returns the connection URL for the embedded server.
func (e *EmbeddedServer) URL() string {
	return e.url
}

// Connect returns a client connection to the embedded server.
func (e *EmbeddedServer) Connect() (*nats.Conn, error) {
	return nats.Connect(e.url)
}

// Shutdown stops the embedded server. Safe to call multiple times;
// only the first call performs the shutdown.
func (e *EmbeddedServer) Shutdown() {
	e.shutdownOnce.Do(func() {
		if e.server == nil {
			return
		}
		e.server.Shutdown()

		done := make(chan struct{})
		go func() {
			e.server.WaitForShutdown()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(embeddedReadyTimeout):
			e.logger.Warn("embedded nats server shutdown timed out",
				slog.Duration("timeout", embeddedReadyTimeout))
		}
	})
}
