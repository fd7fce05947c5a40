// Package auditbus provides a runner.Service that hosts an embedded
// NATS server together with an audit publisher, so a single binary can
// stream its audit trail without an external broker.
package auditbus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/plaenen/modqueue/pkg/nats"
	"github.com/plaenen/modqueue/pkg/observability"
	"github.com/plaenen/modqueue/pkg/runner"
)

// Service wraps an embedded NATS server and an audit publisher as a
// runner.Service. The publisher implements audit.Recorder and can be
// handed to modifications once Start has succeeded.
type Service struct {
	config    nats.Config
	server    *nats.EmbeddedServer
	publisher *nats.Publisher
	logger    *slog.Logger
	tracer    trace.Tracer
}

// Option configures the audit bus service.
type Option func(*Service)

// WithConfig sets the publisher configuration.
// The URL in the config is ignored and replaced with the embedded server URL.
func WithConfig(config nats.Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTracer sets the OpenTelemetry tracer for the service.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New creates a new audit bus service for use with runner.
func New(opts ...Option) *Service {
	s := &Service{
		config: nats.DefaultConfig(),
		logger: slog.Default(),
		tracer: noop.NewTracerProvider().Tracer("auditbus"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the service name for logging.
func (s *Service) Name() string {
	return "auditbus"
}

// Start starts the embedded NATS server and creates the publisher.
func (s *Service) Start(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "auditbus.Start")
	defer span.End()

	s.logger.Info("starting auditbus service")

	srv, err := nats.StartEmbeddedServer(nats.WithEmbeddedLogger(s.logger))
	if err != nil {
		observability.SetSpanError(ctx, err)
		s.logger.Error("failed to start embedded NATS", "error", err)
		return fmt.Errorf("failed to start embedded NATS: %w", err)
	}
	s.server = srv

	s.config.URL = srv.URL()

	publisher, err := nats.NewPublisher(s.config)
	if err != nil {
		srv.Shutdown()
		observability.SetSpanError(ctx, err)
		s.logger.Error("failed to create audit publisher", "error", err)
		return fmt.Errorf("failed to create audit publisher: %w", err)
	}
	s.publisher = publisher

	span.SetAttributes(
		attribute.String("nats.url", srv.URL()),
		attribute.String("stream.name", s.config.StreamName),
	)

	s.logger.Info("auditbus service started",
		"url", srv.URL(),
		"stream", s.config.StreamName)

	return nil
}

// Stop gracefully shuts down the publisher and embedded NATS server.
// The publisher is drained first so buffered entries reach the stream.
func (s *Service) Stop(ctx context.Context) error {
	_, span := s.tracer.Start(ctx, "auditbus.Stop")
	defer span.End()

	s.logger.Info("stopping auditbus service")

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			s.logger.Warn("error closing audit publisher", "error", err)
		}

		// Give connections time to drain
		time.Sleep(100 * time.Millisecond)
	}

	if s.server != nil {
		s.server.Shutdown()
	}

	s.logger.Info("auditbus service stopped")
	return nil
}

// HealthCheck checks if both the NATS server and publisher are healthy.
func (s *Service) HealthCheck(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "auditbus.HealthCheck")
	defer span.End()

	if s.server == nil {
		err := fmt.Errorf("nats server not started")
		observability.SetSpanError(ctx, err)
		return err
	}

	if s.publisher == nil {
		err := fmt.Errorf("audit publisher not created")
		observability.SetSpanError(ctx, err)
		return err
	}

	// Try to connect to verify server is responsive
	nc, err := s.server.Connect()
	if err != nil {
		observability.SetSpanError(ctx, err)
		return fmt.Errorf("nats server not responsive: %w", err)
	}
	nc.Close()

	span.SetAttributes(attribute.Bool("healthy", true))
	return nil
}

// Publisher returns the audit publisher.
// Only available after Start() succeeds.
func (s *Service) Publisher() *nats.Publisher {
	return s.publisher
}

// URL returns the NATS server connection URL.
// Only available after Start() succeeds.
func (s *Service) URL() string {
	if s.server == nil {
		return ""
	}
	return s.server.URL()
}

// Ensure Service implements runner.Service and runner.HealthChecker
var _ runner.Service = (*Service)(nil)
var _ runner.HealthChecker = (*Service)(nil)
