// Package processor provides a runner.Service that sweeps a
// modification queue on a fixed interval, applying queued work and
// retrying failed reverts in the background.
package processor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/plaenen/modqueue/pkg/modifier"
	"github.com/plaenen/modqueue/pkg/runner"
)

const defaultInterval = 1 * time.Second

// Service periodically calls ProcessAll on a modifier.Manager.
type Service struct {
	manager  *modifier.Manager
	interval time.Duration
	logger   *slog.Logger
	tracer   trace.Tracer

	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	running bool
}

// Option configures the processor service.
type Option func(*Service)

// WithInterval sets the sweep interval. Default is 1 second.
func WithInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.interval = interval
		}
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

// New creates a new processor service sweeping the given manager.
func New(manager *modifier.Manager, opts ...Option) *Service {
	s := &Service{
		manager:  manager,
		interval: defaultInterval,
		logger:   slog.Default(),
		tracer:   noop.NewTracerProvider().Tracer("processor"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the service name for logging.
func (s *Service) Name() string {
	return "processor"
}

// Start launches the background sweep loop. The ctx passed by the
// runner carries a startup timeout, so the loop runs on its own
// context and stops only via Stop.
func (s *Service) Start(ctx context.Context) error {
	_, span := s.tracer.Start(ctx, "processor.Start")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.manager == nil {
		return fmt.Errorf("processor requires a manager")
	}
	if s.running {
		return fmt.Errorf("processor already started")
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.loop(loopCtx)

	span.SetAttributes(attribute.String("interval", s.interval.String()))
	s.logger.Info("processor started", "interval", s.interval)
	return nil
}

func (s *Service) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Service) sweep(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "processor.sweep")
	defer span.End()

	report := s.manager.ProcessAll(ctx)
	span.SetAttributes(attribute.Int("sweep.attempts", report.Attempts()))
}

// Stop cancels the sweep loop and waits for it to exit.
func (s *Service) Stop(ctx context.Context) error {
	_, span := s.tracer.Start(ctx, "processor.Stop")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.cancel()

	select {
	case <-s.done:
	case <-ctx.Done():
		return fmt.Errorf("processor stop timed out: %w", ctx.Err())
	}

	s.running = false
	s.logger.Info("processor stopped")
	return nil
}

// HealthCheck reports whether the sweep loop is running.
func (s *Service) HealthCheck(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return fmt.Errorf("processor not running")
	}
	return nil
}

// Ensure Service implements runner.Service and runner.HealthChecker
var _ runner.Service = (*Service)(nil)
var _ runner.HealthChecker = (*Service)(nil)
