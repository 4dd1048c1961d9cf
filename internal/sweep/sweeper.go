// Package sweep runs the background pass that finalizes battles whose
// voting window has elapsed.
package sweep

import (
	"context"
	"time"

	"github.com/okian/versus/pkg/logger"
)

// Default sweeper configuration constants.
const (
	defaultInterval        = 30 * time.Second
	sweeperShutdownTimeout = 5 * time.Second
)

// Finalizer closes out battles that have passed their scheduled end.
type Finalizer interface {
	FinalizeExpired(ctx context.Context) (int, error)
}

// Option applies a configuration option to the Sweeper.
type Option func(*Sweeper)

// WithInterval sets how often the sweeper scans for expired battles.
func WithInterval(d time.Duration) Option {
	return func(s *Sweeper) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLogger sets a custom logger for the sweeper.
func WithLogger(l logger.Logger) Option {
	return func(s *Sweeper) {
		if l != nil {
			s.logger = l
		}
	}
}

// Sweeper periodically finalizes expired battles.
type Sweeper struct {
	finalizer Finalizer
	interval  time.Duration

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// New creates a sweeper with configuration options.
func New(finalizer Finalizer, opts ...Option) *Sweeper {
	s := &Sweeper{
		finalizer: finalizer,
		interval:  defaultInterval,
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("sweep"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run starts the sweep loop until ctx is canceled or Shutdown is called.
func (s *Sweeper) Run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info(ctx, "sweeper started",
		logger.Duration("interval", s.interval),
	)

	// One immediate pass so a restart does not wait a full interval to
	// catch up on battles that expired while the process was down.
	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.shutdown:
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Shutdown gracefully stops the sweeper, waiting for an in-flight pass.
func (s *Sweeper) Shutdown(ctx context.Context) error {
	close(s.shutdown)

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(sweeperShutdownTimeout):
		s.logger.Warn(ctx, "sweeper shutdown timed out")
		return nil
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	finalized, err := s.finalizer.FinalizeExpired(ctx)
	if err != nil {
		s.logger.Error(ctx, "sweep pass failed", logger.Error(err))
		return
	}
	if finalized > 0 {
		s.logger.Info(ctx, "sweep pass finalized battles",
			logger.Int("finalized", finalized),
		)
	}
}
