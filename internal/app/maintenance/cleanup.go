package maintenance

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	iauth "github.com/josephowusu/bizcore/internal/auth"
	"github.com/josephowusu/bizcore/internal/tenant"
	"github.com/josephowusu/bizcore/pkg/logger"
)

const defaultSessionSpec = "@hourly"

// Sweeper runs background maintenance: purging expired and revoked sessions
// from every registered tenant on a schedule.
type Sweeper struct {
	tenants  *tenant.Registry
	sessions *iauth.SessionService
	cron     *cron.Cron
	log      *zap.Logger

	sessionSchedule string
}

// Option customises the Sweeper.
type Option func(*Sweeper)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(sweeper *Sweeper) {
		if c != nil {
			sweeper.cron = c
		}
	}
}

// WithSessionSchedule overrides the cron specification for session cleanup.
func WithSessionSchedule(spec string) Option {
	return func(sweeper *Sweeper) {
		if spec != "" {
			sweeper.sessionSchedule = spec
		}
	}
}

// NewSweeper constructs a Sweeper with sensible defaults.
func NewSweeper(tenants *tenant.Registry, sessions *iauth.SessionService, opts ...Option) (*Sweeper, error) {
	if tenants == nil {
		return nil, errors.New("maintenance: tenant registry is required")
	}
	if sessions == nil {
		return nil, errors.New("maintenance: session service is required")
	}

	sweeper := &Sweeper{
		tenants:         tenants,
		sessions:        sessions,
		sessionSchedule: defaultSessionSpec,
		log:             logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(sweeper)
	}

	if sweeper.cron == nil {
		sweeper.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return sweeper, nil
}

// Start registers the cleanup job with the cron scheduler and launches it.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.sessionSchedule, func() {
		if err := s.RunOnce(context.Background()); err != nil {
			s.log.Warn("session sweep failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (s *Sweeper) Stop() context.Context {
	if s.cron == nil {
		return context.Background()
	}
	return s.cron.Stop()
}

// RunOnce sweeps every registered tenant sequentially. A failing tenant does
// not stop the sweep; failures are collected and returned together.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	_ = s.tenants.ForEach(func(handle *tenant.Handle) error {
		removed, err := s.sessions.CleanupExpired(ctx, handle)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", handle.Schema(), err))
			return nil
		}
		if removed > 0 {
			s.log.Info("expired sessions removed",
				zap.String("schema", handle.Schema().String()),
				zap.Int64("removed", removed),
			)
		}
		return nil
	})

	return errs
}
