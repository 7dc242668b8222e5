package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"socialpay/internal/models"
)

// SessionSweeper drops checkout sessions the payer has abandoned.
type SessionSweeper interface {
	Sweep(now time.Time, ttl time.Duration) int
}

// CatalogRefresher reloads the gateway catalog.
type CatalogRefresher interface {
	Refresh(ctx context.Context) ([]models.Gateway, error)
}

// Scheduler manages all cron jobs.
type Scheduler struct {
	cron       *cron.Cron
	logger     *zap.Logger
	sessions   SessionSweeper
	catalog    CatalogRefresher
	sessionTTL time.Duration
	now        func() time.Time
}

// New creates a new cron scheduler.
func New(sessions SessionSweeper, catalog CatalogRefresher, sessionTTL time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		logger:     logger,
		sessions:   sessions,
		catalog:    catalog,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// Start registers and starts all cron jobs.
func (s *Scheduler) Start() error {
	s.logger.Info("Starting cron scheduler...")

	// Abandoned sessions - every minute
	if _, err := s.cron.AddFunc("0 * * * * *", func() {
		s.logger.Debug("Running: session sweep")
		s.sweepSessions()
	}); err != nil {
		return err
	}

	// Gateway catalog - every 5 minutes
	if _, err := s.cron.AddFunc("30 */5 * * * *", func() {
		s.logger.Debug("Running: catalog refresh")
		s.refreshCatalog()
	}); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler; the returned context is done once running jobs
// have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) sweepSessions() {
	defer s.recoverFromPanic("sweepSessions")

	if n := s.sessions.Sweep(s.now(), s.sessionTTL); n > 0 {
		s.logger.Info("Swept idle checkout sessions", zap.Int("count", n))
	}
}

func (s *Scheduler) refreshCatalog() {
	defer s.recoverFromPanic("refreshCatalog")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	gateways, err := s.catalog.Refresh(ctx)
	if err != nil {
		// The cached listing stays in place until it expires.
		s.logger.Warn("Catalog refresh failed", zap.Error(err))
		return
	}
	s.logger.Debug("Catalog refreshed", zap.Int("count", len(gateways)))
}

func (s *Scheduler) recoverFromPanic(jobName string) {
	if r := recover(); r != nil {
		s.logger.Error("Cron job panicked", zap.String("job", jobName), zap.Any("error", r))
	}
}
