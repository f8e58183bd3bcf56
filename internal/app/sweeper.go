/**
 * @description
 * Cron-driven sweeper that clears the flow scratch of conversations idle
 * beyond the session timeout. The engine already wipes stale scratch when a
 * phone dials back in; the sweeper covers users who never return, so a record
 * at rest is never left mid-flow.
 */
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// SweeperStore is the slice of the user store the sweeper needs.
type SweeperStore interface {
	ClearStaleScratch(ctx context.Context, olderThan time.Time) (int64, error)
}

// Sweeper periodically clears stale flow scratch.
type Sweeper struct {
	cron     *cron.Cron
	store    SweeperStore
	logger   *slog.Logger
	schedule string
	timeout  time.Duration
}

// NewSweeper creates a sweeper running on the given cron schedule.
func NewSweeper(store SweeperStore, logger *slog.Logger, schedule string, timeout time.Duration) *Sweeper {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Sweeper{
		cron:     c,
		store:    store,
		logger:   logger,
		schedule: schedule,
		timeout:  timeout,
	}
}

// Start registers the job and starts the cron scheduler.
func (s *Sweeper) Start() {
	if _, err := s.cron.AddFunc(s.schedule, s.sweep); err != nil {
		s.logger.Error("failed to schedule stale-session sweep", "error", err)
		return
	}
	s.logger.Info("scheduled stale-session sweep", "schedule", s.schedule)
	s.cron.Start()
}

// Stop gracefully stops the cron scheduler.
func (s *Sweeper) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-s.timeout)
	cleared, err := s.store.ClearStaleScratch(ctx, cutoff)
	if err != nil {
		s.logger.Error("stale-session sweep failed", "error", err)
		return
	}
	if cleared > 0 {
		s.logger.Info("cleared stale sessions", "count", cleared)
	}
}
