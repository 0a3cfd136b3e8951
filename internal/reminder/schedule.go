package reminder

import (
	"context"
	"time"

	"github.com/studiofisyo/ledger/pkg/observability"
)

// Scheduler calls a Runner on a fixed interval, for deployments without an
// external cron. Overlap is prevented by the Runner's own lock and claims.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   *observability.Logger
}

func NewScheduler(runner Runner, interval time.Duration, logger *observability.Logger) *Scheduler {
	return &Scheduler{runner: runner, interval: interval, logger: logger}
}

// Start blocks until ctx is cancelled. The first run happens one interval
// after start.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Dispatch scheduler started", "interval", s.interval.String())
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Dispatch scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	// a shutdown mid-run lets the batch finish
	summary, err := s.runner.Run(context.WithoutCancel(ctx))
	if err != nil {
		s.logger.Error("Scheduled dispatch failed", "error", err)
		return
	}
	if summary.Message != "" {
		s.logger.Info("Scheduled dispatch finished", "message", summary.Message)
		return
	}
	delivered, failed, pruned := Counts(summary.Results)
	s.logger.Info("Scheduled dispatch finished",
		"processed", summary.Processed, "delivered", delivered, "failed", failed, "pruned", pruned)
}
