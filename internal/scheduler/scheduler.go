package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/amishk599/jobdigest/internal/history"
	"github.com/amishk599/jobdigest/internal/pipeline"
)

// Runner executes one digest run.
type Runner interface {
	Run(ctx context.Context, keywords []string) (*pipeline.Report, error)
}

// KeywordSource yields the keyword list for the next run. It is called
// before every run so edits to the keywords file take effect without a
// restart.
type KeywordSource func() ([]string, error)

// Scheduler owns the main loop: ticks on an interval and triggers one run
// per tick.
type Scheduler struct {
	runner   Runner
	keywords KeywordSource
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a scheduler that runs the digest at the given interval.
func NewScheduler(runner Runner, keywords KeywordSource, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		keywords: keywords,
		interval: interval,
		logger:   logger,
	}
}

// Run starts the loop. It runs one immediate cycle, then ticks on the
// configured interval. It returns nil when ctx is cancelled (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler", "interval", s.interval.String())

	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			return nil
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce never returns an error: a failed run is logged and the next tick
// tries again.
func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	keywords, err := s.keywords()
	if err != nil {
		s.logger.Error("loading keywords", "error", err)
		return
	}
	if len(keywords) == 0 {
		s.logger.Warn("no keywords configured, skipping run")
		return
	}

	rep, err := s.runner.Run(ctx, keywords)
	switch {
	case errors.Is(err, history.ErrLocked):
		s.logger.Warn("previous run still holds the history, skipping", "error", err)
	case err != nil:
		s.logger.Error("run failed", "error", err)
	default:
		s.logger.Info("run finished",
			"run_id", rep.RunID,
			"records", len(rep.Records),
			"new", len(rep.New),
		)
	}
}
