package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"StockAnalyser/internal/collector"
	"StockAnalyser/internal/config"
	"StockAnalyser/internal/model"
)

// Analyser runs one technical analysis.
type Analyser interface {
	RunTechnical(ctx context.Context, symbol string) (*collector.TechnicalResult, error)
}

// RefreshSummary reports the outcome of one watchlist pass.
type RefreshSummary struct {
	Refreshed []string
	Failed    map[string]error
	// Skipped lists symbols not attempted because the provider rate limit was hit.
	Skipped []string
}

// Scheduler manages the periodic watchlist refresh.
type Scheduler struct {
	Cron      *cron.Cron
	Analyser  Analyser
	Watchlist []string
	Ctx       context.Context
	logger    zerolog.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, analyser Analyser, watchlist []string, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithParser(config.CronParser)),
		Analyser:  analyser,
		Watchlist: watchlist,
		Ctx:       ctx,
		logger:    logger.With().Str("component", "scheduler").Logger(),
	}
}

// Register adds the refresh job.
func (s *Scheduler) Register(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info().Int("watchlist", len(s.Watchlist)).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

func (s *Scheduler) refreshTask() {
	s.RefreshNow(s.Ctx)
}

// RefreshNow analyses every watchlist symbol in order. A rate limit ends the pass early since
// every later request would be refused until the cooldown elapses.
func (s *Scheduler) RefreshNow(ctx context.Context) *RefreshSummary {
	summary := &RefreshSummary{Failed: map[string]error{}}
	s.logger.Info().Strs("symbols", s.Watchlist).Msg("running watchlist refresh")

	for i, symbol := range s.Watchlist {
		if ctx.Err() != nil {
			summary.Skipped = append(summary.Skipped, s.Watchlist[i:]...)
			break
		}
		_, err := s.Analyser.RunTechnical(ctx, symbol)
		if err == nil {
			summary.Refreshed = append(summary.Refreshed, symbol)
			continue
		}
		summary.Failed[symbol] = err

		var rl *model.RateLimitError
		if errors.As(err, &rl) {
			summary.Skipped = append(summary.Skipped, s.Watchlist[i+1:]...)
			s.logger.Warn().
				Float64("wait_seconds", rl.RemainingSeconds()).
				Strs("skipped", summary.Skipped).
				Msg("rate limited, ending refresh early")
			break
		}
	}

	s.logger.Info().
		Int("refreshed", len(summary.Refreshed)).
		Int("failed", len(summary.Failed)).
		Int("skipped", len(summary.Skipped)).
		Msg("watchlist refresh finished")
	return summary
}
