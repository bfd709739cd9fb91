package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"StockAnalyser/internal/calendar"
	"StockAnalyser/internal/collector"
	"StockAnalyser/internal/config"
	"StockAnalyser/internal/console"
	"StockAnalyser/internal/logger"
	"StockAnalyser/internal/membership"
	"StockAnalyser/internal/recorder"
	"StockAnalyser/internal/registry"
	"StockAnalyser/internal/scheduler"
)

func main() {
	bootLog := logger.New(logger.Config{Level: "info"})

	if err := config.LoadDotEnv(); err != nil {
		bootLog.Fatal().Err(err).Msg("load .env")
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		bootLog.Fatal().Err(err).Msg("config validation")
	}

	log := logger.New(logger.Config{Level: cfg.Logging.Level, Pretty: cfg.Logging.Pretty})
	logger.SetGlobalLogger(log)
	log.Info().Str("config", cfgPath).Msg("StockAnalyser starting")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	members := loadMembership(ctx, cfg, log)

	// Init fetcher
	gate := collector.NewRateGate()
	var fetcher collector.Fetcher
	if cfg.Provider.Mock {
		fetcher = &collector.MockFetcher{Price: 100}
	} else {
		fetcher = collector.NewPolygonClient(cfg.Provider.APIKey,
			collector.WithBaseURL(cfg.Provider.BaseURL),
			collector.WithProxy(cfg.Proxy),
			collector.WithTimeout(cfg.Provider.Timeout),
			collector.WithRateLimit(cfg.Provider.RequestsPerMinute),
			collector.WithGate(gate),
			collector.WithLogger(log),
		)
	}
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	col := collector.NewCollector(collector.Options{
		Source:      fetcher,
		Gate:        gate,
		Calendar:    calendar.New(),
		Members:     members,
		Registry:    registry.New(),
		Recorder:    rec,
		IndexSymbol: cfg.IndexSymbol,
		Logger:      log,
	})
	log.Info().Stringer("collector", col).Msg("collector ready")

	// Init scheduler
	if cfg.Schedule.RefreshCron != "" {
		sched := scheduler.NewScheduler(ctx, col, cfg.Schedule.Watchlist, log)
		if err := sched.Register(cfg.Schedule.RefreshCron); err != nil {
			log.Fatal().Err(err).Msg("register cron task")
		}
		sched.Start()
		defer sched.Stop()
	}

	shell := console.NewShell(os.Stdin, os.Stdout, log)
	os.Stdout.WriteString(console.HelpText + "\n")
	if err := shell.Run(ctx, console.NewCommands(col).Handle); err != nil {
		log.Error().Err(err).Msg("console")
	}

	log.Info().Msg("StockAnalyser stopped")
}

// loadMembership returns the configured ticker set, or format-only validation when none is set.
func loadMembership(ctx context.Context, cfg *config.Config, log zerolog.Logger) collector.Validator {
	if cfg.Membership.Source == "" {
		log.Warn().Msg("membership.source not set, accepting any well-formed ticker")
		return nil
	}

	client := &http.Client{Timeout: 30 * time.Second}
	set, err := membership.Load(ctx, client, cfg.Membership.Source)
	if err != nil {
		log.Fatal().Err(err).Str("source", cfg.Membership.Source).Msg("load membership")
	}
	log.Info().Int("symbols", set.Len()).Str("source", cfg.Membership.Source).Msg("membership loaded")
	return set
}
