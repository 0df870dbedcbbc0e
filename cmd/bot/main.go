package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"StockPilot/internal/briefing"
	"StockPilot/internal/collector"
	"StockPilot/internal/config"
	"StockPilot/internal/dashboard"
	"StockPilot/internal/metrics"
	"StockPilot/internal/notifier"
	"StockPilot/internal/portfolio"
	"StockPilot/internal/recorder"
	"StockPilot/internal/scheduler"
	"StockPilot/internal/store"
	"StockPilot/internal/strategy"
)

// setupLogging configures the global console logger.
func setupLogging(logLevel string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
}

func main() {
	setupLogging("info")

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	setupLogging(cfg.LogLevel)
	log.Info().Str("config", cfgPath).Msg("StockPilot starting")

	m := metrics.NewMetrics(nil)

	// Data sources
	var (
		provider collector.Provider
		flows    collector.FlowSource
	)
	if os.Getenv("MOCK_DATA") == "true" {
		provider, flows = &collector.MockProvider{Price: 50000}, collector.MockFlows{}
	} else {
		client := collector.NewClient(collector.ClientOptions{
			Timeout:        time.Duration(cfg.DataSource.TimeoutSec) * time.Second,
			RequestsPerSec: cfg.DataSource.RequestsPerSec,
			Proxy:          cfg.Proxy,
		})
		provider = collector.NewYahooProvider(client, cfg.DataSource.YahooURL)
		flows = collector.NewNaverFlowSource(client, cfg.DataSource.NaverURL)
	}
	log.Info().Str("provider", provider.Name()).Msg("data source ready")

	engine, err := strategy.NewEngine(cfg.Strategy)
	if err != nil {
		log.Fatal().Err(err).Msg("strategy policy")
	}
	col := collector.New(provider, engine, collector.Options{
		Lookback: time.Duration(cfg.DataSource.LookbackDays) * 24 * time.Hour,
		Params:   cfg.Indicators,
		WinRates: cfg.Backtest.WinRates,
		Metrics:  m,
	})

	// Persistence
	st, err := store.New(cfg.Store)
	if err != nil {
		log.Warn().Err(err).Str("backend", cfg.Store.Backend).Msg("init store failed, book will not persist")
		st = store.NoopStore{}
	}
	defer st.Close()

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	book := portfolio.NewManager(ctx, st, m)

	// Telegram
	var (
		notify notifier.Notifier = notifier.NoopNotifier{}
		tn     *notifier.TelegramNotifier
	)
	if cfg.Telegram.BotToken != "" {
		tn, err = notifier.NewTelegramNotifier(notifier.TelegramOptions{
			Token:        cfg.Telegram.BotToken,
			ChatID:       cfg.Telegram.ChatID,
			Proxy:        cfg.Proxy,
			AllowedChats: cfg.Telegram.AllowedChatIDs,
		})
		if err != nil {
			log.Warn().Err(err).Msg("telegram init failed, notifications disabled")
			tn = nil
		} else {
			notify = tn
		}
	} else {
		log.Warn().Msg("TELEGRAM_BOT_TOKEN not set, notifications disabled")
	}

	briefer := briefing.New(col, flows, briefing.Options{
		Universe:   cfg.Briefing.Universe,
		TopN:       cfg.Briefing.TopN,
		RSICeiling: cfg.Briefing.RSICeiling,
		Indicators: cfg.Briefing.Indicators,
		Metrics:    m,
	})

	sched := scheduler.NewScheduler(ctx, scheduler.Deps{
		Collector:  col,
		Briefer:    briefer,
		Portfolio:  book,
		Notifier:   notify,
		Recorder:   rec,
		Metrics:    m,
		Universe:   cfg.Briefing.Universe,
		MaxRetries: cfg.Telegram.MaxRetries,
	})
	if err := sched.Register(cfg.Briefing.Cron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	dash := dashboard.New(cfg.Dashboard.Addr, dashboard.Deps{
		Collector: col,
		Portfolio: book,
		Recorder:  rec,
		Metrics:   m,
		Universe:  cfg.Briefing.Universe,
	})
	dash.Start()

	if tn != nil && cfg.Telegram.PollCommands {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, executing briefing task now")
		go sched.RunBriefingNow()
	}

	log.Info().Msg("StockPilot is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping...")
	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := dash.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("dashboard shutdown")
	}
	log.Info().Msg("StockPilot stopped")
}
