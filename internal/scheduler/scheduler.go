package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"StockPilot/internal/briefing"
	"StockPilot/internal/collector"
	"StockPilot/internal/metrics"
	"StockPilot/internal/model"
	"StockPilot/internal/notifier"
	"StockPilot/internal/portfolio"
	"StockPilot/internal/recorder"
)

// retrier is implemented by notifiers that can retry a failed send.
type retrier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Deps are the collaborators of a Scheduler.
type Deps struct {
	Collector  *collector.Collector
	Briefer    *briefing.Briefer
	Portfolio  *portfolio.Manager
	Notifier   notifier.Notifier
	Recorder   recorder.Recorder
	Metrics    *metrics.Metrics
	Universe   []model.WatchlistEntry
	MaxRetries int
	Now        func() time.Time
}

// Scheduler runs the briefing cron job and answers chat commands.
type Scheduler struct {
	Cron *cron.Cron
	Deps
	Ctx    context.Context
	logger zerolog.Logger
}

// NewScheduler creates a Scheduler whose cron clock runs in KST.
func NewScheduler(ctx context.Context, d Deps) *Scheduler {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Notifier == nil {
		d.Notifier = notifier.NoopNotifier{}
	}
	if d.Recorder == nil {
		d.Recorder = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:   cron.New(cron.WithSeconds(), cron.WithLocation(briefing.KST)),
		Deps:   d,
		Ctx:    ctx,
		logger: log.With().Str("component", "scheduler").Logger(),
	}
}

// Register adds the briefing job. The job decides by the local hour which
// briefing, if any, is due.
func (s *Scheduler) Register(briefingCron string) error {
	if _, err := s.Cron.AddFunc(briefingCron, s.briefingTask); err != nil {
		return fmt.Errorf("register briefing task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

// RunBriefingNow executes the briefing task immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunBriefingNow() {
	s.briefingTask()
}

func (s *Scheduler) briefingTask() {
	s.RunBriefing(s.Ctx, s.Now())
}

// RunBriefing builds and sends the briefing due at now. It returns false
// when nothing was due or the briefing failed.
func (s *Scheduler) RunBriefing(ctx context.Context, now time.Time) bool {
	kind := briefing.Select(now)
	if kind == briefing.KindNone {
		s.logger.Info().Str("kst", now.In(briefing.KST).Format("15:04")).Msg("no briefing due")
		return false
	}
	return s.runKind(ctx, kind, now) != ""
}

// runKind builds, sends and records one briefing and returns its text.
func (s *Scheduler) runKind(ctx context.Context, kind briefing.Kind, now time.Time) string {
	s.logger.Info().Str("kind", string(kind)).Msg("running briefing")
	b, err := s.Briefer.RunKind(ctx, kind, now)
	if err != nil {
		s.logger.Error().Err(err).Str("kind", string(kind)).Msg("briefing failed")
		s.trySend(ctx, fmt.Sprintf("❌ %s briefing failed: %v", kind, err))
		return ""
	}
	text := notifier.FormatBriefing(b)
	s.trySend(ctx, text)

	run := recorder.NewRunID()
	if err := s.Recorder.RecordBriefing(run, b); err != nil {
		s.logger.Error().Err(err).Msg("record briefing")
	}
	for _, p := range b.Picks {
		if p.Result == nil {
			continue
		}
		a := &model.Analysis{Name: p.Name, Ticker: p.Ticker, Result: p.Result,
			Snapshot: &model.IndicatorSnapshot{Close: p.Close, RSI: p.RSI}}
		if err := s.Recorder.RecordAnalysis(run, recorder.SourceBriefing, a); err != nil {
			s.logger.Error().Err(err).Str("ticker", p.Ticker).Msg("record pick")
		}
	}
	return text
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if text == "" {
		return
	}
	var err error
	if r, ok := s.Notifier.(retrier); ok {
		err = r.SendWithRetry(ctx, text, s.MaxRetries)
	} else {
		err = s.Notifier.Send(ctx, text)
	}
	if err != nil {
		s.Metrics.NotifyFailed()
		s.logger.Error().Err(err).Msg("send notification")
	}
}
