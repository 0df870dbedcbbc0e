package briefing

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"StockPilot/internal/collector"
	"StockPilot/internal/metrics"
	"StockPilot/internal/model"
)

// ErrNoMacroData is returned when none of the macro quotes could be fetched.
var ErrNoMacroData = errors.New("no macro data available")

// macroWindow spans enough calendar days to hold two trading sessions.
const macroWindow = 10 * 24 * time.Hour

// Options configures a Briefer.
type Options struct {
	Universe   []model.WatchlistEntry
	TopN       int
	RSICeiling float64
	Indicators []Indicator
	Metrics    *metrics.Metrics
}

// Briefing is the content of one scheduled run.
type Briefing struct {
	Kind   Kind                `json:"kind"`
	At     time.Time           `json:"at"`
	Regime *model.RegimeReport `json:"regime,omitempty"`
	Picks  []model.Pick        `json:"picks,omitempty"`
}

// Briefer assembles the morning and afternoon briefings.
type Briefer struct {
	collector *collector.Collector
	flows     collector.FlowSource
	opts      Options
	logger    zerolog.Logger
}

// New creates a Briefer.
func New(c *collector.Collector, flows collector.FlowSource, opts Options) *Briefer {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.RSICeiling <= 0 {
		opts.RSICeiling = DefaultRSICeiling
	}
	if len(opts.Indicators) == 0 {
		opts.Indicators = DefaultIndicators()
	}
	return &Briefer{
		collector: c,
		flows:     flows,
		opts:      opts,
		logger:    log.With().Str("component", "briefing").Logger(),
	}
}

// Run builds the briefing due at now. It returns nil outside both windows.
func (b *Briefer) Run(ctx context.Context, now time.Time) (*Briefing, error) {
	kind := Select(now)
	if kind == KindNone {
		b.logger.Debug().Time("now", now).Msg("outside briefing windows, skipping")
		return nil, nil
	}
	return b.RunKind(ctx, kind, now)
}

// RunKind builds a briefing of the given kind regardless of the clock.
func (b *Briefer) RunKind(ctx context.Context, kind Kind, now time.Time) (*Briefing, error) {
	out := &Briefing{Kind: kind, At: now}
	var err error
	switch kind {
	case KindMorning:
		out.Regime, err = b.MarketRegime(ctx, now)
	case KindAfternoon:
		out.Picks, err = b.TopPicks(ctx)
	default:
		return nil, nil
	}
	b.opts.Metrics.ObserveBriefing(string(kind), err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarketRegime fetches the macro quotes and votes a verdict.
func (b *Briefer) MarketRegime(ctx context.Context, now time.Time) (*model.RegimeReport, error) {
	provider := b.collector.Provider()
	quotes := make([]model.MacroQuote, 0, len(b.opts.Indicators))
	available := 0
	for _, ind := range b.opts.Indicators {
		q := model.MacroQuote{Key: ind.Key, Label: ind.Label, Symbol: ind.Symbol}
		series, err := provider.Fetch(ctx, ind.Symbol, now.Add(-macroWindow), now)
		switch {
		case err != nil:
			b.logger.Warn().Err(err).Str("symbol", ind.Symbol).Msg("macro quote unavailable")
		case series.Len() < 2:
			b.logger.Warn().Str("symbol", ind.Symbol).Int("bars", series.Len()).Msg("not enough sessions for a change")
		default:
			n := series.Len()
			q.Last, q.Previous, q.Available = series.Bars[n-1].Close, series.Bars[n-2].Close, true
			available++
		}
		quotes = append(quotes, q)
	}
	if available == 0 {
		return nil, ErrNoMacroData
	}
	r := ScoreRegime(quotes, b.opts.Indicators)
	r.AsOf = now
	b.logger.Info().Int("score", r.Score).Str("verdict", string(r.Verdict)).Msg("market regime scored")
	return r, nil
}

// TopPicks ranks the universe by institutional and foreign net buying.
// Tickers whose flow or price data cannot be fetched are skipped.
func (b *Briefer) TopPicks(ctx context.Context) ([]model.Pick, error) {
	cands := make([]model.Pick, 0, len(b.opts.Universe))
	for _, e := range b.opts.Universe {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		flow, err := b.flows.Flow(ctx, e.Ticker)
		if err != nil {
			b.logger.Warn().Err(err).Str("ticker", e.Ticker).Msg("investor flow unavailable, skipping")
			continue
		}
		a := b.collector.Analyze(ctx, e.Name, e.Ticker, nil)
		if !a.Available() {
			continue
		}
		cands = append(cands, model.Pick{
			Name:   a.Name,
			Ticker: a.Ticker,
			Flow:   *flow,
			RSI:    a.Snapshot.RSI,
			Close:  a.Snapshot.Close,
			Result: a.Result,
		})
	}
	picks := RankPicks(cands, b.opts.RSICeiling, b.opts.TopN)
	b.logger.Info().Int("candidates", len(cands)).Int("picks", len(picks)).Msg("top picks ranked")
	return picks, nil
}
