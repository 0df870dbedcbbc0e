package collector

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"StockPilot/internal/calculator"
	"StockPilot/internal/metrics"
	"StockPilot/internal/model"
	"StockPilot/internal/strategy"
)

// DefaultLookback covers MA240 with room for holidays.
const DefaultLookback = 400 * 24 * time.Hour

// Options configures a Collector.
type Options struct {
	Lookback time.Duration
	Params   calculator.Params
	WinRates map[string]float64 // backtest win rate in percent, by ticker
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

// Collector orchestrates data fetching, indicator computation and scoring.
type Collector struct {
	provider Provider
	engine   *strategy.Engine
	opts     Options
	logger   zerolog.Logger
}

// New creates a Collector. A nil engine scores with the default policy.
func New(provider Provider, engine *strategy.Engine, opts Options) *Collector {
	if engine == nil {
		engine, _ = strategy.NewEngine(strategy.DefaultPolicy())
	}
	if opts.Lookback <= 0 {
		opts.Lookback = DefaultLookback
	}
	if opts.Params == (calculator.Params{}) {
		opts.Params = calculator.DefaultParams()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Collector{
		provider: provider,
		engine:   engine,
		opts:     opts,
		logger:   log.With().Str("component", "collector").Logger(),
	}
}

// Provider returns the underlying series provider.
func (c *Collector) Provider() Provider { return c.provider }

// Series fetches the lookback window of ticker. Provider errors are logged
// and yield an empty series.
func (c *Collector) Series(ctx context.Context, ticker string) *model.PriceSeries {
	ticker = model.NormalizeTicker(ticker)
	end := c.opts.Now()
	series, err := c.provider.Fetch(ctx, ticker, end.Add(-c.opts.Lookback), end)
	c.opts.Metrics.ObserveFetch(c.provider.Name(), err)
	if err != nil {
		c.logger.Warn().Err(err).Str("ticker", ticker).Msg("fetch failed, using empty series")
		return &model.PriceSeries{Ticker: ticker, FetchedAt: end}
	}
	c.logger.Debug().Str("ticker", ticker).Int("bars", series.Len()).Msg("fetched series")
	return series
}

// Analyze builds the full dashboard card of one ticker. The result is nil
// when no data is available.
func (c *Collector) Analyze(ctx context.Context, name, ticker string, h *model.Holding) *model.Analysis {
	start := time.Now()
	ticker = model.NormalizeTicker(ticker)
	a := &model.Analysis{Name: name, Ticker: ticker, Holding: h}
	if a.Name == "" {
		a.Name = ticker
	}

	a.Series = c.Series(ctx, ticker)
	defer func() {
		action := ""
		if a.Result != nil {
			action = string(a.Result.Action)
		}
		c.opts.Metrics.ObserveAnalysis(action, time.Since(start))
	}()
	if a.Series.Empty() {
		return a
	}

	chart, err := calculator.Compute(a.Series, c.opts.Params)
	if err != nil {
		c.logger.Warn().Err(err).Str("ticker", ticker).Msg("indicator computation failed")
		return a
	}
	a.Chart = chart
	a.Snapshot = calculator.SnapshotAt(chart, len(chart.Dates)-1)

	res, err := c.engine.Evaluate(a.Snapshot, strategy.Options{Holding: h, WinRate: c.opts.WinRates[ticker]})
	if err != nil {
		c.logger.Warn().Err(err).Str("ticker", ticker).Msg("scoring failed")
		return a
	}
	a.Result = res
	return a
}

// Scan analyzes the universe one ticker at a time and returns the STRONG_BUY
// and BUY candidates, best score first.
func (c *Collector) Scan(ctx context.Context, universe []model.WatchlistEntry) []*model.Analysis {
	var hits []*model.Analysis
	for _, e := range universe {
		if ctx.Err() != nil {
			c.logger.Warn().Err(ctx.Err()).Msg("scan cancelled")
			break
		}
		a := c.Analyze(ctx, e.Name, e.Ticker, nil)
		if !a.Available() {
			continue
		}
		if a.Result.Action == model.ActionStrongBuy || a.Result.Action == model.ActionBuy {
			hits = append(hits, a)
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Result.Score > hits[j].Result.Score })
	c.logger.Info().Int("universe", len(universe)).Int("hits", len(hits)).Msg("scan complete")
	return hits
}
