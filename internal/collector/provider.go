package collector

import (
	"context"
	"strings"
	"time"

	"StockPilot/internal/model"
)

// Provider supplies ascending daily bars for a ticker over [start, end].
type Provider interface {
	Fetch(ctx context.Context, ticker string, start, end time.Time) (*model.PriceSeries, error)
	Name() string
}

// FlowSource supplies the latest foreign and institutional net buying for a ticker.
type FlowSource interface {
	Flow(ctx context.Context, ticker string) (*model.InvestorFlow, error)
}

// YahooSymbol maps a KRX code to its KOSPI Yahoo symbol. Index, currency and
// already-suffixed symbols (such as "035720.KQ") pass through unchanged.
func YahooSymbol(ticker string) string {
	return YahooSymbols(ticker)[0]
}

// YahooSymbols lists the Yahoo symbols to try for ticker, in order. A bare
// KRX code is tried on KOSPI first, then KOSDAQ.
func YahooSymbols(ticker string) []string {
	if strings.ContainsAny(ticker, ".^=") {
		return []string{ticker}
	}
	code := model.NormalizeTicker(ticker)
	return []string{code + ".KS", code + ".KQ"}
}
