package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/tidwall/gjson"

	"StockPilot/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// ErrNoBars is returned when the provider answers without usable bars.
var ErrNoBars = errors.New("no bars returned")

// YahooProvider reads daily bars from the Yahoo Finance chart API.
type YahooProvider struct {
	BaseURL string
	Client  *Client
}

// NewYahooProvider creates a provider on client. An empty baseURL uses the public endpoint.
func NewYahooProvider(client *Client, baseURL string) *YahooProvider {
	if baseURL == "" {
		baseURL = yahooBaseURL
	}
	return &YahooProvider{BaseURL: baseURL, Client: client}
}

func (y *YahooProvider) Name() string { return "yahoo" }

// Fetch returns the daily bars of ticker between start and end. A bare KRX
// code unknown on KOSPI is retried as a KOSDAQ listing.
func (y *YahooProvider) Fetch(ctx context.Context, ticker string, start, end time.Time) (*model.PriceSeries, error) {
	var err error
	for _, symbol := range YahooSymbols(ticker) {
		var bars []model.OHLCV
		bars, err = y.fetchSymbol(ctx, symbol, start, end)
		if err == nil {
			return &model.PriceSeries{Ticker: ticker, Bars: bars, FetchedAt: time.Now()}, nil
		}
		if !unknownSymbol(err) {
			break
		}
	}
	return nil, err
}

func (y *YahooProvider) fetchSymbol(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d",
		y.BaseURL, url.PathEscape(symbol), start.Unix(), end.Unix())

	body, err := y.Client.Get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, err)
	}
	bars, err := parseChart(body)
	if err != nil {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, err)
	}
	return bars, nil
}

// unknownSymbol reports whether Yahoo does not list the symbol at all.
func unknownSymbol(err error) bool {
	var se *StatusError
	return errors.Is(err, ErrNoBars) || (errors.As(err, &se) && se.StatusCode == http.StatusNotFound)
}

// parseChart extracts bars from a chart response. Bars whose close is null
// (holidays, halted sessions) are dropped rather than zero-filled. When two
// bars fall on the same exchange-local trading date, such as the live session
// bar next to the last daily bar, only the later one is kept.
func parseChart(body []byte) ([]model.OHLCV, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("invalid chart json")
	}
	root := gjson.ParseBytes(body)
	if desc := root.Get("chart.error.description"); desc.Exists() && desc.String() != "" {
		return nil, fmt.Errorf("api error: %s", desc.String())
	}
	result := root.Get("chart.result.0")
	stamps := result.Get("timestamp").Array()
	if len(stamps) == 0 {
		return nil, ErrNoBars
	}
	quote := result.Get("indicators.quote.0")
	opens := quote.Get("open").Array()
	highs := quote.Get("high").Array()
	lows := quote.Get("low").Array()
	closes := quote.Get("close").Array()
	volumes := quote.Get("volume").Array()

	at := func(vals []gjson.Result, i int) gjson.Result {
		if i < len(vals) {
			return vals[i]
		}
		return gjson.Result{}
	}

	bars := make([]model.OHLCV, 0, len(stamps))
	for i, ts := range stamps {
		c := at(closes, i)
		if c.Type != gjson.Number {
			continue
		}
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts.Int(), 0).UTC(),
			Open:   at(opens, i).Float(),
			High:   at(highs, i).Float(),
			Low:    at(lows, i).Float(),
			Close:  c.Float(),
			Volume: at(volumes, i).Float(),
		})
	}
	if len(bars) == 0 {
		return nil, ErrNoBars
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return dedupeByDate(bars, result.Get("meta.gmtoffset").Int()), nil
}

// dedupeByDate keeps the last bar of each trading date. bars must be sorted.
func dedupeByDate(bars []model.OHLCV, gmtOffset int64) []model.OHLCV {
	offset := time.Duration(gmtOffset) * time.Second
	day := func(t time.Time) string { return t.Add(offset).Format("2006-01-02") }

	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && day(out[n-1].Time) == day(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
