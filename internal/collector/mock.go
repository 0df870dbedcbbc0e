package collector

import (
	"context"
	"sync"
	"time"

	"StockPilot/internal/model"
)

// MockProvider returns controllable fixed data for development and testing.
// It is safe for concurrent use; set the fields before sharing it.
type MockProvider struct {
	Price     float64
	Bars      map[string][]model.OHLCV // per ticker; falls back to generated bars
	Err       error
	Requested []string // read only after concurrent fetches have finished

	mu sync.Mutex
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Fetch(_ context.Context, ticker string, start, end time.Time) (*model.PriceSeries, error) {
	m.mu.Lock()
	m.Requested = append(m.Requested, ticker)
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if bars, ok := m.Bars[ticker]; ok {
		return &model.PriceSeries{Ticker: ticker, Bars: bars, FetchedAt: end}, nil
	}
	days := int(end.Sub(start).Hours()/24) + 1
	return &model.PriceSeries{Ticker: ticker, Bars: generateMockBars(m.Price, days, end), FetchedAt: end}, nil
}

func generateMockBars(basePrice float64, count int, end time.Time) []model.OHLCV {
	if count <= 0 {
		return nil
	}
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   end.AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// MockFlows returns fixed investor flows keyed by ticker.
type MockFlows map[string]model.InvestorFlow

func (m MockFlows) Flow(_ context.Context, ticker string) (*model.InvestorFlow, error) {
	f, ok := m[ticker]
	if !ok {
		return nil, ErrNoFlow
	}
	return &f, nil
}
