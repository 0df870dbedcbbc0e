package model

import "time"

// OHLCV represents a single daily bar.
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries holds the bars of one ticker in ascending date order.
// Non-trading days are absent, never null-filled.
type PriceSeries struct {
	Ticker    string    `json:"ticker"`
	Bars      []OHLCV   `json:"bars"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Len returns the number of bars.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Empty reports whether the series carries no data.
func (s *PriceSeries) Empty() bool { return s.Len() == 0 }

// Last returns the most recent bar. Callers must check Empty first.
func (s *PriceSeries) Last() OHLCV { return s.Bars[len(s.Bars)-1] }

// Closes extracts close prices.
func (s *PriceSeries) Closes() []float64 {
	out := make([]float64, s.Len())
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Volumes extracts volumes.
func (s *PriceSeries) Volumes() []float64 {
	out := make([]float64, s.Len())
	for i, b := range s.Bars {
		out[i] = b.Volume
	}
	return out
}

// Dates extracts bar timestamps.
func (s *PriceSeries) Dates() []time.Time {
	out := make([]time.Time, s.Len())
	for i, b := range s.Bars {
		out[i] = b.Time
	}
	return out
}
