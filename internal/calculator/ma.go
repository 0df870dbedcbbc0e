package calculator

import (
	"errors"

	"StockPilot/internal/model"
)

var (
	// ErrNoData is returned when a series has no bars at all.
	ErrNoData = errors.New("no price data")
	// ErrInvalidPeriod is returned for non-positive or inconsistent windows.
	ErrInvalidPeriod = errors.New("period must be positive")
)

// MAWindows are the moving-average windows shown on every card.
var MAWindows = []int{5, 20, 60, 120, 240}

// CalculateSMA computes the simple moving average of the last `period` values.
func CalculateSMA(values []float64, period int) (model.Reading, error) {
	if period <= 0 {
		return model.Unavailable, ErrInvalidPeriod
	}
	if len(values) < period {
		return model.Unavailable, nil
	}
	return model.Available(mean(values[len(values)-period:])), nil
}

// SMASeries computes the rolling simple moving average aligned with values.
// Entries before `period` values have accumulated are unavailable.
func SMASeries(values []float64, period int) ([]model.Reading, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	out := make([]model.Reading, len(values))
	for i := period - 1; i < len(values); i++ {
		out[i] = model.Available(mean(values[i-period+1 : i+1]))
	}
	return out, nil
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func last(readings []model.Reading) model.Reading {
	if len(readings) == 0 {
		return model.Unavailable
	}
	return readings[len(readings)-1]
}
