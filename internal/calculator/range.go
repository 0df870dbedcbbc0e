package calculator

import (
	"math"

	"StockPilot/internal/model"
)

// rollingRange scans the `period` bars ending at index end and returns the
// highest high and lowest low.
func rollingRange(bars []model.OHLCV, end, period int) (high, low float64) {
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := end - period + 1; i <= end; i++ {
		if bars[i].High > high {
			high = bars[i].High
		}
		if bars[i].Low < low {
			low = bars[i].Low
		}
	}
	return high, low
}

// RangePosition returns where price sits within [low, high] as 0..100.
// A zero-width range reports the midpoint.
func RangePosition(price, high, low float64) float64 {
	if high <= low {
		return 50
	}
	pos := (price - low) / (high - low) * 100
	return math.Max(0, math.Min(100, pos))
}
