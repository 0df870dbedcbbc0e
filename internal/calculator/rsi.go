package calculator

import "StockPilot/internal/model"

// RSISeries computes the RSI over `period` deltas using simple rolling means
// of gains and loss magnitudes (not Wilder smoothing).
// A value needs period+1 bars. A window with no losses is 100; a flat window is 50.
func RSISeries(closes []float64, period int) ([]model.Reading, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	out := make([]model.Reading, len(closes))
	for i := period; i < len(closes); i++ {
		var gain, loss float64
		for j := i - period + 1; j <= i; j++ {
			change := closes[j] - closes[j-1]
			if change > 0 {
				gain += change
			} else {
				loss -= change
			}
		}
		gain /= float64(period)
		loss /= float64(period)
		out[i] = model.Available(rsiFrom(gain, loss))
	}
	return out, nil
}

// CalculateRSI returns the RSI of the last bar.
func CalculateRSI(closes []float64, period int) (model.Reading, error) {
	series, err := RSISeries(closes, period)
	if err != nil {
		return model.Unavailable, err
	}
	return last(series), nil
}

func rsiFrom(avgGain, avgLoss float64) float64 {
	switch {
	case avgLoss == 0 && avgGain == 0:
		return 50
	case avgLoss == 0:
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
