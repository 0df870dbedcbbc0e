package calculator

import "StockPilot/internal/model"

// EMASeries computes an exponential moving average with alpha = 2/(span+1),
// seeded with the first value.
func EMASeries(values []float64, span int) ([]float64, error) {
	if span <= 0 {
		return nil, ErrInvalidPeriod
	}
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out, nil
	}
	alpha := 2 / (float64(span) + 1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out, nil
}

// MACDSeries returns the MACD line (EMA fast - EMA slow) and its signal line
// (EMA of MACD). MACD is available from bar `slow`; the signal line from bar
// slow+signal-1, because it is seeded with the first available MACD value.
func MACDSeries(closes []float64, fast, slow, signal int) (macd, sig []model.Reading, err error) {
	if fast <= 0 || slow <= 0 || signal <= 0 || fast >= slow {
		return nil, nil, ErrInvalidPeriod
	}
	emaFast, err := EMASeries(closes, fast)
	if err != nil {
		return nil, nil, err
	}
	emaSlow, err := EMASeries(closes, slow)
	if err != nil {
		return nil, nil, err
	}

	macd = make([]model.Reading, len(closes))
	sig = make([]model.Reading, len(closes))
	start := slow - 1
	if len(closes) <= start {
		return macd, sig, nil
	}

	line := make([]float64, 0, len(closes)-start)
	for i := start; i < len(closes); i++ {
		v := emaFast[i] - emaSlow[i]
		macd[i] = model.Available(v)
		line = append(line, v)
	}

	signalLine, err := EMASeries(line, signal)
	if err != nil {
		return nil, nil, err
	}
	for j := signal - 1; j < len(signalLine); j++ {
		sig[start+j] = model.Available(signalLine[j])
	}
	return macd, sig, nil
}
