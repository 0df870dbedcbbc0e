package calculator

import (
	"math"

	"StockPilot/internal/model"
)

// BollingerSeries returns upper, middle and lower bands: SMA(period) ± k standard
// deviations. The deviation is the sample standard deviation (n-1), matching the
// rolling std of common dataframe libraries.
func BollingerSeries(closes []float64, period int, k float64) (upper, middle, lower []model.Reading, err error) {
	if period < 2 {
		return nil, nil, nil, ErrInvalidPeriod
	}
	middle, err = SMASeries(closes, period)
	if err != nil {
		return nil, nil, nil, err
	}
	upper = make([]model.Reading, len(closes))
	lower = make([]model.Reading, len(closes))
	for i := period - 1; i < len(closes); i++ {
		m := middle[i].Value
		var variance float64
		for _, c := range closes[i-period+1 : i+1] {
			variance += (c - m) * (c - m)
		}
		sd := math.Sqrt(variance / float64(period-1))
		upper[i] = model.Available(m + k*sd)
		lower[i] = model.Available(m - k*sd)
	}
	return upper, middle, lower, nil
}
