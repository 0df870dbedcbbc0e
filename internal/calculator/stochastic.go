package calculator

import "StockPilot/internal/model"

// StochasticSeries computes %K over kPeriod bars and %D as the SMA of %K over dPeriod.
func StochasticSeries(bars []model.OHLCV, kPeriod, dPeriod int) (k, d []model.Reading, err error) {
	if kPeriod <= 0 || dPeriod <= 0 {
		return nil, nil, ErrInvalidPeriod
	}
	k = make([]model.Reading, len(bars))
	d = make([]model.Reading, len(bars))
	for i := kPeriod - 1; i < len(bars); i++ {
		high, low := rollingRange(bars, i, kPeriod)
		k[i] = model.Available(RangePosition(bars[i].Close, high, low))
	}
	for i := kPeriod + dPeriod - 2; i < len(bars); i++ {
		sum := 0.0
		for j := i - dPeriod + 1; j <= i; j++ {
			sum += k[j].Value
		}
		d[i] = model.Available(sum / float64(dPeriod))
	}
	return k, d, nil
}
