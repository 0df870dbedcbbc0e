package calculator

import "StockPilot/internal/model"

// VolumeRatioSeries divides each volume by the SMA of volume over period,
// the current bar included. A zero average is unavailable.
func VolumeRatioSeries(volumes []float64, period int) ([]model.Reading, error) {
	avg, err := SMASeries(volumes, period)
	if err != nil {
		return nil, err
	}
	out := make([]model.Reading, len(volumes))
	for i, a := range avg {
		if a.Ready && a.Value > 0 {
			out[i] = model.Available(volumes[i] / a.Value)
		}
	}
	return out, nil
}
