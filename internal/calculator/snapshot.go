package calculator

import (
	"fmt"

	"StockPilot/internal/model"
)

// Params holds indicator windows.
type Params struct {
	RSIPeriod    int     `yaml:"rsi_period"`
	MACDFast     int     `yaml:"macd_fast"`
	MACDSlow     int     `yaml:"macd_slow"`
	MACDSignal   int     `yaml:"macd_signal"`
	BBPeriod     int     `yaml:"bb_period"`
	BBStdDev     float64 `yaml:"bb_std_dev"`
	StochK       int     `yaml:"stoch_k"`
	StochD       int     `yaml:"stoch_d"`
	VolumePeriod int     `yaml:"volume_period"`
}

// DefaultParams returns the standard windows: RSI 14, MACD 12/26/9,
// Bollinger 20/2, stochastic 14/3, volume 20.
func DefaultParams() Params {
	return Params{
		RSIPeriod:    14,
		MACDFast:     12,
		MACDSlow:     26,
		MACDSignal:   9,
		BBPeriod:     20,
		BBStdDev:     2,
		StochK:       14,
		StochD:       3,
		VolumePeriod: 20,
	}
}

// Validate reports windows that Compute would reject.
func (p Params) Validate() error {
	periods := []struct {
		name  string
		value int
	}{
		{"rsi_period", p.RSIPeriod},
		{"macd_fast", p.MACDFast},
		{"macd_slow", p.MACDSlow},
		{"macd_signal", p.MACDSignal},
		{"stoch_k", p.StochK},
		{"stoch_d", p.StochD},
		{"volume_period", p.VolumePeriod},
	}
	for _, w := range periods {
		if w.value <= 0 {
			return fmt.Errorf("%s: %w", w.name, ErrInvalidPeriod)
		}
	}
	if p.BBPeriod < 2 {
		return fmt.Errorf("bb_period must be at least 2: %w", ErrInvalidPeriod)
	}
	if p.BBStdDev <= 0 {
		return fmt.Errorf("bb_std_dev must be positive")
	}
	if p.MACDFast >= p.MACDSlow {
		return fmt.Errorf("macd_fast must be below macd_slow: %w", ErrInvalidPeriod)
	}
	return nil
}

// Compute returns every indicator as a full series aligned with the bars.
func Compute(series *model.PriceSeries, p Params) (*model.IndicatorSeries, error) {
	if series.Empty() {
		return nil, ErrNoData
	}
	closes := series.Closes()
	volumes := series.Volumes()

	out := &model.IndicatorSeries{
		Dates:  series.Dates(),
		Close:  closes,
		Volume: volumes,
	}

	var err error
	if out.RSI, err = RSISeries(closes, p.RSIPeriod); err != nil {
		return nil, fmt.Errorf("rsi: %w", err)
	}
	if out.MACD, out.MACDSignal, err = MACDSeries(closes, p.MACDFast, p.MACDSlow, p.MACDSignal); err != nil {
		return nil, fmt.Errorf("macd: %w", err)
	}
	if out.BBUpper, out.BBMiddle, out.BBLower, err = BollingerSeries(closes, p.BBPeriod, p.BBStdDev); err != nil {
		return nil, fmt.Errorf("bollinger: %w", err)
	}
	if out.StochK, out.StochD, err = StochasticSeries(series.Bars, p.StochK, p.StochD); err != nil {
		return nil, fmt.Errorf("stochastic: %w", err)
	}
	if out.VolumeRatio, err = VolumeRatioSeries(volumes, p.VolumePeriod); err != nil {
		return nil, fmt.Errorf("volume ratio: %w", err)
	}

	mas := make([][]model.Reading, len(MAWindows))
	for i, w := range MAWindows {
		if mas[i], err = SMASeries(closes, w); err != nil {
			return nil, fmt.Errorf("ma%d: %w", w, err)
		}
	}
	out.MA5, out.MA20, out.MA60, out.MA120, out.MA240 = mas[0], mas[1], mas[2], mas[3], mas[4]

	return out, nil
}

// SnapshotAt extracts the indicator set of bar i from a computed series.
func SnapshotAt(s *model.IndicatorSeries, i int) *model.IndicatorSnapshot {
	snap := &model.IndicatorSnapshot{
		Date:        s.Dates[i],
		Close:       s.Close[i],
		RSI:         s.RSI[i],
		MACD:        s.MACD[i],
		MACDSignal:  s.MACDSignal[i],
		MA5:         s.MA5[i],
		MA20:        s.MA20[i],
		MA60:        s.MA60[i],
		MA120:       s.MA120[i],
		MA240:       s.MA240[i],
		BBUpper:     s.BBUpper[i],
		BBMiddle:    s.BBMiddle[i],
		BBLower:     s.BBLower[i],
		StochK:      s.StochK[i],
		StochD:      s.StochD[i],
		VolumeRatio: s.VolumeRatio[i],
	}
	if i > 0 {
		snap.Change = model.Available(s.Close[i] - s.Close[i-1])
	}
	return snap
}

// Snapshot computes the indicator set of the latest bar.
func Snapshot(series *model.PriceSeries, p Params) (*model.IndicatorSnapshot, error) {
	s, err := Compute(series, p)
	if err != nil {
		return nil, err
	}
	return SnapshotAt(s, len(s.Dates)-1), nil
}
