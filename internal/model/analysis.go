package model

// Holding is the optional ownership context of an analysis.
type Holding struct {
	BuyPrice float64 `json:"buy_price"`
}

// Analysis bundles everything a dashboard card needs for one ticker.
type Analysis struct {
	Name     string             `json:"name"`
	Ticker   string             `json:"ticker"`
	Series   *PriceSeries       `json:"-"`
	Snapshot *IndicatorSnapshot `json:"snapshot,omitempty"`
	Chart    *IndicatorSeries   `json:"chart,omitempty"`
	Result   *ScoreResult       `json:"result,omitempty"`
	Holding  *Holding           `json:"holding,omitempty"`
}

// Available reports whether the analysis has data to show.
func (a *Analysis) Available() bool { return a != nil && a.Result != nil }
