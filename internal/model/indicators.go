package model

import (
	"encoding/json"
	"time"
)

// Reading is an indicator value that may be unavailable because the
// history is too short. An unavailable reading is never a real zero.
type Reading struct {
	Value float64
	Ready bool
}

// Available wraps a computed value.
func Available(v float64) Reading { return Reading{Value: v, Ready: true} }

// Unavailable is the reading for insufficient history.
var Unavailable = Reading{}

// MarshalJSON encodes unavailable readings as null.
func (r Reading) MarshalJSON() ([]byte, error) {
	if !r.Ready {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// UnmarshalJSON decodes null as unavailable.
func (r *Reading) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Unavailable
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Available(v)
	return nil
}

// IndicatorSnapshot is the indicator set for the last bar of a series.
type IndicatorSnapshot struct {
	Date        time.Time `json:"date"`
	Close       float64   `json:"close"`
	Change      Reading   `json:"change"` // close minus previous close
	RSI         Reading   `json:"rsi"`
	MACD        Reading   `json:"macd"`
	MACDSignal  Reading   `json:"macd_signal"`
	MA5         Reading   `json:"ma5"`
	MA20        Reading   `json:"ma20"`
	MA60        Reading   `json:"ma60"`
	MA120       Reading   `json:"ma120"`
	MA240       Reading   `json:"ma240"`
	BBUpper     Reading   `json:"bb_upper"`
	BBMiddle    Reading   `json:"bb_middle"`
	BBLower     Reading   `json:"bb_lower"`
	StochK      Reading   `json:"stoch_k"`
	StochD      Reading   `json:"stoch_d"`
	VolumeRatio Reading   `json:"volume_ratio"`
}

// MovingAverages returns the MA readings keyed by window, shortest first.
func (s *IndicatorSnapshot) MovingAverages() []MAReading {
	return []MAReading{
		{Window: 5, Reading: s.MA5},
		{Window: 20, Reading: s.MA20},
		{Window: 60, Reading: s.MA60},
		{Window: 120, Reading: s.MA120},
		{Window: 240, Reading: s.MA240},
	}
}

// MAReading pairs a moving-average window with its value.
type MAReading struct {
	Window int
	Reading
}

// IndicatorSeries holds full-length indicator vectors aligned with the bars,
// for charting.
type IndicatorSeries struct {
	Dates       []time.Time `json:"dates"`
	Close       []float64   `json:"close"`
	Volume      []float64   `json:"volume"`
	RSI         []Reading   `json:"rsi"`
	MACD        []Reading   `json:"macd"`
	MACDSignal  []Reading   `json:"macd_signal"`
	MA5         []Reading   `json:"ma5"`
	MA20        []Reading   `json:"ma20"`
	MA60        []Reading   `json:"ma60"`
	MA120       []Reading   `json:"ma120"`
	MA240       []Reading   `json:"ma240"`
	BBUpper     []Reading   `json:"bb_upper"`
	BBMiddle    []Reading   `json:"bb_middle"`
	BBLower     []Reading   `json:"bb_lower"`
	StochK      []Reading   `json:"stoch_k"`
	StochD      []Reading   `json:"stoch_d"`
	VolumeRatio []Reading   `json:"volume_ratio"`
}
