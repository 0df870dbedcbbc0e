package strategy

import (
	"errors"
	"fmt"
)

// Policy holds every threshold and multiplier of the scoring and price-plan
// rules. The defaults reproduce the dashboard's documented behavior.
type Policy struct {
	// Composite score weights, normalized by their total.
	RSIWeight    float64 `yaml:"rsi_weight"`
	MACDWeight   float64 `yaml:"macd_weight"`
	BandWeight   float64 `yaml:"band_weight"`
	MAWeight     float64 `yaml:"ma_weight"` // per moving average
	VolumeWeight float64 `yaml:"volume_weight"`

	RSIOversold   float64 `yaml:"rsi_oversold"`
	RSIOverbought float64 `yaml:"rsi_overbought"`
	VolumeSurge   float64 `yaml:"volume_surge"`

	BuyScore  int `yaml:"buy_score"`
	HoldScore int `yaml:"hold_score"`

	TargetMultiplier float64 `yaml:"target_multiplier"`
	StopMultiplier   float64 `yaml:"stop_multiplier"`

	OverdriveTrigger   float64 `yaml:"overdrive_trigger"`    // unrealized return that enters overdrive
	OverdriveBreakout  float64 `yaml:"overdrive_breakout"`   // buy price multiple where the target starts trailing
	OverdriveTrail     float64 `yaml:"overdrive_trail"`      // trailing target multiple of current price
	OverdriveStopLevel float64 `yaml:"overdrive_stop_level"` // locked stop as a multiple of buy price

	RescueTrigger    float64 `yaml:"rescue_trigger"`
	RescueTarget     float64 `yaml:"rescue_target"`
	RescueStopMargin float64 `yaml:"rescue_stop"`
}

// DefaultPolicy returns the standard rule set.
func DefaultPolicy() Policy {
	return Policy{
		RSIWeight:    10,
		MACDWeight:   10,
		BandWeight:   5,
		MAWeight:     4,
		VolumeWeight: 5,

		RSIOversold:   30,
		RSIOverbought: 70,
		VolumeSurge:   1.5,

		BuyScore:  60,
		HoldScore: 40,

		TargetMultiplier: 1.10,
		StopMultiplier:   0.95,

		OverdriveTrigger:   0.10,
		OverdriveBreakout:  1.20,
		OverdriveTrail:     1.10,
		OverdriveStopLevel: 1.05,

		RescueTrigger:    -0.10,
		RescueTarget:     1.15,
		RescueStopMargin: 0.95,
	}
}

// Validate rejects rule sets that would produce nonsensical levels.
func (p Policy) Validate() error {
	for name, w := range map[string]float64{
		"rsi_weight": p.RSIWeight, "macd_weight": p.MACDWeight, "band_weight": p.BandWeight,
		"ma_weight": p.MAWeight, "volume_weight": p.VolumeWeight,
	} {
		if w < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	for name, m := range map[string]float64{
		"target_multiplier": p.TargetMultiplier, "stop_multiplier": p.StopMultiplier,
		"overdrive_breakout": p.OverdriveBreakout, "overdrive_trail": p.OverdriveTrail,
		"overdrive_stop_level": p.OverdriveStopLevel, "rescue_target": p.RescueTarget,
		"rescue_stop": p.RescueStopMargin, "volume_surge": p.VolumeSurge,
	} {
		if m <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	switch {
	case p.RSIOversold >= p.RSIOverbought:
		return errors.New("rsi_oversold must be below rsi_overbought")
	case p.HoldScore > p.BuyScore:
		return errors.New("hold_score must not exceed buy_score")
	case p.StopMultiplier >= p.TargetMultiplier:
		return errors.New("stop_multiplier must be below target_multiplier")
	case p.OverdriveTrigger <= 0:
		return errors.New("overdrive_trigger must be positive")
	case p.RescueTrigger >= 0:
		return errors.New("rescue_trigger must be negative")
	case p.RescueStopMargin >= p.RescueTarget:
		return errors.New("rescue_stop must be below rescue_target")
	}
	return nil
}
