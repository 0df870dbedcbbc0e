package strategy

import (
	"fmt"

	"StockPilot/internal/model"
)

// Every factor votes -1, 0 or +1. An unavailable input always votes 0.

func direction(bullish, bearish bool) int {
	switch {
	case bullish:
		return 1
	case bearish:
		return -1
	}
	return 0
}

// scoreRSI: oversold is bullish (mean reversion), overbought bearish.
func (e *Engine) scoreRSI(s *model.IndicatorSnapshot) model.Vote {
	v := model.Vote{Name: "RSI", Weight: e.policy.RSIWeight}
	if !s.RSI.Ready {
		v.Commentary = "unavailable"
		return v
	}
	v.Direction = direction(s.RSI.Value <= e.policy.RSIOversold, s.RSI.Value >= e.policy.RSIOverbought)
	v.Commentary = fmt.Sprintf("RSI=%.0f", s.RSI.Value)
	return v
}

// scoreMACD votes with the side of the signal line the MACD is on.
func (e *Engine) scoreMACD(s *model.IndicatorSnapshot) model.Vote {
	v := model.Vote{Name: "MACD", Weight: e.policy.MACDWeight}
	if !s.MACD.Ready || !s.MACDSignal.Ready {
		v.Commentary = "unavailable"
		return v
	}
	v.Direction = direction(s.MACD.Value > s.MACDSignal.Value, s.MACD.Value < s.MACDSignal.Value)
	switch v.Direction {
	case 1:
		v.Commentary = "above signal"
	case -1:
		v.Commentary = "below signal"
	default:
		v.Commentary = "on signal"
	}
	return v
}

// scoreBand: a close at or under the lower band is bullish, at or over the upper band bearish.
func (e *Engine) scoreBand(s *model.IndicatorSnapshot) model.Vote {
	v := model.Vote{Name: "Bollinger", Weight: e.policy.BandWeight}
	if !s.BBLower.Ready || !s.BBUpper.Ready {
		v.Commentary = "unavailable"
		return v
	}
	v.Direction = direction(s.Close <= s.BBLower.Value, s.Close >= s.BBUpper.Value)
	switch v.Direction {
	case 1:
		v.Commentary = "lower band breach"
	case -1:
		v.Commentary = "upper band breach"
	default:
		v.Commentary = "inside bands"
	}
	return v
}

// scoreMAs casts one vote per moving average: price above is bullish.
func (e *Engine) scoreMAs(s *model.IndicatorSnapshot) []model.Vote {
	mas := s.MovingAverages()
	votes := make([]model.Vote, 0, len(mas))
	for _, ma := range mas {
		v := model.Vote{Name: fmt.Sprintf("MA%d", ma.Window), Weight: e.policy.MAWeight}
		if !ma.Ready {
			v.Commentary = "unavailable"
		} else {
			v.Direction = direction(s.Close > ma.Value, s.Close < ma.Value)
			v.Commentary = fmt.Sprintf("%.0f", ma.Value)
		}
		votes = append(votes, v)
	}
	return votes
}

// scoreVolume: a volume surge confirms the direction of the day's move.
func (e *Engine) scoreVolume(s *model.IndicatorSnapshot) model.Vote {
	v := model.Vote{Name: "Volume", Weight: e.policy.VolumeWeight}
	if !s.VolumeRatio.Ready || !s.Change.Ready {
		v.Commentary = "unavailable"
		return v
	}
	surge := s.VolumeRatio.Value >= e.policy.VolumeSurge
	v.Direction = direction(surge && s.Change.Value > 0, surge && s.Change.Value < 0)
	v.Commentary = fmt.Sprintf("x%.2f", s.VolumeRatio.Value)
	return v
}
