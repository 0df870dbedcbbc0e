package strategy

import (
	"fmt"

	"StockPilot/internal/model"
	"StockPilot/internal/tick"
)

// Plan is the price plan of one regime. It is implemented only by
// DefaultPlan, OverdrivePlan and RescuePlan.
type Plan interface {
	Regime() model.Regime
	sealed()
}

// DefaultPlan buys at the entry basis with fixed target and stop multiples.
type DefaultPlan struct {
	Entry  int64
	Target int64
	Stop   int64
	Basis  string
}

// OverdrivePlan applies to holdings far in profit: the target trails a
// rising price and the stop is locked above the buy price.
type OverdrivePlan struct {
	Entry    int64
	Target   int64
	Stop     int64
	Basis    string
	Return   float64
	Trailing bool // target follows the current price instead of the buy price
}

// RescuePlan applies to holdings far in loss: target and stop are rebased on
// the depressed current price for a short-term bounce.
type RescuePlan struct {
	Entry  int64
	Target int64
	Stop   int64
	Basis  string
	Return float64
}

func (DefaultPlan) Regime() model.Regime   { return model.RegimeDefault }
func (OverdrivePlan) Regime() model.Regime { return model.RegimeOverdrive }
func (RescuePlan) Regime() model.Regime    { return model.RegimeRescue }

func (DefaultPlan) sealed()   {}
func (OverdrivePlan) sealed() {}
func (RescuePlan) sealed()    {}

const (
	basisMA20    = "20-day line"
	basisCurrent = "current price"
)

// entryBasis is the default entry: the 20-day line, or the close while the
// 20-day line is not yet available.
func entryBasis(s *model.IndicatorSnapshot) (float64, string) {
	if s.MA20.Ready {
		return s.MA20.Value, basisMA20
	}
	return s.Close, basisCurrent
}

// BuildPlan selects the regime for the snapshot and optional holding.
func (e *Engine) BuildPlan(s *model.IndicatorSnapshot, h *model.Holding) Plan {
	p := e.policy
	base, basis := entryBasis(s)
	def := DefaultPlan{
		Entry:  tick.Round(base),
		Target: tick.Scale(base, p.TargetMultiplier),
		Stop:   tick.Scale(base, p.StopMultiplier),
		Basis:  basis,
	}
	if h == nil || h.BuyPrice <= 0 {
		return def
	}

	price := s.Close
	ret := (price - h.BuyPrice) / h.BuyPrice
	switch {
	case ret >= p.OverdriveTrigger:
		plan := OverdrivePlan{
			Entry:  def.Entry,
			Stop:   tick.ScaleUp(h.BuyPrice, p.OverdriveStopLevel),
			Basis:  def.Basis,
			Return: ret,
		}
		if price > h.BuyPrice*p.OverdriveBreakout {
			plan.Target = tick.Scale(price, p.OverdriveTrail)
			plan.Trailing = true
		} else {
			plan.Target = tick.Scale(h.BuyPrice, p.OverdriveBreakout)
		}
		return plan
	case ret <= p.RescueTrigger:
		return RescuePlan{
			Entry:  def.Entry,
			Target: tick.Scale(price, p.RescueTarget),
			Stop:   tick.Scale(price, p.RescueStopMargin),
			Basis:  def.Basis,
			Return: ret,
		}
	}
	return def
}

// applyPlan copies the plan's levels and labels into the result.
func applyPlan(r *model.ScoreResult, plan Plan) {
	r.Regime = plan.Regime()
	switch p := plan.(type) {
	case DefaultPlan:
		r.BuyPrice, r.TargetPrice, r.StopPrice, r.BuyBasis = p.Entry, p.Target, p.Stop, p.Basis
		r.CycleText = "Standard plan: buy near the " + p.Basis
	case OverdrivePlan:
		r.BuyPrice, r.TargetPrice, r.StopPrice, r.BuyBasis = p.Entry, p.Target, p.Stop, p.Basis
		r.Return = p.Return
		if p.Trailing {
			r.CycleText = "Overdrive: trailing target"
		} else {
			r.CycleText = "Overdrive: raised target"
		}
		r.StatusMessage = fmt.Sprintf("Up %.1f%%. Profit locked with stop at %d, let the winner run.", p.Return*100, p.Stop)
	case RescuePlan:
		r.BuyPrice, r.TargetPrice, r.StopPrice, r.BuyBasis = p.Entry, p.Target, p.Stop, p.Basis
		r.Return = p.Return
		r.CycleText = "Rescue: short-term bounce"
		r.StatusMessage = fmt.Sprintf("Down %.1f%%. Risk-management mode: sell into the bounce at %d, cut below %d.", -p.Return*100, p.Target, p.Stop)
	default:
		panic(fmt.Sprintf("strategy: unknown plan %T", plan))
	}
}

// Progress locates price between stop (0) and target (100).
func Progress(price float64, stop, target int64) float64 {
	if target == stop {
		return 0
	}
	pct := (price - float64(stop)) / float64(target-stop) * 100
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}
