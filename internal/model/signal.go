package model

import "fmt"

// Action is the discrete recommendation for a ticker.
type Action string

const (
	ActionStrongBuy Action = "STRONG_BUY"
	ActionBuy       Action = "BUY"
	ActionHold      Action = "HOLD"
	ActionWatch     Action = "WATCH"
	ActionSell      Action = "SELL"
)

// Label returns the human-facing text of an action.
func (a Action) Label() string {
	switch a {
	case ActionStrongBuy:
		return "Strong Buy (band breach, buy the dip)"
	case ActionBuy:
		return "Buy"
	case ActionHold:
		return "Hold"
	case ActionWatch:
		return "Watch"
	case ActionSell:
		return "Sell (overheated, consider trimming)"
	default:
		return string(a)
	}
}

// Regime tags which price plan produced the levels.
type Regime string

const (
	RegimeDefault   Regime = "DEFAULT"
	RegimeOverdrive Regime = "OVERDRIVE"
	RegimeRescue    Regime = "RESCUE"
)

// Vote is one factor's contribution to the composite score.
type Vote struct {
	Name       string  `json:"name"`
	Direction  int     `json:"direction"` // -1 bearish, 0 neutral/unscored, +1 bullish
	Weight     float64 `json:"weight"`
	Commentary string  `json:"commentary"`
}

// Points returns the signed score contribution.
func (v Vote) Points() float64 { return float64(v.Direction) * v.Weight }

func (v Vote) String() string {
	return fmt.Sprintf("%s %+.0f (%s)", v.Name, v.Points(), v.Commentary)
}

// ScoreResult is the output of the strategy engine.
type ScoreResult struct {
	Score         int     `json:"score"`
	Action        Action  `json:"action"`
	BuyPrice      int64   `json:"buy_price"`
	TargetPrice   int64   `json:"target_price"`
	StopPrice     int64   `json:"stop_price"`
	BuyBasis      string  `json:"buy_basis"`
	CycleText     string  `json:"cycle_txt"`
	Regime        Regime  `json:"regime"`
	StatusMessage string  `json:"status_message,omitempty"`
	Return        float64 `json:"return,omitempty"` // unrealized return of a holding, 0.12 = +12%
	Progress      float64 `json:"progress"`
	WinRate       string  `json:"win_rate"`
	Votes         []Vote  `json:"votes"`
}
