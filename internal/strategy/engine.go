package strategy

import (
	"errors"
	"fmt"
	"math"

	"StockPilot/internal/model"
)

// ErrInvalidSnapshot is returned for a missing snapshot or a non-positive close.
var ErrInvalidSnapshot = errors.New("invalid indicator snapshot")

const insufficientData = "insufficient data"

// Options is the optional context of an evaluation.
type Options struct {
	Holding *model.Holding
	WinRate float64 // backtest win rate in percent, passed through; 0 means unknown
}

// Engine scores indicator snapshots under a Policy.
type Engine struct {
	policy Policy
}

// NewEngine validates the policy and returns an Engine.
func NewEngine(p Policy) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("strategy policy: %w", err)
	}
	return &Engine{policy: p}, nil
}

var defaultEngine = &Engine{policy: DefaultPolicy()}

// Evaluate scores a snapshot with the default policy.
func Evaluate(s *model.IndicatorSnapshot, opts Options) (*model.ScoreResult, error) {
	return defaultEngine.Evaluate(s, opts)
}

// Policy returns the engine's rule set.
func (e *Engine) Policy() Policy { return e.policy }

// Evaluate computes the score, the action and the price plan.
func (e *Engine) Evaluate(s *model.IndicatorSnapshot, opts Options) (*model.ScoreResult, error) {
	if s == nil || s.Close <= 0 || math.IsNaN(s.Close) {
		return nil, ErrInvalidSnapshot
	}

	votes := e.Votes(s)
	score := e.Score(votes)

	r := &model.ScoreResult{
		Score:   score,
		Action:  e.classify(s, score),
		Votes:   votes,
		WinRate: winRateLabel(opts.WinRate),
	}
	applyPlan(r, e.BuildPlan(s, opts.Holding))
	r.Progress = Progress(s.Close, r.StopPrice, r.TargetPrice)
	return r, nil
}

// Votes returns every factor vote for the snapshot.
func (e *Engine) Votes(s *model.IndicatorSnapshot) []model.Vote {
	votes := []model.Vote{e.scoreRSI(s), e.scoreMACD(s), e.scoreBand(s)}
	votes = append(votes, e.scoreMAs(s)...)
	return append(votes, e.scoreVolume(s))
}

// Score maps votes to 0..100 around a neutral 50, scaled by the total weight
// of all factors. Weights are non-negative, so turning any vote more bullish
// never lowers the score.
func (e *Engine) Score(votes []model.Vote) int {
	var sum, total float64
	for _, v := range votes {
		sum += v.Points()
		total += v.Weight
	}
	score := 50.0
	if total > 0 {
		score = 50 + sum/total*50
	}
	return int(math.Round(math.Max(0, math.Min(100, score))))
}

// classify applies the action rules top-down; the first match wins.
func (e *Engine) classify(s *model.IndicatorSnapshot, score int) model.Action {
	switch {
	case s.BBLower.Ready && s.Close <= s.BBLower.Value:
		return model.ActionStrongBuy
	case s.BBUpper.Ready && s.Close >= s.BBUpper.Value:
		return model.ActionSell
	case score >= e.policy.BuyScore:
		return model.ActionBuy
	case score >= e.policy.HoldScore:
		return model.ActionHold
	}
	return model.ActionWatch
}

func winRateLabel(rate float64) string {
	if rate <= 0 || math.IsNaN(rate) {
		return insufficientData
	}
	return fmt.Sprintf("%.1f%%", rate)
}
