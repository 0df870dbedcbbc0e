package briefing

import (
	"fmt"

	"StockPilot/internal/model"
)

// Indicator is one macro input of the market-regime vote. A rise beyond
// Threshold percent votes bullish, a fall beyond it bearish; Inverse flips
// the direction for risk gauges such as VIX.
type Indicator struct {
	Key       string  `yaml:"key"`
	Label     string  `yaml:"label"`
	Symbol    string  `yaml:"symbol"`
	Threshold float64 `yaml:"threshold"`
	Inverse   bool    `yaml:"inverse"`
}

// DefaultIndicators are KOSPI, USD/KRW, VIX and the US 10-year yield.
func DefaultIndicators() []Indicator {
	return []Indicator{
		{Key: "kospi", Label: "KOSPI", Symbol: "^KS11", Threshold: 0.5},
		{Key: "usdkrw", Label: "USD/KRW", Symbol: "KRW=X", Threshold: 0.5, Inverse: true},
		{Key: "vix", Label: "VIX", Symbol: "^VIX", Threshold: 5, Inverse: true},
		{Key: "us10y", Label: "US 10Y", Symbol: "^TNX", Threshold: 2, Inverse: true},
	}
}

// Regime score bounds for a non-neutral verdict.
const (
	RiskOnScore  = 2
	RiskOffScore = -2
)

// VoteMacro scores one quote against its indicator.
func VoteMacro(q model.MacroQuote, ind Indicator) model.Vote {
	v := model.Vote{Name: ind.Label, Weight: 1}
	if !q.Available {
		v.Commentary = "unavailable"
		return v
	}
	chg := q.ChangePct()
	switch {
	case chg >= ind.Threshold:
		v.Direction = 1
	case chg <= -ind.Threshold:
		v.Direction = -1
	}
	if ind.Inverse {
		v.Direction = -v.Direction
	}
	v.Commentary = fmt.Sprintf("%+.2f%%", chg)
	return v
}

// ScoreRegime combines the quotes into a verdict. Quotes are matched to
// indicators by Key; unmatched quotes are ignored.
func ScoreRegime(quotes []model.MacroQuote, inds []Indicator) *model.RegimeReport {
	byKey := make(map[string]Indicator, len(inds))
	for _, ind := range inds {
		byKey[ind.Key] = ind
	}
	r := &model.RegimeReport{Quotes: quotes, Verdict: model.VerdictNeutral}
	for _, q := range quotes {
		ind, ok := byKey[q.Key]
		if !ok {
			continue
		}
		v := VoteMacro(q, ind)
		r.Votes = append(r.Votes, v)
		r.Score += v.Direction
	}
	switch {
	case r.Score >= RiskOnScore:
		r.Verdict = model.VerdictRiskOn
	case r.Score <= RiskOffScore:
		r.Verdict = model.VerdictRiskOff
	}
	return r
}
