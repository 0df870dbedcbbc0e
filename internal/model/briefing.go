package model

import "time"

// MacroQuote is a day-over-day comparison of one macro indicator.
type MacroQuote struct {
	Key       string  `json:"key"`
	Label     string  `json:"label"`
	Symbol    string  `json:"symbol"`
	Last      float64 `json:"last"`
	Previous  float64 `json:"previous"`
	Available bool    `json:"available"`
}

// ChangePct returns the day-over-day change in percent.
func (q MacroQuote) ChangePct() float64 {
	if !q.Available || q.Previous == 0 {
		return 0
	}
	return (q.Last - q.Previous) / q.Previous * 100
}

// Verdict is the three-way market regime.
type Verdict string

const (
	VerdictRiskOn  Verdict = "RISK_ON"
	VerdictNeutral Verdict = "NEUTRAL"
	VerdictRiskOff Verdict = "RISK_OFF"
)

// RegimeReport is the morning market-regime briefing content.
type RegimeReport struct {
	Quotes  []MacroQuote `json:"quotes"`
	Votes   []Vote       `json:"votes"`
	Score   int          `json:"score"`
	Verdict Verdict      `json:"verdict"`
	AsOf    time.Time    `json:"as_of"`
}

// InvestorFlow is the latest foreign and institutional net buying of a ticker, in shares.
type InvestorFlow struct {
	Ticker        string    `json:"ticker"`
	Date          time.Time `json:"date"`
	Foreign       int64     `json:"foreign"`
	Institutional int64     `json:"institutional"`
}

// Net returns combined foreign and institutional net buying.
func (f InvestorFlow) Net() int64 { return f.Foreign + f.Institutional }

// Pick is a top-picks candidate.
type Pick struct {
	Name   string       `json:"name"`
	Ticker string       `json:"ticker"`
	Flow   InvestorFlow `json:"flow"`
	RSI    Reading      `json:"rsi"`
	Close  float64      `json:"close"`
	Result *ScoreResult `json:"result,omitempty"`
}
