package recorder

import (
	"time"

	"github.com/google/uuid"

	"StockPilot/internal/briefing"
	"StockPilot/internal/model"
)

// Sources of a recorded analysis.
const (
	SourceCommand   = "command"
	SourceScan      = "scan"
	SourceDashboard = "dashboard"
	SourceBriefing  = "briefing"
)

// ScoreRecord is one stored analysis outcome.
type ScoreRecord struct {
	RunID  string       `json:"run_id"`
	At     time.Time    `json:"at"`
	Source string       `json:"source"`
	Ticker string       `json:"ticker"`
	Name   string       `json:"name"`
	Close  float64      `json:"close"`
	Score  int          `json:"score"`
	Action model.Action `json:"action"`
	Regime model.Regime `json:"regime"`
	Buy    int64        `json:"buy_price"`
	Target int64        `json:"target_price"`
	Stop   int64        `json:"stop_price"`
}

// Recorder persists analysis and briefing history.
type Recorder interface {
	RecordAnalysis(runID, source string, a *model.Analysis) error
	RecordBriefing(runID string, b *briefing.Briefing) error
	History(ticker string, limit int) ([]ScoreRecord, error)
	Close() error
}

// NewRunID returns a fresh id grouping the records of one run.
func NewRunID() string { return uuid.NewString() }
