package recorder

import (
	"StockPilot/internal/briefing"
	"StockPilot/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordAnalysis(_, _ string, _ *model.Analysis) error { return nil }
func (n *NoopRecorder) RecordBriefing(_ string, _ *briefing.Briefing) error { return nil }
func (n *NoopRecorder) History(_ string, _ int) ([]ScoreRecord, error)      { return nil, nil }
func (n *NoopRecorder) Close() error                                        { return nil }
