package briefing

import (
	"sort"

	"StockPilot/internal/model"
)

// DefaultTopN and DefaultRSICeiling are the afternoon pick defaults.
const (
	DefaultTopN       = 3
	DefaultRSICeiling = 70
)

// RankPicks orders candidates by combined foreign and institutional net
// buying, drops overheated ones (RSI above rsiCeiling or unknown) and
// returns at most n. Ties keep their input order.
func RankPicks(cands []model.Pick, rsiCeiling float64, n int) []model.Pick {
	out := make([]model.Pick, 0, len(cands))
	for _, c := range cands {
		if !c.RSI.Ready || c.RSI.Value > rsiCeiling {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Flow.Net() > out[j].Flow.Net() })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
