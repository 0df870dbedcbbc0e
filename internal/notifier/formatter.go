package notifier

import (
	"fmt"
	"html"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"StockPilot/internal/briefing"
	"StockPilot/internal/model"
)

var actionIcon = map[model.Action]string{
	model.ActionStrongBuy: "🔥",
	model.ActionBuy:       "🟢",
	model.ActionHold:      "⚪",
	model.ActionWatch:     "🟡",
	model.ActionSell:      "🔴",
}

var verdictText = map[model.Verdict]string{
	model.VerdictRiskOn:  "🟢 Risk-On: conditions favor buying",
	model.VerdictNeutral: "⚪ Neutral: stay selective",
	model.VerdictRiskOff: "🔴 Risk-Off: protect cash",
}

func won(v int64) string { return humanize.Comma(v) }

func price(v float64) string { return humanize.Comma(int64(math.Round(v))) }

func reading(r model.Reading, format string) string {
	if !r.Ready {
		return "n/a"
	}
	return fmt.Sprintf(format, r.Value)
}

// progressBar renders pct in ten cells.
func progressBar(pct float64) string {
	filled := int(pct/10 + 0.5)
	if filled > 10 {
		filled = 10
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
}

// FormatScoreCard formats one ticker's analysis into a Telegram message.
func FormatScoreCard(a *model.Analysis) string {
	name := html.EscapeString(a.Name)
	if !a.Available() {
		return fmt.Sprintf("⚠️ <b>%s</b> (%s): no price data available", name, html.EscapeString(a.Ticker))
	}
	s, r := a.Snapshot, a.Result
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> (%s) | %s\n\n", name, html.EscapeString(a.Ticker), s.Date.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Price: %s", price(s.Close)))
	if s.Change.Ready {
		b.WriteString(fmt.Sprintf(" (%+.0f)", s.Change.Value))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Score: <b>%d</b>/100 %s %s\n\n", r.Score, actionIcon[r.Action], r.Action.Label()))

	b.WriteString(fmt.Sprintf("RSI %s | Stoch %s/%s | Vol x%s\n",
		reading(s.RSI, "%.0f"), reading(s.StochK, "%.0f"), reading(s.StochD, "%.0f"), reading(s.VolumeRatio, "%.2f")))
	b.WriteString(fmt.Sprintf("MACD %s / signal %s\n", reading(s.MACD, "%.1f"), reading(s.MACDSignal, "%.1f")))
	b.WriteString(fmt.Sprintf("Bollinger %s ~ %s\n", reading(s.BBLower, "%.0f"), reading(s.BBUpper, "%.0f")))
	mas := make([]string, 0, 5)
	for _, ma := range s.MovingAverages() {
		mas = append(mas, fmt.Sprintf("MA%d %s", ma.Window, reading(ma.Reading, "%.0f")))
	}
	b.WriteString(strings.Join(mas, " | ") + "\n\n")

	b.WriteString(fmt.Sprintf("🎯 <b>%s</b>\n", r.CycleText))
	b.WriteString(fmt.Sprintf("  Buy %s | Target %s | Stop %s\n", won(r.BuyPrice), won(r.TargetPrice), won(r.StopPrice)))
	b.WriteString(fmt.Sprintf("  Progress %s %.0f%%\n", progressBar(r.Progress), r.Progress))
	if a.Holding != nil {
		b.WriteString(fmt.Sprintf("  Bought at %s (%+.1f%%)\n", price(a.Holding.BuyPrice), (s.Close-a.Holding.BuyPrice)/a.Holding.BuyPrice*100))
	}
	if r.StatusMessage != "" {
		b.WriteString(fmt.Sprintf("\n%s\n", r.StatusMessage))
	}
	b.WriteString(fmt.Sprintf("\nBacktest win rate: %s\n", r.WinRate))

	b.WriteString("\n📈 <b>Factors:</b>\n")
	for _, v := range r.Votes {
		b.WriteString("  " + v.String() + "\n")
	}
	return b.String()
}

// FormatBook formats the watchlist and portfolio.
func FormatBook(book *model.Book) string {
	var b strings.Builder
	b.WriteString("📦 <b>Watchlist</b>\n")
	if len(book.Watchlist) == 0 {
		b.WriteString("  (empty)\n")
	}
	for _, name := range sortedKeys(book.Watchlist) {
		e := book.Watchlist[name]
		b.WriteString(fmt.Sprintf("  %s (%s)\n", html.EscapeString(e.Name), html.EscapeString(e.Ticker)))
	}
	b.WriteString("\n💼 <b>Portfolio</b>\n")
	if len(book.Portfolio) == 0 {
		b.WriteString("  (empty)\n")
	}
	for _, name := range sortedKeys(book.Portfolio) {
		e := book.Portfolio[name]
		b.WriteString(fmt.Sprintf("  %s (%s) @ %s\n", html.EscapeString(e.Name), html.EscapeString(e.Ticker), price(e.BuyPrice)))
	}
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FormatScan formats the scan hits.
func FormatScan(hits []*model.Analysis, universe int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔎 <b>Scan</b> | %d tickers checked\n\n", universe))
	if len(hits) == 0 {
		b.WriteString("No buy candidates right now.")
		return b.String()
	}
	for i, a := range hits {
		r := a.Result
		b.WriteString(fmt.Sprintf("%d. %s <b>%s</b> (%s) score %d, %s\n   Buy %s | Target %s | Stop %s\n",
			i+1, actionIcon[r.Action], html.EscapeString(a.Name), html.EscapeString(a.Ticker), r.Score, r.Action.Label(),
			won(r.BuyPrice), won(r.TargetPrice), won(r.StopPrice)))
	}
	return b.String()
}

// FormatRegime formats the morning market-regime briefing.
func FormatRegime(r *model.RegimeReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🌅 <b>Morning briefing</b> | %s\n\n", r.AsOf.In(briefing.KST).Format("2006-01-02 15:04")))
	dir := make(map[string]int, len(r.Votes))
	for _, v := range r.Votes {
		dir[v.Name] = v.Direction
	}
	for _, q := range r.Quotes {
		if !q.Available {
			b.WriteString(fmt.Sprintf("  %s: n/a\n", q.Label))
			continue
		}
		line := fmt.Sprintf("  %s: %.2f (%+.2f%%)", q.Label, q.Last, q.ChangePct())
		if d := dir[q.Label]; d != 0 {
			line += fmt.Sprintf(" %+d", d)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString(fmt.Sprintf("\nScore %+d: <b>%s</b>\n", r.Score, verdictText[r.Verdict]))
	return b.String()
}

// FormatPicks formats the afternoon top-picks briefing.
func FormatPicks(picks []model.Pick, at time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🌇 <b>Afternoon top picks</b> | %s\n\n", at.In(briefing.KST).Format("2006-01-02 15:04")))
	if len(picks) == 0 {
		b.WriteString("No candidates with institutional buying and RSI in range today.")
		return b.String()
	}
	for i, p := range picks {
		b.WriteString(fmt.Sprintf("%d. <b>%s</b> (%s) %s\n", i+1, html.EscapeString(p.Name), html.EscapeString(p.Ticker), price(p.Close)))
		b.WriteString(fmt.Sprintf("   Foreign %s | Institution %s | RSI %s\n",
			signed(p.Flow.Foreign), signed(p.Flow.Institutional), reading(p.RSI, "%.0f")))
		if p.Result != nil {
			b.WriteString(fmt.Sprintf("   Buy %s | Target %s | Stop %s\n",
				won(p.Result.BuyPrice), won(p.Result.TargetPrice), won(p.Result.StopPrice)))
		}
	}
	return b.String()
}

func signed(v int64) string {
	if v > 0 {
		return "+" + humanize.Comma(v)
	}
	return humanize.Comma(v)
}

// FormatBriefing formats a scheduled briefing of either kind.
func FormatBriefing(br *briefing.Briefing) string {
	switch br.Kind {
	case briefing.KindMorning:
		return FormatRegime(br.Regime)
	case briefing.KindAfternoon:
		return FormatPicks(br.Picks, br.At)
	}
	return ""
}

// FormatHelp lists the chat commands.
func FormatHelp() string {
	return strings.Join([]string{
		"🤖 <b>StockPilot commands</b>",
		"/score &lt;ticker|name&gt; [buy price] - analysis card",
		"/watchlist - analyze every watched ticker",
		"/portfolio - analyze every held position",
		"/watch &lt;name&gt; &lt;ticker&gt; - add to watchlist",
		"/unwatch &lt;name&gt; - remove from watchlist",
		"/buy &lt;name&gt; &lt;ticker&gt; &lt;price&gt; - record a position",
		"/sell &lt;name&gt; - remove a position",
		"/book - show watchlist and portfolio",
		"/scan - find buy candidates in the universe",
		"/briefing [morning|afternoon] - run a briefing now",
		"/help - this message",
	}, "\n")
}
