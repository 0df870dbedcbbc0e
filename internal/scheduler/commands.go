package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"

	"StockPilot/internal/briefing"
	"StockPilot/internal/model"
	"StockPilot/internal/notifier"
	"StockPilot/internal/portfolio"
	"StockPilot/internal/recorder"
)

const notPersisted = "\n⚠️ Storage unavailable, the change is kept in memory only."

// HandleCommand processes a chat command and returns the reply text.
func (s *Scheduler) HandleCommand(ctx context.Context, text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	cmd := strings.ToLower(fields[0])
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	args := fields[1:]
	s.Metrics.ObserveCommand(cmd)
	s.logger.Info().Str("command", cmd).Int("args", len(args)).Msg("command received")

	switch cmd {
	case "/score":
		return s.cmdScore(ctx, args)
	case "/watchlist":
		return s.cmdWatchlist(ctx)
	case "/portfolio":
		return s.cmdPortfolio(ctx)
	case "/watch":
		return s.cmdWatch(ctx, args)
	case "/unwatch":
		return s.cmdUnwatch(ctx, args)
	case "/buy":
		return s.cmdBuy(ctx, args)
	case "/sell":
		return s.cmdSell(ctx, args)
	case "/book":
		return notifier.FormatBook(s.Portfolio.Book())
	case "/scan":
		return s.cmdScan(ctx)
	case "/briefing":
		return s.cmdBriefing(ctx, args)
	default:
		return notifier.FormatHelp()
	}
}

// resolve maps a watchlist, portfolio or universe name to its ticker.
// Anything else is taken as a ticker symbol.
func (s *Scheduler) resolve(arg string) (name, ticker string) {
	book := s.Portfolio.Book()
	if p, ok := book.Portfolio[arg]; ok {
		return p.Name, p.Ticker
	}
	if w, ok := book.Watchlist[arg]; ok {
		return w.Name, w.Ticker
	}
	for _, u := range s.Universe {
		if strings.EqualFold(u.Name, arg) {
			return u.Name, u.Ticker
		}
	}
	t := model.NormalizeTicker(arg)
	return t, t
}

func (s *Scheduler) cmdScore(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return "Usage: /score &lt;ticker|name&gt; [buy price]"
	}
	target := args
	var holding *model.Holding
	if len(args) > 1 {
		if p, err := strconv.ParseFloat(strings.ReplaceAll(args[len(args)-1], ",", ""), 64); err == nil && p > 0 {
			holding = &model.Holding{BuyPrice: p}
			target = args[:len(args)-1]
		}
	}
	name, ticker := s.resolve(strings.Join(target, " "))
	if holding == nil {
		holding = s.Portfolio.Holding(ticker)
	}
	a := s.Collector.Analyze(ctx, name, ticker, holding)
	s.record(recorder.NewRunID(), recorder.SourceCommand, a)
	return notifier.FormatScoreCard(a)
}

func (s *Scheduler) cmdWatchlist(ctx context.Context) string {
	book := s.Portfolio.Book()
	if len(book.Watchlist) == 0 {
		return "Watchlist is empty. Add one with /watch &lt;name&gt; &lt;ticker&gt;"
	}
	run := recorder.NewRunID()
	cards := make([]string, 0, len(book.Watchlist))
	for _, name := range sortedNames(book.Watchlist) {
		w := book.Watchlist[name]
		a := s.Collector.Analyze(ctx, w.Name, w.Ticker, s.Portfolio.Holding(w.Ticker))
		s.record(run, recorder.SourceCommand, a)
		cards = append(cards, notifier.FormatScoreCard(a))
	}
	return strings.Join(cards, "\n\n")
}

func (s *Scheduler) cmdPortfolio(ctx context.Context) string {
	book := s.Portfolio.Book()
	if len(book.Portfolio) == 0 {
		return "Portfolio is empty. Record one with /buy &lt;name&gt; &lt;ticker&gt; &lt;price&gt;"
	}
	run := recorder.NewRunID()
	cards := make([]string, 0, len(book.Portfolio))
	for _, name := range sortedNames(book.Portfolio) {
		p := book.Portfolio[name]
		a := s.Collector.Analyze(ctx, p.Name, p.Ticker, &model.Holding{BuyPrice: p.BuyPrice})
		s.record(run, recorder.SourceCommand, a)
		cards = append(cards, notifier.FormatScoreCard(a))
	}
	return strings.Join(cards, "\n\n")
}

func (s *Scheduler) cmdWatch(ctx context.Context, args []string) string {
	if len(args) < 2 {
		return "Usage: /watch &lt;name&gt; &lt;ticker&gt;"
	}
	name := strings.Join(args[:len(args)-1], " ")
	saved, err := s.Portfolio.Watch(ctx, name, args[len(args)-1])
	if err != nil {
		return "❌ " + html.EscapeString(err.Error())
	}
	return withSaved(fmt.Sprintf("✅ Watching <b>%s</b> (%s)", html.EscapeString(name), html.EscapeString(model.NormalizeTicker(args[len(args)-1]))), saved)
}

func (s *Scheduler) cmdUnwatch(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return "Usage: /unwatch &lt;name&gt;"
	}
	name := strings.Join(args, " ")
	saved, err := s.Portfolio.Unwatch(ctx, name)
	if err != nil {
		return removeError(err, name)
	}
	return withSaved(fmt.Sprintf("🗑 Removed <b>%s</b> from the watchlist", html.EscapeString(name)), saved)
}

func (s *Scheduler) cmdBuy(ctx context.Context, args []string) string {
	if len(args) < 3 {
		return "Usage: /buy &lt;name&gt; &lt;ticker&gt; &lt;price&gt;"
	}
	n := len(args)
	p, err := strconv.ParseFloat(strings.ReplaceAll(args[n-1], ",", ""), 64)
	if err != nil {
		return "❌ Price must be a number"
	}
	name := strings.Join(args[:n-2], " ")
	saved, err := s.Portfolio.Buy(ctx, name, args[n-2], p)
	if err != nil {
		return "❌ " + html.EscapeString(err.Error())
	}
	return withSaved(fmt.Sprintf("✅ Recorded <b>%s</b> (%s) bought at %s",
		html.EscapeString(name), html.EscapeString(model.NormalizeTicker(args[n-2])), strconv.FormatFloat(p, 'f', -1, 64)), saved)
}

func (s *Scheduler) cmdSell(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return "Usage: /sell &lt;name&gt;"
	}
	name := strings.Join(args, " ")
	saved, err := s.Portfolio.Sell(ctx, name)
	if err != nil {
		return removeError(err, name)
	}
	return withSaved(fmt.Sprintf("🗑 Removed <b>%s</b> from the portfolio", html.EscapeString(name)), saved)
}

func (s *Scheduler) cmdScan(ctx context.Context) string {
	hits := s.Collector.Scan(ctx, s.Universe)
	run := recorder.NewRunID()
	for _, a := range hits {
		s.record(run, recorder.SourceScan, a)
	}
	return notifier.FormatScan(hits, len(s.Universe))
}

func (s *Scheduler) cmdBriefing(ctx context.Context, args []string) string {
	now := s.Now()
	kind := briefing.Select(now)
	if len(args) > 0 {
		switch briefing.Kind(strings.ToLower(args[0])) {
		case briefing.KindMorning:
			kind = briefing.KindMorning
		case briefing.KindAfternoon:
			kind = briefing.KindAfternoon
		default:
			return "Usage: /briefing [morning|afternoon]"
		}
	}
	if kind == briefing.KindNone {
		return "No briefing is due now. Use /briefing morning or /briefing afternoon."
	}
	b, err := s.Briefer.RunKind(ctx, kind, now)
	if err != nil {
		s.logger.Error().Err(err).Str("kind", string(kind)).Msg("on-demand briefing failed")
		return fmt.Sprintf("❌ %s briefing failed: %s", kind, html.EscapeString(err.Error()))
	}
	if err := s.Recorder.RecordBriefing(recorder.NewRunID(), b); err != nil {
		s.logger.Error().Err(err).Msg("record briefing")
	}
	return notifier.FormatBriefing(b)
}

func (s *Scheduler) record(run, source string, a *model.Analysis) {
	if err := s.Recorder.RecordAnalysis(run, source, a); err != nil {
		s.logger.Error().Err(err).Str("ticker", a.Ticker).Msg("record analysis")
	}
}

func withSaved(msg string, saved bool) string {
	if saved {
		return msg
	}
	return msg + notPersisted
}

func removeError(err error, name string) string {
	if errors.Is(err, portfolio.ErrNotFound) {
		return fmt.Sprintf("❌ <b>%s</b> is not in the book", html.EscapeString(name))
	}
	return "❌ " + html.EscapeString(err.Error())
}

func sortedNames[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
