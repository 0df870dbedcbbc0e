package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"StockPilot/internal/briefing"
	"StockPilot/internal/model"
)

// fakeTelegram answers getMe and records sendMessage form values.
type fakeTelegram struct {
	mu       sync.Mutex
	sent     []map[string]string
	failures int // sendMessage calls to fail before succeeding
	failAt   int // 1-based sendMessage call that fails once
	calls    int
}

func (f *fakeTelegram) handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"pilot","username":"pilot_bot"}}`)
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls++
		if f.failures > 0 || f.calls == f.failAt {
			if f.failures > 0 {
				f.failures--
			}
			fmt.Fprint(w, `{"ok":false,"error_code":500,"description":"Internal Server Error"}`)
			return
		}
		f.sent = append(f.sent, map[string]string{
			"chat_id":    r.PostForm.Get("chat_id"),
			"text":       r.PostForm.Get("text"),
			"parse_mode": r.PostForm.Get("parse_mode"),
		})
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`)
	default:
		http.NotFound(w, r)
	}
}

func newFake(t *testing.T, chatID string) (*fakeTelegram, *TelegramNotifier) {
	return newFakeWith(t, TelegramOptions{ChatID: chatID})
}

func newFakeWith(t *testing.T, opts TelegramOptions) (*fakeTelegram, *TelegramNotifier) {
	t.Helper()
	fake := &fakeTelegram{}
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	t.Cleanup(srv.Close)
	opts.Token = "TOKEN"
	opts.Endpoint = srv.URL + "/bot%s/%s"
	n, err := NewTelegramNotifier(opts)
	if err != nil {
		t.Fatal(err)
	}
	return fake, n
}

func TestTelegramNotifier_Send(t *testing.T) {
	fake, n := newFake(t, "42")
	if err := n.Send(context.Background(), "<b>hello</b>"); err != nil {
		t.Fatal(err)
	}
	if len(fake.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(fake.sent))
	}
	got := fake.sent[0]
	if got["chat_id"] != "42" || got["text"] != "<b>hello</b>" || got["parse_mode"] != "HTML" {
		t.Errorf("unexpected form %v", got)
	}
}

func TestTelegramNotifier_Channel(t *testing.T) {
	fake, n := newFake(t, "@stockpilot")
	if err := n.Send(context.Background(), "hi"); err != nil {
		t.Fatal(err)
	}
	if fake.sent[0]["chat_id"] != "@stockpilot" {
		t.Errorf("chat_id = %q", fake.sent[0]["chat_id"])
	}
}

func TestTelegramNotifier_NoChat(t *testing.T) {
	_, n := newFake(t, "")
	if err := n.SendWithRetry(context.Background(), "hi", 3); !errors.Is(err, ErrNoChat) {
		t.Errorf("expected ErrNoChat, got %v", err)
	}
}

func TestTelegramNotifier_SendWithRetry(t *testing.T) {
	fake, n := newFake(t, "42")
	fake.failures = 1
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := n.SendWithRetry(ctx, "retry me", 2); err != nil {
		t.Fatal(err)
	}
	if len(fake.sent) != 1 || fake.sent[0]["text"] != "retry me" {
		t.Errorf("unexpected sends %v", fake.sent)
	}
}

func TestTelegramNotifier_SendWithRetryResendsOnlyFailedPart(t *testing.T) {
	fake, n := newFake(t, "42")
	fake.failAt = 2
	first, second := strings.Repeat("a", 3000), strings.Repeat("b", 3000)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := n.SendWithRetry(ctx, first+"\n"+second, 2); err != nil {
		t.Fatal(err)
	}
	if len(fake.sent) != 2 || fake.sent[0]["text"] != first || fake.sent[1]["text"] != second {
		t.Errorf("expected each part once, got %d sends", len(fake.sent))
	}
}

func chatUpdate(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Text: text}}
}

func TestHandleUpdate_Authorization(t *testing.T) {
	tests := []struct {
		name        string
		opts        TelegramOptions
		chat        int64
		text        string
		wantHandled bool
		wantReply   string
	}{
		{"configured chat may buy", TelegramOptions{ChatID: "42"}, 42, "/buy 005930 70000", true, "ok"},
		{"allow-listed chat may sell", TelegramOptions{ChatID: "@stockpilot", AllowedChats: []int64{7}}, 7, "/sell 005930", true, "ok"},
		{"other chat ignored", TelegramOptions{ChatID: "42"}, 99, "/score 005930", false, ""},
		{"other chat cannot buy", TelegramOptions{ChatID: "42"}, 99, "/buy 005930 70000", false, ""},
		{"no allow-list refuses buy", TelegramOptions{ChatID: "@stockpilot"}, 99, "/buy@pilot_bot 005930 70000", false, "allowed chat"},
		{"no allow-list refuses unwatch", TelegramOptions{}, 99, "/UNWATCH 005930", false, "allowed chat"},
		{"no allow-list may read", TelegramOptions{ChatID: "@stockpilot"}, 99, "/score 005930", true, "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake, n := newFakeWith(t, tt.opts)
			handled := false
			handler := func(ctx context.Context, text string) string {
				handled = true
				return "ok"
			}
			n.handleUpdate(context.Background(), chatUpdate(tt.chat, tt.text), handler)
			if handled != tt.wantHandled {
				t.Errorf("handled = %v, want %v", handled, tt.wantHandled)
			}
			if tt.wantReply == "" {
				if len(fake.sent) != 0 {
					t.Errorf("expected no reply, got %v", fake.sent)
				}
				return
			}
			if len(fake.sent) != 1 || !strings.Contains(fake.sent[0]["text"], tt.wantReply) {
				t.Fatalf("expected reply containing %q, got %v", tt.wantReply, fake.sent)
			}
			if fake.sent[0]["chat_id"] != strconv.FormatInt(tt.chat, 10) {
				t.Errorf("reply went to %q", fake.sent[0]["chat_id"])
			}
		})
	}
}

func TestCommandName(t *testing.T) {
	tests := map[string]string{
		"/buy 005930 70000": "/buy",
		"  /SELL@pilot_bot": "/sell",
		"/watch":            "/watch",
		"hello there":       "hello",
	}
	for in, want := range tests {
		if got := commandName(in); got != want {
			t.Errorf("commandName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSplitMessage(t *testing.T) {
	text := strings.Repeat("line of text\n", 10)
	parts := splitMessage(text, 30)
	for _, p := range parts {
		if len(p) > 30 {
			t.Errorf("part longer than limit: %d", len(p))
		}
	}
	if strings.Join(parts, "\n") != text {
		t.Errorf("split lost content: %q", parts)
	}
	if got := splitMessage("short", 30); len(got) != 1 || got[0] != "short" {
		t.Errorf("short message split: %q", got)
	}
	for _, p := range splitMessage(strings.Repeat("가", 20), 10) {
		if !strings.HasPrefix(p, "가") {
			t.Errorf("multibyte rune cut: %q", p)
		}
	}
}

func TestSplitMessage_KeepsMarkupWhole(t *testing.T) {
	text := strings.Repeat("ab <b>bold</b> &lt; ", 6)
	parts := splitMessage(text, 16)
	if strings.Join(parts, "") != text {
		t.Fatalf("split lost content: %q", parts)
	}
	for _, p := range parts {
		if len(p) > 16 {
			t.Errorf("part longer than limit: %q", p)
		}
		if strings.Count(p, "<b>") != strings.Count(p, "</b>") {
			t.Errorf("unbalanced bold in %q", p)
		}
		if strings.Count(p, "&") != strings.Count(p, ";") {
			t.Errorf("entity cut in %q", p)
		}
	}
}

func sampleAnalysis() *model.Analysis {
	return &model.Analysis{
		Name:   "Samsung <Elec>",
		Ticker: "005930",
		Snapshot: &model.IndicatorSnapshot{
			Date:   time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC),
			Close:  73000,
			Change: model.Available(500),
			RSI:    model.Available(41),
			MA20:   model.Available(72000),
		},
		Result: &model.ScoreResult{
			Score: 61, Action: model.ActionBuy, BuyPrice: 72000, TargetPrice: 79200, StopPrice: 68400,
			CycleText: "Standard plan: buy near the 20-day line", Progress: 42, WinRate: "insufficient data",
			Votes: []model.Vote{{Name: "RSI", Weight: 10, Commentary: "RSI=41"}},
		},
	}
}

func TestFormatScoreCard(t *testing.T) {
	msg := FormatScoreCard(sampleAnalysis())
	for _, want := range []string{
		"Samsung &lt;Elec&gt;", "(005930)", "73,000", "(+500)", "<b>61</b>/100",
		"Buy 72,000 | Target 79,200 | Stop 68,400", "MA60 n/a", "RSI 41", "insufficient data",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("score card missing %q:\n%s", want, msg)
		}
	}

	odd := sampleAnalysis()
	odd.Ticker = "A<B&C"
	if msg := FormatScoreCard(odd); !strings.Contains(msg, "(A&lt;B&amp;C)") || strings.Contains(msg, "A<B") {
		t.Errorf("ticker not escaped:\n%s", msg)
	}

	empty := FormatScoreCard(&model.Analysis{Name: "X", Ticker: "000001"})
	if !strings.Contains(empty, "no price data") {
		t.Errorf("unexpected empty card %q", empty)
	}
}

func TestFormatBook(t *testing.T) {
	b := model.NewBook()
	b.Watchlist["b"] = model.WatchlistEntry{Name: "b", Ticker: "000002"}
	b.Watchlist["a"] = model.WatchlistEntry{Name: "a", Ticker: "000001"}
	msg := FormatBook(b)
	if strings.Index(msg, "000001") > strings.Index(msg, "000002") {
		t.Error("watchlist should be sorted by name")
	}
	if !strings.Contains(msg, "(empty)") {
		t.Error("empty portfolio should be marked")
	}
}

func TestFormatBriefing(t *testing.T) {
	at := time.Date(2024, 3, 6, 8, 30, 0, 0, briefing.KST)
	morning := FormatBriefing(&briefing.Briefing{Kind: briefing.KindMorning, At: at, Regime: &model.RegimeReport{
		AsOf:    at,
		Quotes:  []model.MacroQuote{{Label: "KOSPI", Previous: 2600, Last: 2626, Available: true}, {Label: "VIX"}},
		Votes:   []model.Vote{{Name: "KOSPI", Direction: 1, Weight: 1}, {Name: "VIX", Weight: 1}},
		Score:   1,
		Verdict: model.VerdictNeutral,
	}})
	for _, want := range []string{"Morning briefing", "2024-03-06 08:30", "KOSPI: 2626.00 (+1.00%) +1", "VIX: n/a", "Neutral"} {
		if !strings.Contains(morning, want) {
			t.Errorf("morning briefing missing %q:\n%s", want, morning)
		}
	}

	afternoon := FormatBriefing(&briefing.Briefing{Kind: briefing.KindAfternoon, At: at, Picks: []model.Pick{{
		Name: "Samsung", Ticker: "005930", Close: 73000,
		Flow: model.InvestorFlow{Foreign: 120000, Institutional: -3000}, RSI: model.Available(45),
	}}})
	for _, want := range []string{"top picks", "Foreign +120,000", "Institution -3,000", "RSI 45"} {
		if !strings.Contains(afternoon, want) {
			t.Errorf("afternoon briefing missing %q:\n%s", want, afternoon)
		}
	}
	if FormatBriefing(&briefing.Briefing{}) != "" {
		t.Error("unknown kind should format empty")
	}
}
