package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"StockPilot/internal/model"
)

const chartJSON = `{"chart":{"result":[{"timestamp":[1709683200,1709510400,1709596800],
"indicators":{"quote":[{"open":[102,100,null],"high":[103,101,null],"low":[101,99,null],
"close":[102.5,100.5,null],"volume":[1200,1000,null]}]}}],"error":null}}`

func testClient() *Client {
	return NewClient(ClientOptions{RequestsPerSec: 1000, Burst: 10, MaxElapsed: 2 * time.Second})
}

func TestYahooSymbol(t *testing.T) {
	tests := []struct{ in, want string }{
		{"5930", "005930.KS"},
		{"005930", "005930.KS"},
		{"^KS11", "^KS11"},
		{"KRW=X", "KRW=X"},
		{"035720.KQ", "035720.KQ"},
	}
	for _, tt := range tests {
		if got := YahooSymbol(tt.in); got != tt.want {
			t.Errorf("YahooSymbol(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := YahooSymbols("5930"); len(got) != 2 || got[1] != "005930.KQ" {
		t.Errorf("YahooSymbols(5930) = %v", got)
	}
	if got := YahooSymbols("^VIX"); len(got) != 1 {
		t.Errorf("YahooSymbols(^VIX) = %v", got)
	}
}

func TestYahooProvider_Fetch(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		fmt.Fprint(w, chartJSON)
	}))
	defer srv.Close()

	y := NewYahooProvider(testClient(), srv.URL)
	end := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	s, err := y.Fetch(context.Background(), "5930", end.AddDate(0, 0, -5), end)
	if err != nil {
		t.Fatal(err)
	}
	if path != "/v8/finance/chart/005930.KS" {
		t.Errorf("unexpected request path %q", path)
	}
	if s.Len() != 2 {
		t.Fatalf("expected the null bar to be dropped, got %d bars", s.Len())
	}
	if !s.Bars[0].Time.Before(s.Bars[1].Time) {
		t.Error("bars should be sorted ascending")
	}
	if s.Bars[0].Close != 100.5 || s.Last().Close != 102.5 {
		t.Errorf("closes = %v, %v", s.Bars[0].Close, s.Last().Close)
	}
}

func TestParseChart_OneBarPerTradingDate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantCloses []float64
	}{
		{"repeated timestamp keeps the later bar",
			`{"chart":{"result":[{"timestamp":[100,200,200],
			"indicators":{"quote":[{"close":[1,2,3]}]}}]}}`,
			[]float64{3}},
		{"live bar on the last session date replaces the daily bar",
			`{"chart":{"result":[{"meta":{"gmtoffset":32400},"timestamp":[1709596800,1709683200,1709705700],
			"indicators":{"quote":[{"close":[100,101,102]}]}}]}}`,
			[]float64{100, 102}},
		{"distinct dates are kept",
			`{"chart":{"result":[{"meta":{"gmtoffset":32400},"timestamp":[1709596800,1709683200],
			"indicators":{"quote":[{"close":[100,101]}]}}]}}`,
			[]float64{100, 101}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bars, err := parseChart([]byte(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			if len(bars) != len(tt.wantCloses) {
				t.Fatalf("got %d bars, want %d", len(bars), len(tt.wantCloses))
			}
			for i, b := range bars {
				if b.Close != tt.wantCloses[i] {
					t.Errorf("bar %d close = %v, want %v", i, b.Close, tt.wantCloses[i])
				}
				if i > 0 && !bars[i-1].Time.Before(b.Time) {
					t.Errorf("bar %d not strictly after bar %d", i, i-1)
				}
			}
		})
	}
}

func TestYahooProvider_FallsBackToKOSDAQ(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if strings.HasSuffix(r.URL.Path, ".KS") {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
			return
		}
		fmt.Fprint(w, chartJSON)
	}))
	defer srv.Close()

	y := NewYahooProvider(testClient(), srv.URL)
	end := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	s, err := y.Fetch(context.Background(), "293490", end.AddDate(0, 0, -5), end)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 || s.Ticker != "293490" {
		t.Errorf("series = %s with %d bars", s.Ticker, s.Len())
	}
	want := []string{"/v8/finance/chart/293490.KS", "/v8/finance/chart/293490.KQ"}
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Errorf("requests = %v, want %v", paths, want)
	}
}

func TestYahooProvider_ForbiddenDoesNotFallBack(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	y := NewYahooProvider(testClient(), srv.URL)
	end := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	if _, err := y.Fetch(context.Background(), "005930", end.AddDate(0, 0, -5), end); err == nil {
		t.Fatal("expected an error")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestMockProvider_ConcurrentAnalyze(t *testing.T) {
	p := &MockProvider{Price: 10000}
	c := New(p, nil, Options{Now: fixedNow})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Analyze(context.Background(), "", "005930", nil)
		}()
	}
	wg.Wait()
	if len(p.Requested) != 8 {
		t.Errorf("requested %d times, want 8", len(p.Requested))
	}
}

func TestParseChart_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"chart":`},
		{"api error", `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`},
		{"empty result", `{"chart":{"result":[{"timestamp":[]}],"error":null}}`},
		{"all null closes", `{"chart":{"result":[{"timestamp":[1],"indicators":{"quote":[{"close":[null]}]}}]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseChart([]byte(tt.body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	body, err := testClient().Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "ok" || atomic.LoadInt32(&calls) != 3 {
		t.Errorf("body=%q calls=%d", body, calls)
	}
}

func TestClient_ClientErrorIsPermanent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient().Get(context.Background(), srv.URL)
	var serr *StatusError
	if !errors.As(err, &serr) || serr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 StatusError, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("404 should not be retried, got %d calls", calls)
	}
}

const flowHTML = `<html><body>
<table class="type2"><tr><th>date</th></tr></table>
<table class="type2">
<tr><th>날짜</th><th>종가</th></tr>
<tr><td colspan="9"></td></tr>
<tr><td><span>2024.03.06</span></td><td>73,000</td><td>500</td><td>+0.69%</td><td>12,345,678</td>
<td>+150,000</td><td>-20,500</td><td>3,000,000,000</td><td>54.1%</td></tr>
<tr><td><span>2024.03.05</span></td><td>72,500</td><td>100</td><td>-0.14%</td><td>10,000,000</td>
<td>-1,000</td><td>+2,000</td><td>3,000,000,000</td><td>54.0%</td></tr>
</table></body></html>`

func TestNaverFlowSource(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("code")
		fmt.Fprint(w, flowHTML)
	}))
	defer srv.Close()

	f, err := NewNaverFlowSource(testClient(), srv.URL).Flow(context.Background(), "5930")
	if err != nil {
		t.Fatal(err)
	}
	if query != "005930" {
		t.Errorf("code = %q", query)
	}
	if f.Institutional != 150000 || f.Foreign != -20500 || f.Net() != 129500 {
		t.Errorf("unexpected flow %+v", f)
	}
	if f.Date.Format("2006-01-02") != "2024-03-06" {
		t.Errorf("expected most recent row, got %s", f.Date)
	}
}

func TestParseFlowPage_NoRows(t *testing.T) {
	_, err := parseFlowPage([]byte(`<table class="type2"><tr><td>-</td></tr></table>`))
	if !errors.Is(err, ErrNoFlow) {
		t.Errorf("expected ErrNoFlow, got %v", err)
	}
}

func barsFrom(closes []float64) []model.OHLCV {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return bars
}

func rising(n int, from, to float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + (to-from)*float64(i)/float64(n-1)
	}
	return out
}

func dropping() []float64 {
	out := make([]float64, 30)
	for i := range out {
		out[i] = 10000
	}
	out[29] = 9000
	return out
}

func fixedNow() time.Time { return time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC) }

func TestCollector_FetchErrorYieldsEmptyAnalysis(t *testing.T) {
	c := New(&MockProvider{Err: errors.New("timeout")}, nil, Options{Now: fixedNow})
	a := c.Analyze(context.Background(), "", "5930", nil)
	if a.Available() {
		t.Fatal("expected no result on fetch error")
	}
	if a.Series == nil || !a.Series.Empty() {
		t.Error("expected an empty series")
	}
	if a.Ticker != "005930" || a.Name != "005930" {
		t.Errorf("ticker/name = %q/%q", a.Ticker, a.Name)
	}
}

func TestCollector_Analyze(t *testing.T) {
	p := &MockProvider{Bars: map[string][]model.OHLCV{"005930": barsFrom(rising(30, 9000, 12000))}}
	c := New(p, nil, Options{Now: fixedNow, WinRates: map[string]float64{"005930": 55}})
	a := c.Analyze(context.Background(), "Samsung", "005930", nil)
	if !a.Available() {
		t.Fatal("expected a result")
	}
	if len(a.Chart.Dates) != 30 || a.Snapshot.Close != 12000 {
		t.Errorf("chart len=%d close=%v", len(a.Chart.Dates), a.Snapshot.Close)
	}
	if a.Result.Action != model.ActionHold {
		t.Errorf("action = %s, want HOLD", a.Result.Action)
	}
	if a.Result.WinRate != "55.0%" {
		t.Errorf("win rate = %q", a.Result.WinRate)
	}
}

func TestCollector_Scan(t *testing.T) {
	p := &MockProvider{Bars: map[string][]model.OHLCV{
		"000001": barsFrom(rising(30, 9000, 12000)),
		"000002": barsFrom(dropping()),
		"000003": nil,
	}}
	c := New(p, nil, Options{Now: fixedNow})
	hits := c.Scan(context.Background(), []model.WatchlistEntry{
		{Name: "Riser", Ticker: "1"},
		{Name: "Dropper", Ticker: "2"},
		{Name: "Empty", Ticker: "3"},
	})
	if len(p.Requested) != 3 {
		t.Errorf("expected one fetch per ticker, got %v", p.Requested)
	}
	if len(hits) != 1 || hits[0].Name != "Dropper" {
		names := make([]string, len(hits))
		for i, h := range hits {
			names[i] = h.Name
		}
		t.Fatalf("hits = [%s], want [Dropper]", strings.Join(names, ","))
	}
	if hits[0].Result.Action != model.ActionStrongBuy {
		t.Errorf("action = %s", hits[0].Result.Action)
	}
}

func TestCollector_ScanStopsOnCancel(t *testing.T) {
	p := &MockProvider{Price: 10000}
	c := New(p, nil, Options{Now: fixedNow})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Scan(ctx, []model.WatchlistEntry{{Name: "a", Ticker: "1"}, {Name: "b", Ticker: "2"}})
	if len(p.Requested) != 0 {
		t.Errorf("cancelled scan should not fetch, got %v", p.Requested)
	}
}
