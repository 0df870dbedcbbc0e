package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"StockPilot/internal/collector"
	"StockPilot/internal/metrics"
	"StockPilot/internal/model"
	"StockPilot/internal/portfolio"
	"StockPilot/internal/recorder"
)

const defaultHistoryLimit = 20

// Deps are the collaborators the dashboard reads from.
type Deps struct {
	Collector *collector.Collector
	Portfolio *portfolio.Manager
	Recorder  recorder.Recorder
	Metrics   *metrics.Metrics
	Universe  []model.WatchlistEntry
}

// Server serves the dashboard JSON API.
type Server struct {
	Deps
	srv    *http.Server
	logger zerolog.Logger
}

// Card is one analysis as served to the dashboard.
type Card struct {
	*model.Analysis
	Available bool `json:"available"`
}

// Cards groups the watchlist and portfolio analyses.
type Cards struct {
	Watchlist []Card `json:"watchlist"`
	Portfolio []Card `json:"portfolio"`
}

// New creates a dashboard server listening on addr.
func New(addr string, d Deps) *Server {
	if d.Recorder == nil {
		d.Recorder = recorder.NewNoopRecorder()
	}
	s := &Server{Deps: d, logger: log.With().Str("component", "dashboard").Logger()}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /api/analysis", s.handleAnalysis)
	mux.HandleFunc("GET /api/book", s.handleBook)
	mux.HandleFunc("GET /api/cards", s.handleCards)
	mux.HandleFunc("GET /api/scan", s.handleScan)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.Handle("GET /metrics", s.Metrics.Handler())
	return mux
}

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		s.logger.Info().Str("addr", s.srv.Addr).Msg("dashboard listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("dashboard server stopped")
		}
	}()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ticker := strings.TrimSpace(q.Get("ticker"))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	holding := s.Portfolio.Holding(ticker)
	if raw := q.Get("buy"); raw != "" {
		p, err := strconv.ParseFloat(raw, 64)
		if err != nil || p <= 0 {
			writeError(w, http.StatusBadRequest, "buy must be a positive number")
			return
		}
		holding = &model.Holding{BuyPrice: p}
	}
	name := q.Get("name")
	if name == "" {
		name = s.nameOf(ticker)
	}
	a := s.Collector.Analyze(r.Context(), name, ticker, holding)
	s.record(recorder.NewRunID(), a)
	writeJSON(w, http.StatusOK, card(a))
}

func (s *Server) handleBook(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Portfolio.Book())
}

func (s *Server) handleCards(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	book := s.Portfolio.Book()
	run := recorder.NewRunID()
	out := Cards{Watchlist: []Card{}, Portfolio: []Card{}}
	for _, name := range sortedNames(book.Watchlist) {
		e := book.Watchlist[name]
		a := s.Collector.Analyze(ctx, e.Name, e.Ticker, s.Portfolio.Holding(e.Ticker))
		s.record(run, a)
		out.Watchlist = append(out.Watchlist, card(a))
	}
	for _, name := range sortedNames(book.Portfolio) {
		e := book.Portfolio[name]
		a := s.Collector.Analyze(ctx, e.Name, e.Ticker, &model.Holding{BuyPrice: e.BuyPrice})
		s.record(run, a)
		out.Portfolio = append(out.Portfolio, card(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	hits := s.Collector.Scan(r.Context(), s.Universe)
	run := recorder.NewRunID()
	out := make([]Card, 0, len(hits))
	for _, a := range hits {
		s.record(run, a)
		out = append(out, card(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ticker := model.NormalizeTicker(q.Get("ticker"))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	limit := defaultHistoryLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	recs, err := s.Recorder.History(ticker, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("ticker", ticker).Msg("history query failed")
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	if recs == nil {
		recs = []recorder.ScoreRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// nameOf looks the ticker up in the book and the universe.
func (s *Server) nameOf(ticker string) string {
	ticker = model.NormalizeTicker(ticker)
	book := s.Portfolio.Book()
	for _, e := range book.Portfolio {
		if e.Ticker == ticker {
			return e.Name
		}
	}
	for _, e := range book.Watchlist {
		if e.Ticker == ticker {
			return e.Name
		}
	}
	for _, e := range s.Universe {
		if model.NormalizeTicker(e.Ticker) == ticker {
			return e.Name
		}
	}
	return ticker
}

func (s *Server) record(run string, a *model.Analysis) {
	if err := s.Recorder.RecordAnalysis(run, recorder.SourceDashboard, a); err != nil {
		s.logger.Error().Err(err).Str("ticker", a.Ticker).Msg("record analysis")
	}
}

func card(a *model.Analysis) Card { return Card{Analysis: a, Available: a.Available()} }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Str("component", "dashboard").Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
