package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus metrics of the bot and dashboard.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	FetchTotal       *prometheus.CounterVec // labels: provider, result
	AnalysisDur      prometheus.Histogram
	AnalysesTotal    *prometheus.CounterVec // labels: action
	BriefingsTotal   *prometheus.CounterVec // labels: kind, result
	NotifyFailures   prometheus.Counter
	CommandsTotal    *prometheus.CounterVec // labels: command
	BookEntries      *prometheus.GaugeVec   // labels: kind=watchlist|portfolio
	StoreSaveFailure prometheus.Counter

	gatherer prometheus.Gatherer
}

// NewMetrics creates the metrics and registers them with reg. A nil reg
// registers with a fresh private registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockpilot_fetch_total",
			Help: "Price series fetches by provider and result",
		}, []string{"provider", "result"}),
		AnalysisDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockpilot_analysis_duration_seconds",
			Help:    "Fetch, indicator and scoring latency per ticker",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockpilot_analyses_total",
			Help: "Completed analyses by resulting action",
		}, []string{"action"}),
		BriefingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockpilot_briefings_total",
			Help: "Scheduled briefings by kind and result",
		}, []string{"kind", "result"}),
		NotifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockpilot_notify_failures_total",
			Help: "Messages that could not be delivered",
		}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockpilot_commands_total",
			Help: "Chat commands handled",
		}, []string{"command"}),
		BookEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stockpilot_book_entries",
			Help: "Watchlist and portfolio sizes",
		}, []string{"kind"}),
		StoreSaveFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockpilot_store_save_failures_total",
			Help: "Book saves that failed",
		}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.FetchTotal,
		m.AnalysisDur,
		m.AnalysesTotal,
		m.BriefingsTotal,
		m.NotifyFailures,
		m.CommandsTotal,
		m.BookEntries,
		m.StoreSaveFailure,
	)
	return m
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveFetch counts one provider call.
func (m *Metrics) ObserveFetch(provider string, err error) {
	if m == nil {
		return
	}
	m.FetchTotal.WithLabelValues(provider, result(err)).Inc()
}

// ObserveAnalysis records one completed analysis. An empty action means no data.
func (m *Metrics) ObserveAnalysis(action string, d time.Duration) {
	if m == nil {
		return
	}
	if action == "" {
		action = "none"
	}
	m.AnalysisDur.Observe(d.Seconds())
	m.AnalysesTotal.WithLabelValues(action).Inc()
}

// ObserveBriefing counts one briefing run.
func (m *Metrics) ObserveBriefing(kind string, err error) {
	if m == nil {
		return
	}
	m.BriefingsTotal.WithLabelValues(kind, result(err)).Inc()
}

// NotifyFailed counts one undelivered message.
func (m *Metrics) NotifyFailed() {
	if m == nil {
		return
	}
	m.NotifyFailures.Inc()
}

// ObserveCommand counts one handled chat command.
func (m *Metrics) ObserveCommand(cmd string) {
	if m == nil {
		return
	}
	m.CommandsTotal.WithLabelValues(cmd).Inc()
}

// SetBook publishes the current book sizes.
func (m *Metrics) SetBook(watchlist, portfolio int) {
	if m == nil {
		return
	}
	m.BookEntries.WithLabelValues("watchlist").Set(float64(watchlist))
	m.BookEntries.WithLabelValues("portfolio").Set(float64(portfolio))
}

// SaveFailed counts one failed book save.
func (m *Metrics) SaveFailed() {
	if m == nil {
		return
	}
	m.StoreSaveFailure.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
