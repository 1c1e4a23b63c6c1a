package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds all Prometheus metrics for deepfund.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	RunDuration     *prometheus.HistogramVec
	Runs            *prometheus.CounterVec
	Signals         *prometheus.CounterVec
	AnalystFailures *prometheus.CounterVec
	Decisions       *prometheus.CounterVec
	LLMCalls        *prometheus.HistogramVec
	DataFetches     *prometheus.HistogramVec
	CacheLookups    *prometheus.CounterVec
	TotalAssets     *prometheus.GaugeVec
}

// New creates a recorder with its own registry
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "deepfund_run_duration_seconds",
				Help:    "Duration of one trading-day run in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200},
			},
			[]string{"experiment", "status"},
		),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deepfund_runs_total",
				Help: "Trading-day runs by outcome (completed, skipped, failed)",
			},
			[]string{"experiment", "status"},
		),
		Signals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deepfund_signals_total",
				Help: "Analyst signals produced by analyst and direction",
			},
			[]string{"analyst", "signal"},
		),
		AnalystFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deepfund_analyst_failures_total",
				Help: "Analyst nodes that contributed no signal",
			},
			[]string{"analyst", "outcome"},
		),
		Decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deepfund_decisions_total",
				Help: "Decisions produced by action",
			},
			[]string{"action"},
		),
		LLMCalls: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "deepfund_llm_call_seconds",
				Help:    "Latency of language model calls",
				Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"provider", "result"},
		),
		DataFetches: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "deepfund_data_fetch_seconds",
				Help:    "Latency of market data requests",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"source", "result"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deepfund_cache_lookups_total",
				Help: "Market data cache lookups by result",
			},
			[]string{"result"},
		),
		TotalAssets: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "deepfund_total_assets",
				Help: "Total assets of the last committed portfolio",
			},
			[]string{"experiment"},
		),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		r.RunDuration,
		r.Runs,
		r.Signals,
		r.AnalystFailures,
		r.Decisions,
		r.LLMCalls,
		r.DataFetches,
		r.CacheLookups,
		r.TotalAssets,
	)

	return r
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) RecordRun(experiment, status string, d time.Duration) {
	if r == nil {
		return
	}
	r.Runs.WithLabelValues(experiment, status).Inc()
	r.RunDuration.WithLabelValues(experiment, status).Observe(d.Seconds())
}

func (r *Recorder) RecordSignal(analyst, signal string) {
	if r == nil {
		return
	}
	r.Signals.WithLabelValues(analyst, signal).Inc()
}

// RecordAnalystFailure counts a skipped or failed analyst node
func (r *Recorder) RecordAnalystFailure(analyst, outcome string) {
	if r == nil {
		return
	}
	r.AnalystFailures.WithLabelValues(analyst, outcome).Inc()
}

func (r *Recorder) RecordDecision(action string) {
	if r == nil {
		return
	}
	r.Decisions.WithLabelValues(action).Inc()
}

func (r *Recorder) RecordLLMCall(provider string, d time.Duration, err error) {
	if r == nil {
		return
	}
	r.LLMCalls.WithLabelValues(provider, result(err)).Observe(d.Seconds())
}

func (r *Recorder) RecordDataFetch(source string, d time.Duration, err error) {
	if r == nil {
		return
	}
	r.DataFetches.WithLabelValues(source, result(err)).Observe(d.Seconds())
}

func (r *Recorder) RecordCacheLookup(hit bool) {
	if r == nil {
		return
	}
	if hit {
		r.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	r.CacheLookups.WithLabelValues("miss").Inc()
}

func (r *Recorder) SetTotalAssets(experiment string, value float64) {
	if r == nil {
		return
	}
	r.TotalAssets.WithLabelValues(experiment).Set(value)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
