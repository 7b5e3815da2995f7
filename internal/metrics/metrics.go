// Package metrics exposes Prometheus collectors for the extraction pipeline.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchesTotal         *prometheus.CounterVec
	domainFailoversTotal *prometheus.CounterVec
	itemsExtractedTotal  *prometheus.CounterVec
	sourcesTotal         *prometheus.CounterVec
	runDurationSeconds   prometheus.Histogram

	once sync.Once
)

// Init initializes the Prometheus collectors. Safe to call multiple times.
func Init() {
	once.Do(func() {
		fetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showfetch_fetches_total",
				Help: "Total fetch attempts, labeled by strategy and outcome.",
			},
			[]string{"strategy", "outcome"},
		)

		domainFailoversTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showfetch_domain_failovers_total",
				Help: "Total domain attempts that failed over, labeled by source.",
			},
			[]string{"source"},
		)

		itemsExtractedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showfetch_items_extracted_total",
				Help: "Total content records extracted, labeled by source.",
			},
			[]string{"source"},
		)

		sourcesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showfetch_sources_total",
				Help: "Total sources processed, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		runDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "showfetch_run_duration_seconds",
				Help:    "Wall-clock duration of full pipeline runs.",
				Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200},
			},
		)
	})
}

// ObserveFetch records one fetch attempt.
func ObserveFetch(strategy, outcome string) {
	if fetchesTotal == nil {
		return
	}
	fetchesTotal.WithLabelValues(strategy, outcome).Inc()
}

// ObserveDomainFailover records one failed domain attempt for source.
func ObserveDomainFailover(source string) {
	if domainFailoversTotal == nil {
		return
	}
	domainFailoversTotal.WithLabelValues(source).Inc()
}

// ObserveItemsExtracted adds n extracted records for source.
func ObserveItemsExtracted(source string, n int) {
	if itemsExtractedTotal == nil {
		return
	}
	itemsExtractedTotal.WithLabelValues(source).Add(float64(n))
}

// ObserveSource records a processed source by outcome ("ok" or "failed").
func ObserveSource(outcome string) {
	if sourcesTotal == nil {
		return
	}
	sourcesTotal.WithLabelValues(outcome).Inc()
}

// ObserveRunDuration records one completed run.
func ObserveRunDuration(d time.Duration) {
	if runDurationSeconds == nil {
		return
	}
	runDurationSeconds.Observe(d.Seconds())
}

// Handler returns the HTTP handler serving /metrics and /healthz.
func Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}
