package sinks

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/calvera-dev/showfetch/internal/progress"
)

// PrometheusSink exports pipeline progress via Prometheus. It owns the
// collectors for source lifecycle, domain attempts, and run durations.
type PrometheusSink struct {
	sourcesStarted   prometheus.Counter
	sourcesCompleted *prometheus.CounterVec
	sourcesRunning   prometheus.Gauge
	sourceRuntime    *prometheus.HistogramVec
	domainAttempts   *prometheus.CounterVec
	itemsExtracted   *prometheus.CounterVec
	runDuration      prometheus.Histogram

	tracker *sourceTracker
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		sourcesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "showfetch_sources_started_total",
			Help: "Total sources the pipeline has started processing.",
		}),
		sourcesCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "showfetch_sources_completed_total",
			Help: "Total sources completed partitioned by result.",
		}, []string{"result"}),
		sourcesRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "showfetch_sources_running",
			Help: "Current number of in-flight sources.",
		}),
		sourceRuntime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "showfetch_source_runtime_seconds",
			Help:    "Wall time per completed source.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		}, []string{"result"}),
		domainAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "showfetch_domain_attempts_total",
			Help: "Domain attempts partitioned by source.",
		}, []string{"source"}),
		itemsExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "showfetch_progress_items_total",
			Help: "Items extracted per source as reported by completions.",
		}, []string{"source"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "showfetch_progress_run_seconds",
			Help:    "Wall time per completed pipeline run.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		tracker: newSourceTracker(),
	}
	for _, collector := range []prometheus.Collector{
		s.sourcesStarted,
		s.sourcesCompleted,
		s.sourcesRunning,
		s.sourceRuntime,
		s.domainAttempts,
		s.itemsExtracted,
		s.runDuration,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors using the provided batch. It is safe for
// concurrent use by multiple goroutines.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageSourceStart:
		s.sourcesStarted.Inc()
		if s.tracker.start(evt.Source) {
			s.sourcesRunning.Inc()
		}
	case progress.StageSourceDone:
		s.completeSource(evt, "success")
		if evt.Items > 0 {
			s.itemsExtracted.WithLabelValues(evt.Source).Add(float64(evt.Items))
		}
	case progress.StageSourceError:
		s.completeSource(evt, "error")
	case progress.StageDomainAttempt:
		s.domainAttempts.WithLabelValues(evt.Source).Inc()
	case progress.StageRunDone:
		if evt.Dur > 0 {
			s.runDuration.Observe(evt.Dur.Seconds())
		}
	}
}

func (s *PrometheusSink) completeSource(evt progress.Event, result string) {
	s.sourcesCompleted.WithLabelValues(result).Inc()
	if evt.Dur > 0 {
		s.sourceRuntime.WithLabelValues(result).Observe(evt.Dur.Seconds())
	}
	if s.tracker.complete(evt.Source) {
		s.sourcesRunning.Dec()
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}

type sourceTracker struct {
	mu      sync.Mutex
	running map[string]struct{}
}

func newSourceTracker() *sourceTracker {
	return &sourceTracker{running: make(map[string]struct{})}
}

func (t *sourceTracker) start(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; ok {
		return false
	}
	t.running[id] = struct{}{}
	return true
}

func (t *sourceTracker) complete(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; !ok {
		return false
	}
	delete(t.running, id)
	return true
}
