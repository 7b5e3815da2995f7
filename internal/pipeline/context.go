package pipeline

import (
	"sync"
	"time"
)

// RunStats accumulates counters across one pipeline run. Safe for use from
// concurrently processed sources.
type RunStats struct {
	mu               sync.Mutex
	sourcesProcessed int
	sourcesFailed    int
	pagesFetched     int
	cacheHits        int
	domainFailovers  int
	itemsExtracted   int
	itemsSkipped     int
	perCategory      map[Category]int
}

// NewRunStats returns an empty accumulator.
func NewRunStats() *RunStats {
	return &RunStats{perCategory: make(map[Category]int)}
}

// SourceProcessed records a source that completed, successfully or not.
func (s *RunStats) SourceProcessed(failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sourcesProcessed++
	if failed {
		s.sourcesFailed++
	}
}

// PageFetched records one gateway fetch, noting cache hits.
func (s *RunStats) PageFetched(fromCache bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pagesFetched++
	if fromCache {
		s.cacheHits++
	}
}

// DomainFailover records one domain attempt that failed over.
func (s *RunStats) DomainFailover() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.domainFailovers++
}

// ItemsExtracted adds extracted item counts for a category.
func (s *RunStats) ItemsExtracted(category Category, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.itemsExtracted += n
	s.perCategory[category] += n
}

// ItemSkipped records one malformed item node that was isolated and dropped.
func (s *RunStats) ItemSkipped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.itemsSkipped++
}

// Snapshot returns a copy of the counters for reporting.
func (s *RunStats) Snapshot() RunSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	per := make(map[Category]int, len(s.perCategory))
	for k, v := range s.perCategory {
		per[k] = v
	}
	return RunSummary{
		SourcesProcessed: s.sourcesProcessed,
		SourcesFailed:    s.sourcesFailed,
		PagesFetched:     s.pagesFetched,
		CacheHits:        s.cacheHits,
		DomainFailovers:  s.domainFailovers,
		ItemsExtracted:   s.itemsExtracted,
		ItemsSkipped:     s.itemsSkipped,
		PerCategory:      per,
	}
}

// RunSummary is an immutable snapshot of RunStats.
type RunSummary struct {
	SourcesProcessed int              `json:"sources_processed"`
	SourcesFailed    int              `json:"sources_failed"`
	PagesFetched     int              `json:"pages_fetched"`
	CacheHits        int              `json:"cache_hits"`
	DomainFailovers  int              `json:"domain_failovers"`
	ItemsExtracted   int              `json:"items_extracted"`
	ItemsSkipped     int              `json:"items_skipped"`
	PerCategory      map[Category]int `json:"per_category"`
	Duration         time.Duration    `json:"duration"`
}
