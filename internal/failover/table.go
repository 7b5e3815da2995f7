// Package failover drives a source's request across its primary and
// alternate domains, remembering the last domain that succeeded.
package failover

import (
	"sync"
	"time"
)

// MemoryTable is an in-process pipeline.DomainTable. Writes are
// last-writer-wins; a stale entry only costs one extra probe.
type MemoryTable struct {
	mu      sync.RWMutex
	entries map[string]tableEntry
}

type tableEntry struct {
	domain string
	at     time.Time
}

// NewMemoryTable returns an empty table.
func NewMemoryTable() *MemoryTable {
	return &MemoryTable{entries: make(map[string]tableEntry)}
}

// LastSuccess returns the most recent winning domain for sourceID.
func (t *MemoryTable) LastSuccess(sourceID string) (string, time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[sourceID]
	if !ok {
		return "", time.Time{}, false
	}
	return e.domain, e.at, true
}

// RecordSuccess overwrites the entry for sourceID.
func (t *MemoryTable) RecordSuccess(sourceID, domain string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[sourceID] = tableEntry{domain: domain, at: at}
}
