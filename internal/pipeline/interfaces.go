package pipeline

import (
	"context"
	"time"
)

// Fetcher retrieves one URL and returns the document plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (Document, error)
}

// Cache is a TTL-bounded payload store keyed by request URL. Implementations
// must treat storage errors as misses; Get never returns an error.
type Cache interface {
	Get(url string) ([]byte, bool)
	Put(url string, payload []byte)
}

// Extractor turns a fetched document into zero or more content records.
// A parse failure on one item must never abort the remaining items.
type Extractor interface {
	Extract(doc Document, source SourceDescriptor) ([]ContentRecord, error)
}

// DomainTable remembers the last domain that succeeded per source.
// Writes are last-writer-wins; a lost update only costs a redundant probe.
type DomainTable interface {
	LastSuccess(sourceID string) (domain string, at time.Time, ok bool)
	RecordSuccess(sourceID string, domain string, at time.Time)
}

// Resolver drives a source's request across its domains.
type Resolver interface {
	Resolve(ctx context.Context, source SourceDescriptor, path string) (Document, error)
}

// Hasher computes digests for cache keys and integrity checks.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
