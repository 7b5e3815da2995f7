// Package db defines the catalog store contract for persisting content
// records. The pipeline only needs a write path; reads belong to the
// presentation layer.
package db

import (
	"context"

	"github.com/calvera-dev/showfetch/internal/pipeline"
)

// Provider persists content records after aggregation.
type Provider interface {
	UpsertRecords(ctx context.Context, records []pipeline.ContentRecord) (int, error)
	Close() error
}

// NoOpProvider discards records; the default for file-only runs.
type NoOpProvider struct{}

// UpsertRecords does nothing and reports zero rows.
func (NoOpProvider) UpsertRecords(_ context.Context, _ []pipeline.ContentRecord) (int, error) {
	return 0, nil
}

// Close does nothing.
func (NoOpProvider) Close() error { return nil }
