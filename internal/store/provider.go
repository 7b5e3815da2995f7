// Package store defines the artifact store contract used by aggregation.
package store

import "context"

// Provider writes catalog artifacts and returns a URI for each.
type Provider interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// NoOpProvider discards artifacts; useful for dry runs.
type NoOpProvider struct{}

// PutObject discards the data and returns an empty URI.
func (NoOpProvider) PutObject(_ context.Context, _ string, _ string, _ []byte) (string, error) {
	return "", nil
}
