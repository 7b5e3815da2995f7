package runner

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/calvera-dev/showfetch/internal/aggregate"
	"github.com/calvera-dev/showfetch/internal/identity"
	"github.com/calvera-dev/showfetch/internal/pipeline"
	"github.com/calvera-dev/showfetch/internal/publisher/memory"
	"github.com/calvera-dev/showfetch/internal/registry"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (m *memoryStore) PutObject(_ context.Context, path, _ string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = append([]byte(nil), data...)
	return "mem://" + path, nil
}

// stubResolver succeeds for every source not listed in failing.
type stubResolver struct {
	failing map[string]bool
}

func (r *stubResolver) Resolve(_ context.Context, source pipeline.SourceDescriptor, _ string) (pipeline.Document, error) {
	if r.failing[source.ID] {
		return pipeline.Document{}, &pipeline.AllDomainsExhaustedError{
			SourceID: source.ID, Attempts: 3, LastErr: errors.New("refused"),
		}
	}
	return pipeline.Document{URL: source.PrimaryEndpoint, BaseDomain: source.PrimaryEndpoint, Body: []byte("<html></html>")}, nil
}

// stubExtractor returns canned records per source id.
type stubExtractor struct {
	records map[string][]pipeline.ContentRecord
}

func (e *stubExtractor) Extract(_ pipeline.Document, source pipeline.SourceDescriptor) ([]pipeline.ContentRecord, error) {
	return e.records[source.ID], nil
}

func dramaRecord(id string) pipeline.ContentRecord {
	return pipeline.ContentRecord{ID: id, Title: id, ContentType: "drama", Year: 2026, Source: "test"}
}

func newTestRunner(t *testing.T, reg *registry.Registry, resolver pipeline.Resolver, extractor pipeline.Extractor) (*Runner, *memoryStore, *memory.Publisher, string) {
	t.Helper()
	store := newMemoryStore()
	pub := memory.New()
	clk := fixedClock{now: time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)}
	sourcesDir := filepath.Join(t.TempDir(), "sources")

	r := New(Config{FanOut: 2, SourcesDir: sourcesDir}, Deps{
		Registry:   reg,
		Resolver:   resolver,
		Extractor:  extractor,
		Aggregator: aggregate.New(store, "catalog", clk, zap.NewNop()),
		Publisher:  pub,
		Stats:      pipeline.NewRunStats(),
		Clock:      clk,
		IDs:        identity.UUIDGenerator{},
		Logger:     zap.NewNop(),
	})
	return r, store, pub, sourcesDir
}

// TestRunHappyPath one healthy source produces a source file, artifacts, and
// a run notification.
func TestRunHappyPath(t *testing.T) {
	t.Parallel()

	reg, err := registry.New(pipeline.SourceDescriptor{
		ID: "dramapulse", PrimaryEndpoint: "https://dramapulse.example",
		Category: pipeline.CategoryDrama, MinAcceptableItems: 2,
	})
	require.NoError(t, err)

	extractor := &stubExtractor{records: map[string][]pipeline.ContentRecord{
		"dramapulse": {dramaRecord("a"), dramaRecord("b"), dramaRecord("c")},
	}}
	r, store, pub, sourcesDir := newTestRunner(t, reg, &stubResolver{}, extractor)

	report, err := r.Run(context.Background(), "")
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 3, report.TotalItems)
	assert.Equal(t, 1, report.Summary.SourcesProcessed)
	assert.Zero(t, report.Summary.SourcesFailed)

	raw, err := os.ReadFile(filepath.Join(sourcesDir, "dramapulse.json"))
	require.NoError(t, err)
	var written []pipeline.ContentRecord
	require.NoError(t, json.Unmarshal(raw, &written))
	assert.Len(t, written, 3)

	assert.Contains(t, store.objects, "catalog/drama/index.json")
	assert.Len(t, pub.Messages(), 1)
}

// TestRunInsufficientItemsMergesBackup a source under its minimum pulls in
// the backup source, deduplicating on record id.
func TestRunInsufficientItemsMergesBackup(t *testing.T) {
	t.Parallel()

	reg, err := registry.New(
		pipeline.SourceDescriptor{
			ID: "dramapulse", PrimaryEndpoint: "https://dramapulse.example",
			Category: pipeline.CategoryDrama, MinAcceptableItems: 4,
			BackupSourceID: "dramavault", Priority: 1,
		},
		pipeline.SourceDescriptor{
			ID: "dramavault", PrimaryEndpoint: "https://dramavault.example",
			// Different category keeps the backup out of the drama walk;
			// it only runs via the merge path in this test.
			Category: pipeline.CategoryAnime,
			Priority: 99,
		},
	)
	require.NoError(t, err)

	extractor := &stubExtractor{records: map[string][]pipeline.ContentRecord{
		"dramapulse": {dramaRecord("a"), dramaRecord("b")},
		"dramavault": {dramaRecord("b"), dramaRecord("c"), dramaRecord("d")},
	}}
	r, _, _, sourcesDir := newTestRunner(t, reg, &stubResolver{}, extractor)

	_, err = r.Run(context.Background(), pipeline.CategoryDrama)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(sourcesDir, "dramapulse.json"))
	require.NoError(t, err)
	var written []pipeline.ContentRecord
	require.NoError(t, json.Unmarshal(raw, &written))

	ids := make([]string, 0, len(written))
	for _, rec := range written {
		ids = append(ids, rec.ID)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids, "primary first, backup deduped on id")
}

// TestRunAllSourcesFail the run is declared dead only when nothing succeeds.
func TestRunAllSourcesFail(t *testing.T) {
	t.Parallel()

	reg, err := registry.New(
		pipeline.SourceDescriptor{ID: "a", PrimaryEndpoint: "https://a.example", Category: pipeline.CategoryDrama},
		pipeline.SourceDescriptor{ID: "b", PrimaryEndpoint: "https://b.example", Category: pipeline.CategoryDrama},
	)
	require.NoError(t, err)

	resolver := &stubResolver{failing: map[string]bool{"a": true, "b": true}}
	r, _, _, _ := newTestRunner(t, reg, resolver, &stubExtractor{})

	_, err = r.Run(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sources failed")
}

// TestRunPartialFailureSucceeds one dead source does not fail the run; it is
// reported in the summary instead.
func TestRunPartialFailureSucceeds(t *testing.T) {
	t.Parallel()

	reg, err := registry.New(
		pipeline.SourceDescriptor{ID: "dead", PrimaryEndpoint: "https://dead.example", Category: pipeline.CategoryDrama},
		pipeline.SourceDescriptor{ID: "alive", PrimaryEndpoint: "https://alive.example", Category: pipeline.CategoryDrama},
	)
	require.NoError(t, err)

	extractor := &stubExtractor{records: map[string][]pipeline.ContentRecord{
		"alive": {dramaRecord("a")},
	}}
	resolver := &stubResolver{failing: map[string]bool{"dead": true}}
	r, _, _, _ := newTestRunner(t, reg, resolver, extractor)

	report, err := r.Run(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.SourcesFailed)
	assert.Equal(t, 1, report.TotalItems)
}

// TestRunUnknownCategory no matching sources is a hard error.
func TestRunUnknownCategory(t *testing.T) {
	t.Parallel()

	reg, err := registry.New(pipeline.SourceDescriptor{
		ID: "a", PrimaryEndpoint: "https://a.example", Category: pipeline.CategoryDrama,
	})
	require.NoError(t, err)

	r, _, _, _ := newTestRunner(t, reg, &stubResolver{}, &stubExtractor{})
	_, err = r.Run(context.Background(), pipeline.CategoryAnime)
	require.Error(t, err)
}
