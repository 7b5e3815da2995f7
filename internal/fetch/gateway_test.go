package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/calvera-dev/showfetch/internal/pipeline"
)

type stubFetcher struct {
	doc   pipeline.Document
	err   error
	calls int
}

func (f *stubFetcher) Fetch(_ context.Context, request pipeline.FetchRequest) (pipeline.Document, error) {
	f.calls++
	if f.err != nil {
		return pipeline.Document{}, f.err
	}
	doc := f.doc
	doc.URL = request.URL
	return doc, nil
}

type mapCache struct {
	entries map[string][]byte
	puts    int
}

func (c *mapCache) Get(url string) ([]byte, bool) {
	payload, ok := c.entries[url]
	return payload, ok
}

func (c *mapCache) Put(url string, payload []byte) {
	c.puts++
	c.entries[url] = payload
}

func newTestGateway(cache pipeline.Cache, plain, rendered pipeline.Fetcher) *Gateway {
	return NewGateway(Config{
		Cache:    cache,
		Plain:    plain,
		Rendered: rendered,
		Timeout:  5 * time.Second,
		Stats:    pipeline.NewRunStats(),
	}, zap.NewNop())
}

// TestFetchCacheHit a fresh cache entry short-circuits both fetchers.
func TestFetchCacheHit(t *testing.T) {
	t.Parallel()

	cache := &mapCache{entries: map[string][]byte{
		"https://site.example/recent": []byte("cached"),
	}}
	plain := &stubFetcher{}
	rendered := &stubFetcher{}

	doc, err := newTestGateway(cache, plain, rendered).Fetch(context.Background(), pipeline.FetchRequest{
		URL: "https://site.example/recent", Strategy: pipeline.StrategyPlain,
	})
	require.NoError(t, err)

	assert.True(t, doc.FromCache)
	assert.Equal(t, []byte("cached"), doc.Body)
	assert.Zero(t, plain.calls)
	assert.Zero(t, rendered.calls)
}

// TestFetchPlainSuccessCaches a live plain fetch lands in the cache.
func TestFetchPlainSuccessCaches(t *testing.T) {
	t.Parallel()

	cache := &mapCache{entries: map[string][]byte{}}
	plain := &stubFetcher{doc: pipeline.Document{Body: []byte("live"), StatusCode: 200}}
	rendered := &stubFetcher{}

	doc, err := newTestGateway(cache, plain, rendered).Fetch(context.Background(), pipeline.FetchRequest{
		URL: "https://site.example/recent", Strategy: pipeline.StrategyPlain,
	})
	require.NoError(t, err)

	assert.False(t, doc.FromCache)
	assert.Equal(t, 1, plain.calls)
	assert.Zero(t, rendered.calls)
	assert.Equal(t, 1, cache.puts)
	assert.Equal(t, []byte("live"), cache.entries["https://site.example/recent"])
}

// TestFetchEscalatesToRendered a plain failure is retried through the
// browser before the URL is declared dead.
func TestFetchEscalatesToRendered(t *testing.T) {
	t.Parallel()

	cache := &mapCache{entries: map[string][]byte{}}
	plain := &stubFetcher{err: pipeline.NewFetchError("u", pipeline.ReasonBadStatus, errors.New("403"))}
	rendered := &stubFetcher{doc: pipeline.Document{Body: []byte("rendered"), StatusCode: 200}}

	doc, err := newTestGateway(cache, plain, rendered).Fetch(context.Background(), pipeline.FetchRequest{
		URL: "https://site.example/recent", Strategy: pipeline.StrategyPlain,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, plain.calls)
	assert.Equal(t, 1, rendered.calls)
	assert.Equal(t, []byte("rendered"), doc.Body)
}

// TestFetchRenderedFailureIsFinal when escalation also fails, the rendered
// error is reported and nothing is cached.
func TestFetchRenderedFailureIsFinal(t *testing.T) {
	t.Parallel()

	cache := &mapCache{entries: map[string][]byte{}}
	plain := &stubFetcher{err: pipeline.NewFetchError("u", pipeline.ReasonNetwork, errors.New("refused"))}
	renderErr := pipeline.NewFetchError("u", pipeline.ReasonRender, errors.New("nav failed"))
	rendered := &stubFetcher{err: renderErr}

	_, err := newTestGateway(cache, plain, rendered).Fetch(context.Background(), pipeline.FetchRequest{
		URL: "https://site.example/recent", Strategy: pipeline.StrategyPlain,
	})
	require.Error(t, err)

	var fe *pipeline.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, pipeline.ReasonRender, fe.Reason)
	assert.Zero(t, cache.puts)
}

// TestFetchRenderedStrategySkipsPlain sources marked as requiring rendering
// never touch the plain fetcher.
func TestFetchRenderedStrategySkipsPlain(t *testing.T) {
	t.Parallel()

	cache := &mapCache{entries: map[string][]byte{}}
	plain := &stubFetcher{}
	rendered := &stubFetcher{doc: pipeline.Document{Body: []byte("rendered"), StatusCode: 200}}

	_, err := newTestGateway(cache, plain, rendered).Fetch(context.Background(), pipeline.FetchRequest{
		URL: "https://site.example/recent", Strategy: pipeline.StrategyRendered,
	})
	require.NoError(t, err)

	assert.Zero(t, plain.calls)
	assert.Equal(t, 1, rendered.calls)
}
