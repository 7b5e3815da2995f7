package cache

import (
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingHasher struct{}

func (failingHasher) Hash([]byte) (string, error) { return "", errors.New("digest unavailable") }

type stubClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newStore(t *testing.T, ttl time.Duration) (*Store, *stubClock) {
	t.Helper()
	clk := &stubClock{now: time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)}
	store, err := New(Config{Dir: t.TempDir(), TTL: ttl, WriteMeta: true}, clk, zap.NewNop())
	require.NoError(t, err)
	return store, clk
}

// TestPutGetRoundTrip stores a payload and reads it back before expiry.
func TestPutGetRoundTrip(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t, 24*time.Hour)
	store.Put("https://site.example/recent", []byte("<html>a</html>"))

	payload, ok := store.Get("https://site.example/recent")
	require.True(t, ok)
	assert.Equal(t, []byte("<html>a</html>"), payload)

	_, ok = store.Get("https://site.example/other")
	assert.False(t, ok)
}

// TestTTLBoundary pins the expiry semantics: an entry one second short of the
// TTL is served, one second past it is a miss.
func TestTTLBoundary(t *testing.T) {
	t.Parallel()

	ttl := 24 * time.Hour
	store, clk := newStore(t, ttl)
	store.Put("https://site.example/recent", []byte("payload"))

	clk.Advance(ttl - time.Second)
	_, ok := store.Get("https://site.example/recent")
	assert.True(t, ok, "entry just inside ttl must hit")

	clk.Advance(2 * time.Second)
	_, ok = store.Get("https://site.example/recent")
	assert.False(t, ok, "entry past ttl must miss")
}

// TestPutOverwriteRefreshes re-storing a URL restarts its TTL window.
func TestPutOverwriteRefreshes(t *testing.T) {
	t.Parallel()

	ttl := time.Hour
	store, clk := newStore(t, ttl)
	store.Put("https://site.example/recent", []byte("old"))

	clk.Advance(59 * time.Minute)
	store.Put("https://site.example/recent", []byte("new"))

	clk.Advance(30 * time.Minute)
	payload, ok := store.Get("https://site.example/recent")
	require.True(t, ok)
	assert.Equal(t, []byte("new"), payload)
}

// TestMtimeFallback entries written without a sidecar still expire via mtime.
func TestMtimeFallback(t *testing.T) {
	t.Parallel()

	clk := &stubClock{now: time.Now()}
	store, err := New(Config{Dir: t.TempDir(), TTL: 24 * time.Hour, WriteMeta: false}, clk, zap.NewNop())
	require.NoError(t, err)

	store.Put("https://site.example/recent", []byte("payload"))
	_, ok := store.Get("https://site.example/recent")
	assert.True(t, ok)

	clk.Advance(25 * time.Hour)
	_, ok = store.Get("https://site.example/recent")
	assert.False(t, ok)
}

// TestHasherFailureIsMiss a key derivation failure degrades to a miss on Get
// and a dropped write on Put; nothing lands on disk.
func TestHasherFailureIsMiss(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, _ := newStore(t, time.Hour)
	store.dir = dir
	store.hasher = failingHasher{}

	store.Put("https://site.example/recent", []byte("payload"))
	_, ok := store.Get("https://site.example/recent")
	assert.False(t, ok)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// TestNewValidation rejects unusable configs.
func TestNewValidation(t *testing.T) {
	t.Parallel()

	clk := &stubClock{now: time.Now()}
	_, err := New(Config{TTL: time.Hour}, clk, zap.NewNop())
	assert.Error(t, err)

	_, err = New(Config{Dir: t.TempDir()}, clk, zap.NewNop())
	assert.Error(t, err)
}
