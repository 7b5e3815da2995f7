// Package cache implements the content-addressed TTL document store.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/calvera-dev/showfetch/internal/hash/sha256"
	"github.com/calvera-dev/showfetch/internal/pipeline"
)

// entryMeta is the sidecar record written next to each payload. File mtime is
// the fallback TTL reference when the sidecar is missing or unreadable.
type entryMeta struct {
	URL      string    `json:"url"`
	StoredAt time.Time `json:"stored_at"`
}

// Store is a file-per-URL cache keyed by sha256(url). Entries expire
// passively: anything older than TTL is treated as absent. Writes are
// last-writer-wins; entries are idempotent re-derivations of the same URL so
// a lost update only costs a redundant future fetch.
type Store struct {
	dir       string
	ttl       time.Duration
	writeMeta bool
	hasher    pipeline.Hasher
	clock     pipeline.Clock
	logger    *zap.Logger
}

// Config captures the cache store parameters.
type Config struct {
	Dir       string
	TTL       time.Duration
	WriteMeta bool
}

// New creates the cache directory if needed and returns a Store.
func New(cfg Config, clock pipeline.Clock, logger *zap.Logger) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("cache dir is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("cache ttl must be > 0")
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", cfg.Dir, err)
	}
	return &Store{
		dir:       cfg.Dir,
		ttl:       cfg.TTL,
		writeMeta: cfg.WriteMeta,
		hasher:    sha256.New(),
		clock:     clock,
		logger:    logger,
	}, nil
}

// Get returns the cached payload for url, or a miss when the entry is absent,
// expired, or unreadable. Storage errors are logged and reported as misses.
func (s *Store) Get(url string) ([]byte, bool) {
	key, ok := s.keyFor(url)
	if !ok {
		return nil, false
	}
	path := s.payloadPath(key)
	storedAt, ok := s.storedAt(url, key, path)
	if !ok {
		return nil, false
	}
	if s.clock.Now().Sub(storedAt) >= s.ttl {
		return nil, false
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("cache read failed", zap.String("url", url), zap.Error(err))
		}
		return nil, false
	}
	return payload, true
}

// Put overwrites the entry for url unconditionally. Failures are logged and
// swallowed; a cache write must never fail a fetch.
func (s *Store) Put(url string, payload []byte) {
	key, ok := s.keyFor(url)
	if !ok {
		return
	}
	if err := os.WriteFile(s.payloadPath(key), payload, 0o600); err != nil {
		s.logger.Warn("cache write failed", zap.String("url", url), zap.Error(err))
		return
	}
	if !s.writeMeta {
		return
	}
	meta := entryMeta{URL: url, StoredAt: s.clock.Now()}
	raw, err := json.Marshal(meta)
	if err != nil {
		s.logger.Warn("cache meta marshal failed", zap.String("url", url), zap.Error(err))
		return
	}
	if err := os.WriteFile(s.metaPath(key), raw, 0o600); err != nil {
		s.logger.Warn("cache meta write failed", zap.String("url", url), zap.Error(err))
	}
}

// storedAt resolves the entry timestamp: sidecar stored_at when readable,
// file mtime otherwise.
func (s *Store) storedAt(url, key, payloadPath string) (time.Time, bool) {
	if raw, err := os.ReadFile(s.metaPath(key)); err == nil {
		var meta entryMeta
		if jerr := json.Unmarshal(raw, &meta); jerr == nil && !meta.StoredAt.IsZero() {
			return meta.StoredAt, true
		}
	}
	info, err := os.Stat(payloadPath)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("cache stat failed", zap.String("url", url), zap.Error(err))
		}
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// keyFor derives the content-addressed entry name. A hasher failure is
// logged and treated as a miss.
func (s *Store) keyFor(url string) (string, bool) {
	key, err := s.hasher.Hash([]byte(url))
	if err != nil {
		s.logger.Warn("cache key derivation failed", zap.String("url", url), zap.Error(err))
		return "", false
	}
	return key, true
}

func (s *Store) payloadPath(key string) string {
	return filepath.Join(s.dir, key+".html")
}

func (s *Store) metaPath(key string) string {
	return filepath.Join(s.dir, key+".meta.json")
}
