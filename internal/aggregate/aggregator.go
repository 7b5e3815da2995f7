package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/calvera-dev/showfetch/internal/pipeline"
	"github.com/calvera-dev/showfetch/internal/store"
)

const artifactContentType = "application/json; charset=utf-8"

// allCategories fixes the iteration order so identical inputs produce
// byte-identical artifacts.
var allCategories = []pipeline.Category{
	pipeline.CategoryDrama,
	pipeline.CategoryAnime,
	pipeline.CategoryFilm,
	pipeline.CategoryBollywood,
}

// FileError reports one unreadable per-source input file. It is always
// recovered: the file is skipped and aggregation continues.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("source file %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Aggregator merges per-source record files into catalog and search index
// artifacts. Artifacts are fully regenerated each run; a category with no
// data is left alone so the previous run's file survives.
type Aggregator struct {
	provider store.Provider
	prefix   string
	clock    pipeline.Clock
	logger   *zap.Logger
}

// New builds an Aggregator writing under prefix via provider.
func New(provider store.Provider, prefix string, clock pipeline.Clock, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		provider: provider,
		prefix:   strings.Trim(prefix, "/"),
		clock:    clock,
		logger:   logger,
	}
}

// Run loads every per-source file under sourcesDir, aggregates, and writes
// all artifacts. Unreadable inputs are skipped; artifact write errors are
// fatal to the run.
func (a *Aggregator) Run(ctx context.Context, sourcesDir string) (Result, error) {
	perSource, skipped := a.loadSourceFiles(sourcesDir)

	// Stable source order keeps the merged set, and therefore every
	// artifact, deterministic.
	sourceIDs := make([]string, 0, len(perSource))
	for id := range perSource {
		sourceIDs = append(sourceIDs, id)
	}
	sort.Strings(sourceIDs)

	var merged []pipeline.ContentRecord
	for _, id := range sourceIDs {
		merged = append(merged, Dedup(perSource[id])...)
	}
	merged = Dedup(merged)

	categorized := Categorize(merged)
	now := a.clock.Now()
	updatedAt := now.UTC().Format(time.RFC3339)

	result := Result{
		PerCategory:  make(map[pipeline.Category]int, len(allCategories)),
		SourcesRead:  len(perSource),
		FilesSkipped: skipped,
	}

	var searchAll []SearchEntry
	for _, cat := range allCategories {
		records := categorized[cat]
		result.PerCategory[cat] = len(records)
		result.TotalItems += len(records)
		if len(records) == 0 {
			a.logger.Info("no records for category, keeping previous artifacts",
				zap.String("category", string(cat)))
			continue
		}

		SortForIndex(records)
		if err := a.writeCatalog(ctx, cat, records, now, updatedAt); err != nil {
			return result, err
		}

		entries := make([]SearchEntry, 0, len(records))
		for _, r := range records {
			entries = append(entries, ToSearchEntry(r))
		}
		searchAll = append(searchAll, entries...)
		if err := a.putJSON(ctx, a.path("search", string(cat)+".json"), SearchProjection{
			Count:     len(entries),
			Results:   entries,
			UpdatedAt: updatedAt,
		}); err != nil {
			return result, err
		}
	}

	if err := a.putJSON(ctx, a.path("search", "index.json"), SearchProjection{
		Count:     len(searchAll),
		Results:   searchAll,
		UpdatedAt: updatedAt,
	}); err != nil {
		return result, err
	}

	if err := a.putJSON(ctx, a.path("global.json"), GlobalSummary{
		TotalItems: result.TotalItems,
		Categories: result.PerCategory,
		UpdatedAt:  updatedAt,
	}); err != nil {
		return result, err
	}

	return result, nil
}

func (a *Aggregator) writeCatalog(ctx context.Context, cat pipeline.Category, records []pipeline.ContentRecord, now time.Time, updatedAt string) error {
	index := Projection{Count: len(records), Results: records, UpdatedAt: updatedAt}
	if err := a.putJSON(ctx, a.path(string(cat), "index.json"), index); err != nil {
		return err
	}

	trending := Trending(records, now)
	if err := a.putJSON(ctx, a.path(string(cat), "trending.json"), Projection{
		Count: len(trending), Results: trending, UpdatedAt: updatedAt,
	}); err != nil {
		return err
	}

	hero := HeroBanner(records, now)
	return a.putJSON(ctx, a.path(string(cat), "heroBanner.json"), Projection{
		Count: len(hero), Results: hero, UpdatedAt: updatedAt,
	})
}

// loadSourceFiles reads every *.json under dir. A malformed or unreadable
// file is logged as a FileError and skipped.
func (a *Aggregator) loadSourceFiles(dir string) (map[string][]pipeline.ContentRecord, int) {
	out := make(map[string][]pipeline.ContentRecord)
	skipped := 0

	entries, err := os.ReadDir(dir)
	if err != nil {
		a.logger.Warn("cannot read sources dir", zap.String("dir", dir), zap.Error(err))
		return out, skipped
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			a.logger.Warn("skipping source file", zap.Error(&FileError{Path: path, Err: err}))
			skipped++
			continue
		}
		var records []pipeline.ContentRecord
		if err := json.Unmarshal(raw, &records); err != nil {
			a.logger.Warn("skipping source file", zap.Error(&FileError{Path: path, Err: err}))
			skipped++
			continue
		}
		sourceID := strings.TrimSuffix(entry.Name(), ".json")
		out[sourceID] = records
	}
	return out, skipped
}

func (a *Aggregator) putJSON(ctx context.Context, path string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if _, err := a.provider.PutObject(ctx, path, artifactContentType, data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (a *Aggregator) path(parts ...string) string {
	if a.prefix == "" {
		return filepath.ToSlash(filepath.Join(parts...))
	}
	return filepath.ToSlash(filepath.Join(append([]string{a.prefix}, parts...)...))
}
