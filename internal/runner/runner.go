// Package runner orchestrates one pipeline run: it walks the source registry
// with bounded fan-out, resolves each source across its domains, extracts
// records, and hands the per-source output to aggregation.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/calvera-dev/showfetch/internal/aggregate"
	"github.com/calvera-dev/showfetch/internal/db"
	"github.com/calvera-dev/showfetch/internal/metrics"
	"github.com/calvera-dev/showfetch/internal/pipeline"
	"github.com/calvera-dev/showfetch/internal/progress"
	"github.com/calvera-dev/showfetch/internal/publisher"
	"github.com/calvera-dev/showfetch/internal/registry"
)

// Config bounds orchestration.
type Config struct {
	// FanOut is the number of sources processed concurrently.
	FanOut int
	// SourcesDir receives one JSON file per processed source.
	SourcesDir string
	// Topic names the run-completion notification topic.
	Topic string
}

// Runner drives the whole pipeline. All collaborators share one RunStats for
// the lifetime of a run; Runner instances are built per run.
type Runner struct {
	cfg        Config
	registry   *registry.Registry
	resolver   pipeline.Resolver
	extractor  pipeline.Extractor
	aggregator *aggregate.Aggregator
	catalog    db.Provider
	publisher  publisher.Publisher
	emitter    progress.Emitter
	stats      *pipeline.RunStats
	clock      pipeline.Clock
	ids        pipeline.IDGenerator
	logger     *zap.Logger
}

// Deps lists the collaborators a Runner needs.
type Deps struct {
	Registry   *registry.Registry
	Resolver   pipeline.Resolver
	Extractor  pipeline.Extractor
	Aggregator *aggregate.Aggregator
	Catalog    db.Provider
	Publisher  publisher.Publisher
	Emitter    progress.Emitter
	Stats      *pipeline.RunStats
	Clock      pipeline.Clock
	IDs        pipeline.IDGenerator
	Logger     *zap.Logger
}

// New builds a Runner.
func New(cfg Config, deps Deps) *Runner {
	if cfg.FanOut <= 0 {
		cfg.FanOut = 2
	}
	if cfg.Topic == "" {
		cfg.Topic = "showfetch-runs"
	}
	emitter := deps.Emitter
	if emitter == nil {
		emitter = progress.NopEmitter{}
	}
	catalog := deps.Catalog
	if catalog == nil {
		catalog = db.NoOpProvider{}
	}
	pub := deps.Publisher
	if pub == nil {
		pub = publisher.NoOp{}
	}
	return &Runner{
		cfg:        cfg,
		registry:   deps.Registry,
		resolver:   deps.Resolver,
		extractor:  deps.Extractor,
		aggregator: deps.Aggregator,
		catalog:    catalog,
		publisher:  pub,
		emitter:    emitter,
		stats:      deps.Stats,
		clock:      deps.Clock,
		ids:        deps.IDs,
		logger:     deps.Logger,
	}
}

// RunReport is the terminal output of one run.
type RunReport struct {
	RunID     string              `json:"run_id"`
	Summary   pipeline.RunSummary `json:"summary"`
	Artifacts aggregate.Result    `json:"-"`

	TotalItems   int `json:"total_items"`
	FilesSkipped int `json:"files_skipped"`
	RowsUpserted int `json:"rows_upserted"`
}

// Run executes the pipeline for every registered source in category (empty
// means all). Individual source failures are absorbed; the returned error is
// reserved for conditions that make the run itself worthless.
func (r *Runner) Run(ctx context.Context, category pipeline.Category) (RunReport, error) {
	runID, err := r.ids.NewID()
	if err != nil {
		return RunReport{}, fmt.Errorf("generate run id: %w", err)
	}
	report := RunReport{RunID: runID}

	sources := r.registry.ListSources(category)
	if len(sources) == 0 {
		return report, fmt.Errorf("no sources registered for category %q", category)
	}
	if err := os.MkdirAll(r.cfg.SourcesDir, 0o750); err != nil {
		return report, fmt.Errorf("create sources dir: %w", err)
	}

	start := r.clock.Now()
	r.emit(progress.Event{RunID: runID, TS: start.UTC(), Stage: progress.StageRunStart})
	r.logger.Info("run started",
		zap.String("run_id", runID),
		zap.String("category", string(category)),
		zap.Int("sources", len(sources)),
		zap.Int("fan_out", r.cfg.FanOut))

	var (
		mu        sync.Mutex
		collected []pipeline.ContentRecord
		failed    int
	)
	sem := make(chan struct{}, r.cfg.FanOut)
	var wg sync.WaitGroup
	for _, source := range sources {
		wg.Add(1)
		sem <- struct{}{}
		go func(source pipeline.SourceDescriptor) {
			defer wg.Done()
			defer func() { <-sem }()
			records, err := r.processSource(ctx, runID, source)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				return
			}
			collected = append(collected, records...)
		}(source)
	}
	wg.Wait()

	if failed == len(sources) {
		r.emit(progress.Event{
			RunID: runID, TS: r.clock.Now().UTC(), Stage: progress.StageRunDone,
			Dur: r.clock.Now().Sub(start), Note: "all sources failed",
		})
		return report, fmt.Errorf("all %d sources failed", len(sources))
	}

	artifacts, err := r.aggregator.Run(ctx, r.cfg.SourcesDir)
	report.Artifacts = artifacts
	report.TotalItems = artifacts.TotalItems
	report.FilesSkipped = artifacts.FilesSkipped
	if err != nil {
		return report, fmt.Errorf("aggregate: %w", err)
	}

	rows, err := r.catalog.UpsertRecords(ctx, collected)
	report.RowsUpserted = rows
	if err != nil {
		// The artifacts are already on disk; a catalog store outage
		// should not fail the run.
		r.logger.Warn("catalog store upsert failed", zap.Error(err))
	}

	duration := r.clock.Now().Sub(start)
	summary := r.stats.Snapshot()
	summary.Duration = duration
	report.Summary = summary
	metrics.ObserveRunDuration(duration)

	if _, err := r.publisher.Publish(ctx, r.cfg.Topic, report); err != nil {
		r.logger.Warn("run notification failed", zap.Error(err))
	}
	r.emit(progress.Event{
		RunID: runID, TS: r.clock.Now().UTC(), Stage: progress.StageRunDone,
		Items: report.TotalItems, Dur: duration,
	})
	r.logger.Info("run completed",
		zap.String("run_id", runID),
		zap.Int("total_items", report.TotalItems),
		zap.Int("sources_failed", summary.SourcesFailed),
		zap.Duration("duration", duration))
	return report, nil
}

// processSource resolves, extracts, and persists one source. A source that
// comes back under its minimum item count pulls in its configured backup
// source and merges the two result sets, primary records winning on id.
func (r *Runner) processSource(ctx context.Context, runID string, source pipeline.SourceDescriptor) ([]pipeline.ContentRecord, error) {
	start := r.clock.Now()
	r.emit(progress.Event{
		RunID: runID, TS: start.UTC(), Stage: progress.StageSourceStart,
		Source: source.ID,
	})

	records, err := r.fetchAndExtract(ctx, runID, source)
	if err != nil {
		r.failSource(runID, source.ID, start, err)
		return nil, err
	}

	if len(records) < source.MinAcceptableItems {
		insufficient := &pipeline.InsufficientItemsError{
			SourceID: source.ID,
			Got:      len(records),
			Want:     source.MinAcceptableItems,
		}
		r.logger.Warn("source under minimum, trying backup",
			zap.String("source", source.ID),
			zap.String("backup", source.BackupSourceID),
			zap.Error(insufficient))
		records = r.mergeBackup(ctx, runID, source, records)
		if len(records) == 0 {
			r.failSource(runID, source.ID, start, insufficient)
			return nil, insufficient
		}
	}

	if err := r.writeSourceFile(source.ID, records); err != nil {
		r.failSource(runID, source.ID, start, err)
		return nil, err
	}

	r.stats.SourceProcessed(false)
	r.stats.ItemsExtracted(source.Category, len(records))
	metrics.ObserveSource("ok")
	metrics.ObserveItemsExtracted(source.ID, len(records))
	r.emit(progress.Event{
		RunID: runID, TS: r.clock.Now().UTC(), Stage: progress.StageSourceDone,
		Source: source.ID, Items: len(records), Dur: r.clock.Now().Sub(start),
	})
	return records, nil
}

func (r *Runner) fetchAndExtract(ctx context.Context, runID string, source pipeline.SourceDescriptor) ([]pipeline.ContentRecord, error) {
	doc, err := r.resolver.Resolve(ctx, source, source.ListPath)
	if err != nil {
		return nil, err
	}
	r.emit(progress.Event{
		RunID: runID, TS: r.clock.Now().UTC(), Stage: progress.StageDomainAttempt,
		Source: source.ID, Domain: doc.BaseDomain,
	})
	return r.extractor.Extract(doc, source)
}

// mergeBackup runs the backup source, if configured, and merges its records
// after the primary's, dropping backup records whose id the primary already
// produced. The primary's partial result survives even when the backup fails.
func (r *Runner) mergeBackup(ctx context.Context, runID string, source pipeline.SourceDescriptor, primary []pipeline.ContentRecord) []pipeline.ContentRecord {
	if source.BackupSourceID == "" {
		return primary
	}
	backup, ok := r.registry.Get(source.BackupSourceID)
	if !ok {
		r.logger.Warn("backup source not registered",
			zap.String("source", source.ID),
			zap.String("backup", source.BackupSourceID))
		return primary
	}
	backupRecords, err := r.fetchAndExtract(ctx, runID, backup)
	if err != nil {
		r.logger.Warn("backup source failed",
			zap.String("backup", backup.ID), zap.Error(err))
		return primary
	}

	seen := make(map[string]struct{}, len(primary))
	for _, rec := range primary {
		seen[rec.ID] = struct{}{}
	}
	merged := primary
	for _, rec := range backupRecords {
		if _, dup := seen[rec.ID]; dup {
			continue
		}
		seen[rec.ID] = struct{}{}
		merged = append(merged, rec)
	}
	return merged
}

func (r *Runner) failSource(runID, sourceID string, start time.Time, err error) {
	r.stats.SourceProcessed(true)
	metrics.ObserveSource("failed")
	r.emit(progress.Event{
		RunID: runID, TS: r.clock.Now().UTC(), Stage: progress.StageSourceError,
		Source: sourceID, Dur: r.clock.Now().Sub(start), Note: err.Error(),
	})
	r.logger.Error("source failed", zap.String("source", sourceID), zap.Error(err))
}

func (r *Runner) writeSourceFile(sourceID string, records []pipeline.ContentRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal source %s: %w", sourceID, err)
	}
	path := filepath.Join(r.cfg.SourcesDir, sourceID+".json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write source file %s: %w", path, err)
	}
	return nil
}

func (r *Runner) emit(evt progress.Event) {
	r.emitter.Emit(evt)
}
