package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/calvera-dev/showfetch/internal/aggregate"
	"github.com/calvera-dev/showfetch/internal/cache"
	"github.com/calvera-dev/showfetch/internal/clock/system"
	"github.com/calvera-dev/showfetch/internal/config"
	"github.com/calvera-dev/showfetch/internal/db"
	"github.com/calvera-dev/showfetch/internal/extract"
	"github.com/calvera-dev/showfetch/internal/failover"
	"github.com/calvera-dev/showfetch/internal/fetch"
	"github.com/calvera-dev/showfetch/internal/fetch/plain"
	"github.com/calvera-dev/showfetch/internal/fetch/rendered"
	"github.com/calvera-dev/showfetch/internal/identity"
	"github.com/calvera-dev/showfetch/internal/metrics"
	"github.com/calvera-dev/showfetch/internal/pipeline"
	"github.com/calvera-dev/showfetch/internal/progress"
	"github.com/calvera-dev/showfetch/internal/progress/sinks"
	"github.com/calvera-dev/showfetch/internal/publisher"
	"github.com/calvera-dev/showfetch/internal/publisher/memory"
	pubsubpub "github.com/calvera-dev/showfetch/internal/publisher/pubsub"
	"github.com/calvera-dev/showfetch/internal/registry"
	"github.com/calvera-dev/showfetch/internal/runner"
	"github.com/calvera-dev/showfetch/internal/store"
	"github.com/calvera-dev/showfetch/internal/store/gcs"
	"github.com/calvera-dev/showfetch/internal/store/local"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Runs the extraction pipeline over the source registry",
		Long: `Fetches every registered source (optionally narrowed to one category),
extracts content records, and regenerates the catalog and search index
artifacts. Individual source failures are absorbed; the command fails only
when the run as a whole produced nothing usable.`,
		RunE: runPipeline,
	}
	cmd.Flags().String("category", "", "only process sources in this category (drama, anime, film, bollywood)")
	return cmd
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	category, err := resolveCategory(cmd, cfg)
	if err != nil {
		return err
	}

	metrics.Init()
	if cfg.Metrics.Addr != "" {
		startMetricsServer(cfg.Metrics.Addr, logger)
	}

	reg, err := registry.Load(cfg.Sources.File)
	if err != nil {
		return fmt.Errorf("load source registry: %w", err)
	}

	clk := system.New()
	stats := pipeline.NewRunStats()

	var docCache pipeline.Cache
	if !cfg.Cache.Disabled {
		cacheStore, err := cache.New(cache.Config{
			Dir:       cfg.Cache.Dir,
			TTL:       cfg.CacheTTL(),
			WriteMeta: cfg.Cache.WriteMeta,
		}, clk, logger)
		if err != nil {
			return fmt.Errorf("init cache: %w", err)
		}
		docCache = cacheStore
	}

	renderedFetcher, err := rendered.New(rendered.Config{
		MaxSessions: cfg.Fetch.MaxBrowserSessions,
		NavTimeout:  time.Duration(cfg.Fetch.NavTimeoutSeconds) * time.Second,
		WaitTimeout: time.Duration(cfg.Fetch.WaitTimeoutSeconds) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("init rendered fetcher: %w", err)
	}
	defer renderedFetcher.Close()

	gateway := fetch.NewGateway(fetch.Config{
		Cache:    docCache,
		Plain:    plain.New(plain.Config{Timeout: cfg.FetchTimeout()}),
		Rendered: renderedFetcher,
		Timeout:  cfg.FetchTimeout(),
		Stats:    stats,
	}, logger)

	resolver := failover.New(failover.Config{
		FreshnessWindow: cfg.FreshnessWindow(),
		JitterMin:       time.Duration(cfg.Failover.JitterMinMs) * time.Millisecond,
		JitterMax:       time.Duration(cfg.Failover.JitterMaxMs) * time.Millisecond,
		BlockAuxiliary:  cfg.Fetch.BlockAuxiliary,
	}, gateway, failover.NewMemoryTable(), clk, stats, logger)

	artifactStore, err := buildArtifactStore(ctx, cfg)
	if err != nil {
		return err
	}

	catalog, err := buildCatalogStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = catalog.Close() }()

	pub, closePub, err := buildPublisher(ctx, cfg)
	if err != nil {
		return err
	}
	defer closePub()

	hub, err := buildProgressHub(logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hub.Close(closeCtx); err != nil {
			logger.Warn("progress hub close failed", zap.Error(err))
		}
	}()

	pipe := runner.New(runner.Config{
		FanOut:     cfg.Runner.FanOut,
		SourcesDir: filepath.Join(cfg.Output.Dir, "sources"),
	}, runner.Deps{
		Registry:   reg,
		Resolver:   resolver,
		Extractor:  extract.NewEngine(clk, stats, logger),
		Aggregator: aggregate.New(artifactStore, cfg.Output.Prefix, clk, logger),
		Catalog:    catalog,
		Publisher:  pub,
		Emitter:    hub,
		Stats:      stats,
		Clock:      clk,
		IDs:        identity.UUIDGenerator{},
		Logger:     logger,
	})

	report, err := pipe.Run(ctx, category)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run pipeline: %w", err)
	}
	logger.Info("run report",
		zap.String("run_id", report.RunID),
		zap.Int("total_items", report.TotalItems),
		zap.Int("rows_upserted", report.RowsUpserted))
	return nil
}

func resolveCategory(cmd *cobra.Command, cfg config.Config) (pipeline.Category, error) {
	raw, err := cmd.Flags().GetString("category")
	if err != nil {
		return "", err
	}
	if raw == "" {
		raw = cfg.Runner.Category
	}
	switch cat := pipeline.Category(raw); cat {
	case "", pipeline.CategoryDrama, pipeline.CategoryAnime, pipeline.CategoryFilm, pipeline.CategoryBollywood:
		return cat, nil
	default:
		return "", fmt.Errorf("unknown category %q", raw)
	}
}

func startMetricsServer(addr string, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics endpoint listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
}

func buildArtifactStore(ctx context.Context, cfg config.Config) (store.Provider, error) {
	switch cfg.Output.Provider {
	case "noop":
		return store.NoOpProvider{}, nil
	case "gcs":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("init gcs client: %w", err)
		}
		return gcs.New(client, gcs.Config{Bucket: cfg.Output.Bucket})
	default:
		if err := os.MkdirAll(cfg.Output.Dir, 0o750); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
		return local.New(local.Config{BaseDir: cfg.Output.Dir})
	}
}

func buildCatalogStore(ctx context.Context, cfg config.Config) (db.Provider, error) {
	if cfg.DB.Provider != "postgres" {
		return db.NoOpProvider{}, nil
	}
	provider, err := db.NewPostgresProvider(ctx, cfg.DB.DSN)
	if err != nil {
		return nil, fmt.Errorf("init catalog store: %w", err)
	}
	return provider, nil
}

func buildPublisher(ctx context.Context, cfg config.Config) (publisher.Publisher, func(), error) {
	switch cfg.Publisher.Provider {
	case "pubsub":
		p, err := pubsubpub.New(ctx, cfg.Publisher.ProjectID, cfg.Publisher.TopicName)
		if err != nil {
			return nil, nil, fmt.Errorf("init pubsub publisher: %w", err)
		}
		return p, func() { _ = p.Close() }, nil
	case "noop":
		return publisher.NoOp{}, func() {}, nil
	default:
		return memory.New(), func() {}, nil
	}
}

func buildProgressHub(logger *zap.Logger) (*progress.Hub, error) {
	promSink, err := sinks.NewPrometheusSink(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, fmt.Errorf("init progress metrics: %w", err)
	}
	return progress.NewHub(progress.Config{Logger: logger},
		sinks.NewLogSink(logger.Named("progress")),
		promSink,
	), nil
}
