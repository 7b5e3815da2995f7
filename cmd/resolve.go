package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/calvera-dev/showfetch/internal/cache"
	"github.com/calvera-dev/showfetch/internal/clock/system"
	"github.com/calvera-dev/showfetch/internal/failover"
	"github.com/calvera-dev/showfetch/internal/fetch"
	"github.com/calvera-dev/showfetch/internal/fetch/plain"
	"github.com/calvera-dev/showfetch/internal/fetch/rendered"
	"github.com/calvera-dev/showfetch/internal/metrics"
	"github.com/calvera-dev/showfetch/internal/pipeline"
	"github.com/calvera-dev/showfetch/internal/registry"
	"github.com/calvera-dev/showfetch/internal/stream"
)

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <source-id> <detail-path>",
		Short: "Resolves the best stream for one detail page",
		Long: `Fetches a single detail page from the named source, discovers every
playable media candidate on it, and prints the highest-quality pick as JSON.`,
		Args: cobra.ExactArgs(2),
		RunE: runResolve,
	}
	cmd.Flags().Bool("all", false, "print every discovered candidate, not just the best")
	return cmd
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	reg, err := registry.Load(cfg.Sources.File)
	if err != nil {
		return fmt.Errorf("load source registry: %w", err)
	}
	source, ok := reg.Get(args[0])
	if !ok {
		return fmt.Errorf("unknown source %q", args[0])
	}

	metrics.Init()
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

	doc, err := resolver.Resolve(cmd.Context(), source, args[1])
	if err != nil {
		return fmt.Errorf("resolve detail page: %w", err)
	}

	candidates, err := stream.Discover(doc)
	if err != nil {
		return fmt.Errorf("discover streams: %w", err)
	}

	printAll, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}
	if printAll {
		return printJSON(candidates)
	}

	best, err := stream.SelectBest(candidates)
	if err != nil {
		return fmt.Errorf("select stream: %w", err)
	}
	return printJSON(best)
}

func printJSON(payload any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
