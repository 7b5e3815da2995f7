// Package fetch implements the gateway that retrieves documents using either
// a plain HTTP GET or a rendered browser session, consulting the cache first.
package fetch

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/calvera-dev/showfetch/internal/metrics"
	"github.com/calvera-dev/showfetch/internal/pipeline"
)

// Gateway routes fetch requests to the right strategy. A plain request that
// fails is escalated to the rendered strategy before the failure is reported;
// the failover controller never sees a plain-only failure for a site that a
// browser could still reach.
type Gateway struct {
	cache    pipeline.Cache
	plain    pipeline.Fetcher
	rendered pipeline.Fetcher
	timeout  time.Duration
	stats    *pipeline.RunStats
	logger   *zap.Logger
}

// Config captures the gateway collaborators.
type Config struct {
	Cache    pipeline.Cache
	Plain    pipeline.Fetcher
	Rendered pipeline.Fetcher
	Timeout  time.Duration
	Stats    *pipeline.RunStats
}

// NewGateway builds a Gateway.
func NewGateway(cfg Config, logger *zap.Logger) *Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Gateway{
		cache:    cfg.Cache,
		plain:    cfg.Plain,
		rendered: cfg.Rendered,
		timeout:  cfg.Timeout,
		stats:    cfg.Stats,
		logger:   logger,
	}
}

// Fetch returns the document for request, from cache when fresh.
func (g *Gateway) Fetch(ctx context.Context, request pipeline.FetchRequest) (pipeline.Document, error) {
	if g.cache != nil {
		if payload, ok := g.cache.Get(request.URL); ok {
			g.logger.Debug("cache hit", zap.String("url", request.URL))
			g.recordFetch(pipeline.StrategyPlain, "cache_hit", true)
			return pipeline.Document{
				URL:       request.URL,
				Body:      payload,
				FromCache: true,
				Strategy:  request.Strategy,
			}, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	doc, err := g.fetchLive(ctx, request)
	if err != nil {
		return pipeline.Document{}, err
	}

	if g.cache != nil && len(doc.Body) > 0 {
		g.cache.Put(request.URL, doc.Body)
	}
	return doc, nil
}

func (g *Gateway) fetchLive(ctx context.Context, request pipeline.FetchRequest) (pipeline.Document, error) {
	if request.Strategy == pipeline.StrategyRendered {
		doc, err := g.rendered.Fetch(ctx, request)
		g.recordFetch(pipeline.StrategyRendered, outcome(err), false)
		return doc, err
	}

	doc, err := g.plain.Fetch(ctx, request)
	g.recordFetch(pipeline.StrategyPlain, outcome(err), false)
	if err == nil {
		return doc, nil
	}

	g.logger.Debug("plain fetch failed, escalating to rendered",
		zap.String("url", request.URL), zap.Error(err))
	doc, rerr := g.rendered.Fetch(ctx, request)
	g.recordFetch(pipeline.StrategyRendered, outcome(rerr), false)
	if rerr != nil {
		// Report the rendered failure; it is the last word on the URL.
		return pipeline.Document{}, rerr
	}
	return doc, nil
}

func (g *Gateway) recordFetch(strategy pipeline.FetchStrategy, outcome string, fromCache bool) {
	if g.stats != nil {
		g.stats.PageFetched(fromCache)
	}
	metrics.ObserveFetch(string(strategy), outcome)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
