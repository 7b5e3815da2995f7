package failover

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/calvera-dev/showfetch/internal/identity"
	"github.com/calvera-dev/showfetch/internal/metrics"
	"github.com/calvera-dev/showfetch/internal/pipeline"
)

// Config controls controller behavior.
type Config struct {
	// FreshnessWindow bounds how long a remembered winning domain is
	// trusted enough to be tried first.
	FreshnessWindow time.Duration
	JitterMin       time.Duration
	JitterMax       time.Duration
	// BlockAuxiliary is forwarded on every fetch so rendered sessions skip
	// images, fonts and stylesheets.
	BlockAuxiliary bool
}

// Controller implements pipeline.Resolver. One Resolve call walks the
// source's domain list in priority order until a fetch succeeds; there are no
// retries within a single domain beyond what the gateway itself performs.
type Controller struct {
	cfg     Config
	gateway pipeline.Fetcher
	table   pipeline.DomainTable
	clock   pipeline.Clock
	stats   *pipeline.RunStats
	logger  *zap.Logger
}

// New builds a Controller.
func New(cfg Config, gateway pipeline.Fetcher, table pipeline.DomainTable, clock pipeline.Clock, stats *pipeline.RunStats, logger *zap.Logger) *Controller {
	if cfg.FreshnessWindow <= 0 {
		cfg.FreshnessWindow = 6 * time.Hour
	}
	return &Controller{
		cfg:     cfg,
		gateway: gateway,
		table:   table,
		clock:   clock,
		stats:   stats,
		logger:  logger,
	}
}

// Resolve fetches path from the first domain of source that answers. The
// returned document is tagged with the domain actually used so extraction can
// absolutize relative links against the real base URL.
func (c *Controller) Resolve(ctx context.Context, source pipeline.SourceDescriptor, path string) (pipeline.Document, error) {
	order := c.attemptOrder(source)

	var lastErr error
	for i, domain := range order {
		if i > 0 {
			c.pause(ctx)
		}
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		url := joinURL(domain, path)
		doc, err := c.gateway.Fetch(ctx, pipeline.FetchRequest{
			URL:                     url,
			Strategy:                source.Strategy(),
			WaitSelector:            source.WaitSelector,
			BlockAuxiliaryResources: c.cfg.BlockAuxiliary,
		})
		if err != nil {
			lastErr = err
			c.logger.Warn("domain attempt failed",
				zap.String("source", source.ID),
				zap.String("domain", domain),
				zap.Error(err))
			if c.stats != nil {
				c.stats.DomainFailover()
			}
			metrics.ObserveDomainFailover(source.ID)
			continue
		}

		c.table.RecordSuccess(source.ID, domain, c.clock.Now())
		doc.BaseDomain = domain
		return doc, nil
	}

	return pipeline.Document{}, &pipeline.AllDomainsExhaustedError{
		SourceID: source.ID,
		Attempts: len(order),
		LastErr:  lastErr,
	}
}

// attemptOrder builds the domain list: a fresh last-success domain first,
// then the primary, then alternates, each appearing once.
func (c *Controller) attemptOrder(source pipeline.SourceDescriptor) []string {
	var order []string
	seen := make(map[string]struct{})

	if domain, at, ok := c.table.LastSuccess(source.ID); ok {
		if c.clock.Now().Sub(at) < c.cfg.FreshnessWindow {
			order = append(order, domain)
			seen[domain] = struct{}{}
		}
	}
	for _, domain := range source.Endpoints() {
		if _, dup := seen[domain]; dup {
			continue
		}
		seen[domain] = struct{}{}
		order = append(order, domain)
	}
	return order
}

// pause sleeps a jittered delay between domain attempts.
func (c *Controller) pause(ctx context.Context) {
	delay := identity.Jitter(c.cfg.JitterMin, c.cfg.JitterMax)
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func joinURL(domain, path string) string {
	domain = strings.TrimSuffix(domain, "/")
	if path == "" {
		return domain
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return domain + path
}
