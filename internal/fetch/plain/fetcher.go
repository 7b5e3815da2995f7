// Package plain implements the lightweight HTTP fetch strategy using gocolly.
package plain

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/calvera-dev/showfetch/internal/identity"
	"github.com/calvera-dev/showfetch/internal/pipeline"
)

// Config controls collector behavior.
type Config struct {
	Timeout time.Duration
}

// Fetcher implements pipeline.Fetcher with a direct HTTP GET. Every fetch
// carries a randomized client identity; TLS verification is relaxed because
// these sites rotate through mismatched certificates when they move domains.
type Fetcher struct {
	cfg           Config
	transport     http.RoundTripper
	baseCollector *colly.Collector
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true

	transport := newHTTPTransport()
	c.WithTransport(transport)

	return &Fetcher{
		cfg:           cfg,
		transport:     transport,
		baseCollector: c,
	}
}

// Fetch executes a single HTTP GET using Colly.
func (f *Fetcher) Fetch(ctx context.Context, request pipeline.FetchRequest) (pipeline.Document, error) {
	var (
		result   pipeline.Document
		fetchErr error
	)
	start := time.Now()
	collector := f.buildCollector(request, start, &result, &fetchErr)

	if err := f.runCollector(ctx, collector, request.URL, &fetchErr); err != nil {
		return pipeline.Document{}, err
	}
	return result, nil
}

func (f *Fetcher) buildCollector(
	request pipeline.FetchRequest,
	start time.Time,
	result *pipeline.Document,
	fetchErr *error,
) *colly.Collector {
	collector := f.baseCollector.Clone()
	collector.SetRequestTimeout(f.cfg.Timeout)
	collector.WithTransport(f.transport)

	fp := identity.NewFingerprint()
	collector.UserAgent = fp.UserAgent

	collector.OnRequest(func(r *colly.Request) {
		for key, values := range fp.Headers() {
			for _, v := range values {
				r.Headers.Set(key, v)
			}
		}
	})

	collector.OnResponse(func(r *colly.Response) {
		*result = pipeline.Document{
			URL:        r.Request.URL.String(),
			Body:       append([]byte(nil), r.Body...),
			StatusCode: r.StatusCode,
			Strategy:   pipeline.StrategyPlain,
			Duration:   time.Since(start),
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode > 0 {
			*fetchErr = pipeline.NewFetchError(request.URL, pipeline.ReasonBadStatus, err)
			return
		}
		*fetchErr = classify(request.URL, err)
	})

	return collector
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return pipeline.NewFetchError(url, pipeline.ReasonTimeout, ctx.Err())
	case err := <-done:
		if *fetchErr != nil {
			return *fetchErr
		}
		if err != nil {
			return classify(url, err)
		}
		return nil
	}
}

func classify(url string, err error) *pipeline.FetchError {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return pipeline.NewFetchError(url, pipeline.ReasonTimeout, err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return pipeline.NewFetchError(url, pipeline.ReasonTimeout, err)
	default:
		return pipeline.NewFetchError(url, pipeline.ReasonNetwork, err)
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // target sites serve mismatched certs across mirror domains
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
