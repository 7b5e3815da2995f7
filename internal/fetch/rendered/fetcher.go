// Package rendered implements the browser-rendered fetch strategy via chromedp.
package rendered

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/calvera-dev/showfetch/internal/identity"
	"github.com/calvera-dev/showfetch/internal/pipeline"
)

// auxiliaryURLPatterns matches resource types we never need for extraction.
// Blocking them cuts render time on image-heavy catalog pages considerably.
var auxiliaryURLPatterns = []string{
	"*.png", "*.jpg", "*.jpeg", "*.gif", "*.webp", "*.svg", "*.ico",
	"*.woff", "*.woff2", "*.ttf", "*.otf",
	"*.css",
}

// Config controls the behavior of the rendered fetcher.
type Config struct {
	MaxSessions int
	NavTimeout  time.Duration
	WaitTimeout time.Duration
}

// Fetcher implements pipeline.Fetcher using chromedp and headless Chrome.
// Browser sessions are heavyweight, exclusive resources: each fetch acquires
// a slot, opens a fresh tab context, and releases both on every exit path.
type Fetcher struct {
	cfg         Config
	limiter     chan struct{}
	allocator   context.Context
	allocCancel context.CancelFunc
}

// New creates a rendered fetcher backed by a shared exec allocator.
func New(cfg Config) (*Fetcher, error) {
	if cfg.MaxSessions <= 0 {
		return nil, fmt.Errorf("max sessions must be > 0")
	}
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 45 * time.Second
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = 15 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Fetcher{
		cfg:         cfg,
		limiter:     make(chan struct{}, cfg.MaxSessions),
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}, nil
}

// Close cancels the allocator context, tearing down the browser.
func (f *Fetcher) Close() {
	f.allocCancel()
}

// Fetch renders the page and returns the final DOM. The session slot and tab
// context are released via defer on success, timeout and error alike.
func (f *Fetcher) Fetch(ctx context.Context, request pipeline.FetchRequest) (pipeline.Document, error) {
	if err := f.acquire(ctx); err != nil {
		return pipeline.Document{}, err
	}
	defer f.release()

	taskCtx, taskCancel := chromedp.NewContext(f.allocator)
	defer taskCancel()

	taskCtx, cancel := context.WithTimeout(taskCtx, f.cfg.NavTimeout)
	defer cancel()

	// The tab context descends from the allocator, not from ctx, so caller
	// deadlines and interrupts need an explicit bridge to stop the render.
	stop := cancelWhenDone(ctx, cancel)
	defer stop()

	start := time.Now()
	html, err := f.runSession(taskCtx, request)
	if err != nil {
		return pipeline.Document{}, classifySessionError(ctx, request.URL, err)
	}

	return pipeline.Document{
		URL:        request.URL,
		Body:       []byte(html),
		StatusCode: 200,
		Strategy:   pipeline.StrategyRendered,
		Duration:   time.Since(start),
	}, nil
}

func (f *Fetcher) runSession(ctx context.Context, request pipeline.FetchRequest) (string, error) {
	fp := identity.NewFingerprint()

	var html string
	actions := []chromedp.Action{
		f.sessionSetupAction(fp, request.BlockAuxiliaryResources),
		chromedp.Navigate(request.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if request.WaitSelector != "" {
		actions = append(actions, f.waitForSelector(request.WaitSelector))
	}
	actions = append(actions,
		f.humanMotionAction(fp.Viewport),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err := chromedp.Run(ctx, actions...); err != nil {
		return "", fmt.Errorf("chromedp run: %w", err)
	}
	return html, nil
}

func (f *Fetcher) sessionSetupAction(fp identity.Fingerprint, blockAux bool) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if blockAux {
			if err := network.SetBlockedURLs(auxiliaryURLPatterns).Do(ctx); err != nil {
				return fmt.Errorf("block auxiliary resources: %w", err)
			}
		}
		if err := emulation.SetUserAgentOverride(fp.UserAgent).Do(ctx); err != nil {
			return fmt.Errorf("set user-agent: %w", err)
		}
		if err := emulation.SetDeviceMetricsOverride(fp.Viewport.Width, fp.Viewport.Height, 1, false).Do(ctx); err != nil {
			return fmt.Errorf("set viewport: %w", err)
		}
		if err := network.SetExtraHTTPHeaders(network.Headers{
			"Referer":         fp.Referer,
			"Accept-Language": "en-US,en;q=0.9",
		}).Do(ctx); err != nil {
			return fmt.Errorf("set extra headers: %w", err)
		}
		// Hide the webdriver flag before any site script runs.
		script := "Object.defineProperty(navigator, 'webdriver', {get: () => undefined})"
		if _, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx); err != nil {
			return fmt.Errorf("inject fingerprint script: %w", err)
		}
		return nil
	})
}

// waitForSelector waits for the structural marker under its own sub-timeout
// so a missing marker does not eat the whole navigation budget.
func (f *Fetcher) waitForSelector(selector string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		waitCtx, cancel := context.WithTimeout(ctx, f.cfg.WaitTimeout)
		defer cancel()
		if err := chromedp.WaitVisible(selector, chromedp.ByQuery).Do(waitCtx); err != nil {
			return fmt.Errorf("wait for %q: %w", selector, err)
		}
		return nil
	})
}

// humanMotionAction simulates small randomized pointer and scroll motion.
// Several of the target sites gate content behind interaction heuristics.
func (f *Fetcher) humanMotionAction(vp identity.Viewport) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		moves := identity.RandInt(2, 5)
		x := float64(vp.Width) / 2
		y := float64(vp.Height) / 3
		for i := 0; i < moves; i++ {
			x += float64(identity.RandInt(-80, 80))
			y += float64(identity.RandInt(-60, 60))
			if err := input.DispatchMouseEvent(input.MouseMoved, x, y).Do(ctx); err != nil {
				return fmt.Errorf("dispatch mouse move: %w", err)
			}
			if err := sleepCtx(ctx, identity.Jitter(40*time.Millisecond, 160*time.Millisecond)); err != nil {
				return err
			}
		}
		scroll := identity.RandInt(200, 600)
		if err := chromedp.Evaluate(fmt.Sprintf("window.scrollBy(0, %d)", scroll), nil).Do(ctx); err != nil {
			return fmt.Errorf("scroll: %w", err)
		}
		return sleepCtx(ctx, identity.Jitter(100*time.Millisecond, 400*time.Millisecond))
	})
}

// cancelWhenDone cancels the tab once parent dies. The returned stop releases
// the watcher goroutine; callers must invoke it on every exit path.
func cancelWhenDone(parent context.Context, cancel context.CancelFunc) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}

// classifySessionError maps a chromedp failure onto a fetch reason: caller
// cancellation and deadlines count as timeouts, everything else as a render
// failure.
func classifySessionError(ctx context.Context, url string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return pipeline.NewFetchError(url, pipeline.ReasonTimeout, err)
	}
	return pipeline.NewFetchError(url, pipeline.ReasonRender, err)
}

func (f *Fetcher) acquire(ctx context.Context) error {
	select {
	case f.limiter <- struct{}{}:
		return nil
	case <-ctx.Done():
		return pipeline.NewFetchError("", pipeline.ReasonTimeout, fmt.Errorf("browser slot wait canceled: %w", ctx.Err()))
	}
}

func (f *Fetcher) release() {
	select {
	case <-f.limiter:
	default:
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
