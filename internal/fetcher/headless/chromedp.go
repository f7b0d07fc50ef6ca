// Package headless implements scraper.Fetcher with a rendered-DOM capture
// through headless Chrome.
package headless

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/neonlead/leadscraper/internal/proxy"
)

// Config controls the behavior of the headless fetcher.
type Config struct {
	UserAgent string
	Proxies   *proxy.Picker
}

// Fetcher renders each page in an isolated, disposable browser session. The
// session never outlives a single fetch, even on error.
type Fetcher struct {
	cfg Config
}

// New creates a headless fetcher backed by chromedp.
func New(cfg Config) *Fetcher {
	return &Fetcher{cfg: cfg}
}

// Fetch implements scraper.Fetcher. It navigates with a fresh browser, waits
// for DOM-ready, scrolls part of the page to trigger lazy-loaded content and
// captures the resulting DOM serialization.
func (f *Fetcher) Fetch(ctx context.Context, target string, timeout time.Duration) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	if endpoint := f.cfg.Proxies.Pick(); endpoint != "" {
		opts = append(opts, chromedp.ProxyServer(endpoint))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	taskCtx, timeoutCancel := context.WithTimeout(taskCtx, timeout)
	defer timeoutCancel()

	var html string
	actions := []chromedp.Action{
		f.sessionSetupAction(),
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight/3);`, nil),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return "", fmt.Errorf("chromedp run: %w", err)
	}
	return html, nil
}

func (f *Fetcher) sessionSetupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if f.cfg.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(f.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		// Hide the automation signal before any page script runs.
		script := "Object.defineProperty(navigator, 'webdriver', {get: () => undefined})"
		if _, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx); err != nil {
			return fmt.Errorf("add stealth script: %w", err)
		}
		return nil
	})
}
