// Package static implements scraper.Fetcher with a plain HTTP GET via Colly.
package static

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/neonlead/leadscraper/internal/proxy"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Proxies   *proxy.Picker
}

// Fetcher issues a single GET per URL using the Colly collector. Redirects
// are followed; any non-2xx response is a hard failure.
type Fetcher struct {
	cfg       Config
	transport *http.Transport
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	transport := newHTTPTransport()
	if cfg.Proxies != nil {
		picker := cfg.Proxies
		transport.Proxy = func(*http.Request) (*url.URL, error) {
			endpoint := picker.Pick()
			if endpoint == "" {
				return nil, nil
			}
			proxyURL, err := url.Parse(endpoint)
			if err != nil {
				return nil, fmt.Errorf("parse proxy endpoint: %w", err)
			}
			return proxyURL, nil
		}
	}
	return &Fetcher{cfg: cfg, transport: transport}
}

// Fetch implements scraper.Fetcher.
func (f *Fetcher) Fetch(ctx context.Context, target string, timeout time.Duration) (string, error) {
	var (
		body     string
		fetchErr error
	)

	collector := colly.NewCollector()
	collector.UserAgent = f.cfg.UserAgent
	// The robots gate runs before any fetch, so the collector's own check is
	// redundant and would double-fetch robots.txt.
	collector.IgnoreRobotsTxt = true
	collector.WithTransport(f.transport)
	collector.SetRequestTimeout(timeout)

	collector.OnResponse(func(r *colly.Response) {
		body = string(r.Body)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode > 0 {
			fetchErr = fmt.Errorf("status code %d: %w", r.StatusCode, err)
			return
		}
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(target)
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("static fetch canceled: %w", ctx.Err())
	case err := <-done:
		if fetchErr != nil {
			return "", fmt.Errorf("static fetch failed: %w", fetchErr)
		}
		if err != nil {
			return "", fmt.Errorf("static fetch visit: %w", err)
		}
		return body, nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
