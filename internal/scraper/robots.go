package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

// RobotsGate checks robots.txt directives per host before any fetch. The
// policy is fail-open: only an explicit, successfully parsed disallow rule
// blocks a URL. Unreachable hosts, timeouts and malformed robots files all
// permit the fetch.
type RobotsGate struct {
	client    *http.Client
	cache     sync.Map
	userAgent string
	logger    *zap.Logger
}

// NewRobotsGate builds a gate with a short robots fetch timeout.
func NewRobotsGate(userAgent string, logger *zap.Logger) *RobotsGate {
	return &RobotsGate{
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		userAgent: userAgent,
		logger:    logger,
	}
}

// Allowed implements RobotsPolicy.
func (g *RobotsGate) Allowed(ctx context.Context, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return true
	}
	data, err := g.load(ctx, parsed)
	if err != nil {
		g.logger.Warn("robots fetch failed; allowing access",
			zap.String("host", parsed.Host), zap.Error(err))
		return true
	}
	group := data.FindGroup(g.userAgent)
	if group == nil {
		return true
	}
	path := parsed.Path
	if path == "" {
		path = "/"
	}
	return group.Test(path)
}

func (g *RobotsGate) load(ctx context.Context, parsed *url.URL) (*robotstxt.RobotsData, error) {
	hostKey := strings.ToLower(parsed.Scheme + "://" + parsed.Host)
	if cached, ok := g.cache.Load(hostKey); ok {
		data, assertOK := cached.(*robotstxt.RobotsData)
		if !assertOK {
			return nil, fmt.Errorf("robots cache type mismatch: %T", cached)
		}
		return data, nil
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", parsed.Scheme, parsed.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new robots request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			g.logger.Debug("close robots response body", zap.Error(cerr))
		}
	}()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read robots body: %w", err)
	}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("parse robots: %w", err)
	}
	g.cache.Store(hostKey, data)
	return data, nil
}
