// Package search seeds URL lists from a keyword query via a third-party
// search API (Bing Web Search, falling back to SerpAPI).
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const defaultBingEndpoint = "https://api.bing.microsoft.com/v7.0/search"

// ErrNotConfigured is returned when no search credential is present. It is a
// caller-visible configuration error; nothing is retried.
var ErrNotConfigured = errors.New("no search key configured")

// Config holds search provider credentials.
type Config struct {
	BingKey      string
	BingEndpoint string
	SerpAPIKey   string
}

// Client queries the configured provider and returns deduplicated result URLs.
type Client struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// New builds a Client.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.BingEndpoint == "" {
		cfg.BingEndpoint = defaultBingEndpoint
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		logger: logger,
	}
}

// Search returns up to count unique URLs for the query.
func (c *Client) Search(ctx context.Context, query string, count int) ([]string, error) {
	if count <= 0 {
		count = 10
	}
	var (
		urls []string
		err  error
	)
	switch {
	case c.cfg.BingKey != "":
		urls, err = c.searchBing(ctx, query, count)
	case c.cfg.SerpAPIKey != "":
		urls, err = c.searchSerpAPI(ctx, query)
	default:
		return nil, ErrNotConfigured
	}
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, count)
	for _, u := range urls {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
		if len(out) >= count {
			break
		}
	}
	return out, nil
}

func (c *Client) searchBing(ctx context.Context, query string, count int) ([]string, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", fmt.Sprint(count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BingEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("new bing request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.BingKey)

	var payload struct {
		WebPages struct {
			Value []struct {
				URL string `json:"url"`
			} `json:"value"`
		} `json:"webPages"`
	}
	if err := c.doJSON(req, &payload); err != nil {
		return nil, fmt.Errorf("bing search: %w", err)
	}

	urls := make([]string, 0, len(payload.WebPages.Value))
	for _, item := range payload.WebPages.Value {
		if item.URL != "" {
			urls = append(urls, item.URL)
		}
	}
	return urls, nil
}

func (c *Client) searchSerpAPI(ctx context.Context, query string) ([]string, error) {
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("api_key", c.cfg.SerpAPIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://serpapi.com/search.json?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("new serpapi request: %w", err)
	}

	var payload struct {
		OrganicResults []struct {
			Link string `json:"link"`
		} `json:"organic_results"`
	}
	if err := c.doJSON(req, &payload); err != nil {
		return nil, fmt.Errorf("serpapi search: %w", err)
	}

	urls := make([]string, 0, len(payload.OrganicResults))
	for _, item := range payload.OrganicResults {
		if item.Link != "" {
			urls = append(urls, item.Link)
		}
	}
	return urls, nil
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Debug("close search response body", zap.Error(cerr))
		}
	}()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
