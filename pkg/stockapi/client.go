// Package stockapi provides a client for stock-footage search APIs that
// expose a Pexels-style video search endpoint.
package stockapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/clipforge/broll-cli/internal/resilience"
)

// Client defines the candidate retrieval operations.
type Client interface {
	// Search returns raw candidate-video metadata for a keyword query.
	Search(ctx context.Context, query string, opts ...SearchOption) ([]Video, error)
}

// Video is one raw search hit.
type Video struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Duration    float64  `json:"duration"`
	ViewCount   int64    `json:"view_count"`
	Resolution  string   `json:"resolution"`
	Source      string   `json:"source"`
	Tier        int      `json:"tier"`
	URL         string   `json:"url"`
	Thumbnail   string   `json:"thumbnail"`
}

type searchResponse struct {
	Videos []Video `json:"videos"`
	Total  int     `json:"total_results"`
}

// SearchOption configures a search request.
type SearchOption func(*searchOpts)

type searchOpts struct {
	perQuery int
}

// WithPerQuery caps the number of results per query.
func WithPerQuery(n int) SearchOption {
	return func(o *searchOpts) {
		o.perQuery = n
	}
}

// Option configures the stockapi client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables limiting.
func WithRateLimit(perSec float64) Option {
	return func(c *httpClient) {
		if perSec <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new stock footage search client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.pexels.com/videos",
		http: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(2), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, query string, opts ...SearchOption) ([]Video, error) {
	so := searchOpts{perQuery: 15}
	for _, opt := range opts {
		opt(&so)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "stockapi: rate limit wait")
		}
	}

	u := fmt.Sprintf("%s/search?query=%s&per_page=%d", c.baseURL, url.QueryEscape(query), so.perQuery)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, eris.Wrap(err, "stockapi: build request")
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "stockapi: search request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "stockapi: read body")
	}
	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("stockapi: search returned %d: %s", resp.StatusCode, truncate(body, 200))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "stockapi: decode response")
	}

	return parsed.Videos, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
