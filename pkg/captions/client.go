// Package captions provides a client for the transcript extraction service.
package captions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/clipforge/broll-cli/internal/resilience"
)

// Client defines the transcript provider operations.
type Client interface {
	// Transcript returns the timed caption segments for a video, or
	// (nil, nil) when the video has no captions. Absence is expected,
	// not an error.
	Transcript(ctx context.Context, sourceID string) ([]Segment, error)
}

// Segment is one timed caption line.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type transcriptResponse struct {
	SourceID string    `json:"source_id"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// Option configures the captions client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithLanguage sets the preferred caption language.
func WithLanguage(lang string) Option {
	return func(c *httpClient) {
		c.language = lang
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL  string
	language string
	http     *http.Client
}

// NewClient creates a new transcript service client.
func NewClient(baseURL string, opts ...Option) Client {
	c := &httpClient{
		baseURL:  baseURL,
		language: "en",
		http: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Transcript(ctx context.Context, sourceID string) ([]Segment, error) {
	u := fmt.Sprintf("%s/transcripts/%s?lang=%s", c.baseURL, url.PathEscape(sourceID), url.QueryEscape(c.language))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, eris.Wrap(err, "captions: build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "captions: transcript request")
	}
	defer resp.Body.Close()

	// Missing captions are a normal terminal state downstream.
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "captions: read body")
	}
	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("captions: transcript returned %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var parsed transcriptResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "captions: decode response")
	}

	return parsed.Segments, nil
}
