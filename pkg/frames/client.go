// Package frames provides a client for the frame extraction service, which
// decodes still images from a video at requested timestamps.
package frames

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/clipforge/broll-cli/internal/resilience"
)

// Client defines the frame sampler operations.
type Client interface {
	// Sample extracts one still image per timestamp. The service may
	// return fewer frames than requested when timestamps fall outside
	// the video.
	Sample(ctx context.Context, sourceID string, timestamps []float64) ([]Frame, error)
}

// Frame is one extracted still image.
type Frame struct {
	Timestamp float64 `json:"timestamp"`
	Data      []byte  `json:"-"`
}

type sampleRequest struct {
	SourceID   string    `json:"source_id"`
	Timestamps []float64 `json:"timestamps"`
}

type sampleResponse struct {
	Frames []struct {
		Timestamp float64 `json:"timestamp"`
		Image     string  `json:"image_b64"`
	} `json:"frames"`
}

// Option configures the frames client.
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

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a new frame extraction client.
func NewClient(baseURL string, opts ...Option) Client {
	c := &httpClient{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Sample(ctx context.Context, sourceID string, timestamps []float64) ([]Frame, error) {
	payload, err := json.Marshal(sampleRequest{SourceID: sourceID, Timestamps: timestamps})
	if err != nil {
		return nil, eris.Wrap(err, "frames: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/frames", bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "frames: build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "frames: sample request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "frames: read body")
	}
	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("frames: sample returned %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var parsed sampleResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "frames: decode response")
	}

	out := make([]Frame, 0, len(parsed.Frames))
	for i, f := range parsed.Frames {
		data, err := base64.StdEncoding.DecodeString(f.Image)
		if err != nil {
			return nil, eris.Wrap(err, fmt.Sprintf("frames: decode frame %d", i))
		}
		out = append(out, Frame{Timestamp: f.Timestamp, Data: data})
	}

	return out, nil
}
