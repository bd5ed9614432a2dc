// Package embedder provides a client for the image-text joint-embedding
// inference service (a CLIP-style model behind HTTP).
package embedder

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/clipforge/broll-cli/internal/resilience"
)

// Client defines the embedding oracle operations.
type Client interface {
	// Similarity scores every image against every text. The result has
	// one row per image and one column per text, cosine values in [-1,1].
	Similarity(ctx context.Context, images [][]byte, texts []string) ([][]float64, error)
}

type similarityRequest struct {
	Model  string   `json:"model,omitempty"`
	Images []string `json:"images_b64"`
	Texts  []string `json:"texts"`
}

type similarityResponse struct {
	Matrix [][]float64 `json:"similarity"`
}

// Option configures the embedder client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithModel selects the embedding model served by the backend.
func WithModel(model string) Option {
	return func(c *httpClient) {
		c.model = model
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
	model   string
	http    *http.Client
}

// NewClient creates a new embedding service client.
func NewClient(baseURL string, opts ...Option) Client {
	c := &httpClient{
		baseURL: baseURL,
		model:   "ViT-B-32",
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Similarity(ctx context.Context, images [][]byte, texts []string) ([][]float64, error) {
	encoded := make([]string, len(images))
	for i, img := range images {
		encoded[i] = base64.StdEncoding.EncodeToString(img)
	}

	payload, err := json.Marshal(similarityRequest{
		Model:  c.model,
		Images: encoded,
		Texts:  texts,
	})
	if err != nil {
		return nil, eris.Wrap(err, "embedder: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/similarity", bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "embedder: build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "embedder: similarity request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "embedder: read body")
	}
	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("embedder: similarity returned %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var parsed similarityResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "embedder: decode response")
	}
	if len(parsed.Matrix) != len(images) {
		return nil, eris.Errorf("embedder: got %d rows for %d images", len(parsed.Matrix), len(images))
	}

	return parsed.Matrix, nil
}
