package stockapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipforge/broll-cli/internal/resilience"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "rocket launch", r.URL.Query().Get("query"))
		assert.Equal(t, "5", r.URL.Query().Get("per_page"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"total_results":1,"videos":[{"id":"v1","title":"Rocket Launch","duration":42,"source":"pexels","tier":1}]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(0))
	videos, err := c.Search(context.Background(), "rocket launch", WithPerQuery(5))
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "v1", videos[0].ID)
	assert.Equal(t, 42.0, videos[0].Duration)
}

func TestSearch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	_, err := c.Search(context.Background(), "anything")
	assert.Error(t, err)
	assert.True(t, resilience.IsTransient(err), "500 must be retryable")
}

func TestSearch_BadRequestNotTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad query", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL)).Search(context.Background(), "anything")
	assert.Error(t, err)
	assert.False(t, resilience.IsTransient(err), "400 must not be retried")
}
