package serper

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_KnowledgeGraph(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-KEY"))

		var body searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Acme Austin official website", body.Q)
		assert.Equal(t, 5, body.Num)
		assert.Equal(t, "us", body.GL)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"knowledgeGraph": {"title": "Acme", "website": "https://acme.com/", "attributes": {"Phone": "(512) 555-0100"}},
			"organic": [{"title": "Acme", "link": "https://acme.com", "snippet": "Acme in Austin", "position": 1}]
		}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(0))
	resp, err := client.Search(context.Background(), "Acme Austin official website", 5)

	require.NoError(t, err)
	require.NotNil(t, resp.KnowledgeGraph)
	assert.Equal(t, "https://acme.com/", resp.KnowledgeGraph.Website)
	assert.Equal(t, "(512) 555-0100", resp.KnowledgeGraph.Phone())
	require.Len(t, resp.Organic, 1)
	assert.Equal(t, 1, resp.Organic[0].Position)
}

func TestSearch_TruncatesOrganic(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		organic := make([]OrganicResult, 8)
		for i := range organic {
			organic[i] = OrganicResult{Link: "https://example.com", Position: i + 1}
		}
		_ = json.NewEncoder(w).Encode(SearchResponse{Organic: organic})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(0))
	resp, err := client.Search(context.Background(), "q", 5)

	require.NoError(t, err)
	assert.Nil(t, resp.KnowledgeGraph)
	assert.Len(t, resp.Organic, 5)
	assert.Equal(t, "", resp.KnowledgeGraph.Phone())
}

func TestSearch_StatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"slow down"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(0))
	resp, err := client.Search(context.Background(), "q", 5)

	require.Error(t, err)
	assert.Nil(t, resp)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.HTTPStatus())
}

func TestSearch_MalformedJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(0))
	_, err := client.Search(context.Background(), "q", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serper: unmarshal response")
}
