package discolike

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBizData_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/bizdata", r.URL.Path)
		assert.Equal(t, "Example Plumbing", r.URL.Query().Get("name"))
		assert.Equal(t, "Austin", r.URL.Query().Get("city"))
		assert.Equal(t, "test-key", r.Header.Get("x-discolike-key"))

		_, _ = w.Write([]byte(`{
			"domain": "exampleplumbing.com",
			"employees": 42,
			"revenue": 5200000,
			"industry": "Plumbing",
			"address": {"city": "Austin", "state": "TX"}
		}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(0))
	got, err := client.BizData(context.Background(), "Example Plumbing", "Austin")

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "exampleplumbing.com", got.Domain)
	require.NotNil(t, got.Employees)
	assert.Equal(t, 42, *got.Employees)
	require.NotNil(t, got.Revenue)
	assert.InDelta(t, 5200000, *got.Revenue, 0.1)
	assert.Equal(t, "Plumbing", got.Industry)
	assert.False(t, got.Address.Empty())
}

func TestBizData_OmitsEmptyCity(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("city"))
		_, _ = w.Write([]byte(`{"domain": "acme.com"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(0))
	got, err := client.BizData(context.Background(), "Acme", "")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.Employees)
	assert.True(t, got.Address.Empty())
}

func TestBizData_NoMatch(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name   string
		status int
		body   string
	}{
		{"not found", http.StatusNotFound, `{"error":"not found"}`},
		{"empty domain", http.StatusOK, `{"domain": ""}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body)) //nolint:errcheck
			}))
			defer srv.Close()

			client := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(0))
			got, err := client.BizData(context.Background(), "Nobody", "")
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestBizData_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(0))
	_, err := client.BizData(context.Background(), "Acme", "")
	require.Error(t, err)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.HTTPStatus())
}
