package ocean

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

func TestLookupCompany_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/lookup/companies", r.URL.Path)
		assert.Equal(t, "tok", r.Header.Get("X-Api-Token"))

		var body lookupRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Companies, 1)
		assert.Equal(t, "Example Plumbing", body.Companies[0].Name)
		assert.Equal(t, "Austin", body.Companies[0].City)

		_, _ = w.Write([]byte(`{"companies": [
			{"domain": "", "name": "Skipped"},
			{"domain": "exampleplumbing.com", "employeeCountOcean": 40, "industries": ["Construction"], "primaryAddress": "Austin, TX"}
		]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("tok", WithBaseURL(srv.URL), WithRateLimit(0))
	got, err := client.LookupCompany(context.Background(), "Example Plumbing", "Austin")

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "exampleplumbing.com", got.Domain)
	require.NotNil(t, got.EmployeeCount)
	assert.Equal(t, 40, *got.EmployeeCount)
	assert.Equal(t, []string{"Construction"}, got.Industries)
	assert.Equal(t, "Austin, TX", got.PrimaryAddress)
}

func TestLookupCompany_NoMatch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"companies": []}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("tok", WithBaseURL(srv.URL), WithRateLimit(0))
	got, err := client.LookupCompany(context.Background(), "Nobody", "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLookupCompany_Unauthorized(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient("bad", WithBaseURL(srv.URL), WithRateLimit(0))
	_, err := client.LookupCompany(context.Background(), "Acme", "")
	require.Error(t, err)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.HTTPStatus())
}
