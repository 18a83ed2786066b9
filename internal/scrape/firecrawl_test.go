package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/domain-resolver/pkg/firecrawl"
)

func firecrawlServer(t *testing.T, status int, body string) firecrawl.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return firecrawl.NewClient("k", firecrawl.WithBaseURL(srv.URL), firecrawl.WithRateLimit(0))
}

func TestFirecrawlAdapter_Scrape(t *testing.T) {
	t.Parallel()

	body := fmt.Sprintf(`{"success":true,"data":{"markdown":%q,"metadata":{"title":"Acme Corp","sourceURL":"https://acme.com/","statusCode":200}}}`, longContent)
	adapter := NewFirecrawlAdapter(firecrawlServer(t, http.StatusOK, body))

	page, err := adapter.Scrape(context.Background(), "https://acme.com")
	require.NoError(t, err)
	assert.Equal(t, "firecrawl", page.Method)
	assert.Equal(t, "https://acme.com/", page.URL)
	assert.Equal(t, "Acme Corp", page.Title)
	assert.Equal(t, 200, page.StatusCode)
	assert.Equal(t, longContent, page.Text)
}

func TestFirecrawlAdapter_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"unsuccessful", http.StatusOK, `{"success":false}`},
		{"thin page", http.StatusOK, `{"success":true,"data":{"markdown":"hi","metadata":{}}}`},
		{"api error", http.StatusPaymentRequired, `{"error":"credits exhausted"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			adapter := NewFirecrawlAdapter(firecrawlServer(t, tt.status, tt.body))
			_, err := adapter.Scrape(context.Background(), "https://acme.com")
			assert.Error(t, err)
		})
	}
}
