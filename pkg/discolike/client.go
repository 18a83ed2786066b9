// Package discolike provides a client for the DiscoLike business data API.
package discolike

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
)

const defaultBaseURL = "https://api.discolike.com"

// Client looks up firmographic data by company name.
type Client interface {
	BizData(ctx context.Context, name, city string) (*BizData, error)
}

// BizData is the business profile returned for a company. A nil *BizData
// with a nil error means the provider had no match.
type BizData struct {
	Domain    string   `json:"domain"`
	Name      string   `json:"name,omitempty"`
	Employees *int     `json:"employees,omitempty"`
	Revenue   *float64 `json:"revenue,omitempty"`
	Industry  string   `json:"industry,omitempty"`
	Address   Address  `json:"address"`
}

// Address is the company's primary location.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country,omitempty"`
}

// Empty reports whether no address component is set.
func (a Address) Empty() bool {
	return a == Address{}
}

// StatusError is returned for non-200 responses other than 404.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("discolike: unexpected status %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus returns the response status code.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit throttles requests to rps per second. Zero disables throttling.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a DiscoLike client throttled at 2 req/s.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: rate.NewLimiter(2, 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) BizData(ctx context.Context, name, city string) (*BizData, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "discolike: rate limit")
		}
	}

	params := url.Values{"name": {name}}
	if city != "" {
		params.Set("city", city)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/bizdata?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "discolike: create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-discolike-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "discolike: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "discolike: read response")
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result BizData
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "discolike: unmarshal response")
	}
	if result.Domain == "" {
		return nil, nil
	}
	return &result, nil
}
