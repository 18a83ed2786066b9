// Package ocean provides a client for the Ocean.io company lookup API.
package ocean

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.ocean.io"

// Client looks up companies by name and location.
type Client interface {
	LookupCompany(ctx context.Context, name, city string) (*Company, error)
}

// Company is an Ocean.io company profile.
type Company struct {
	Domain         string   `json:"domain"`
	Name           string   `json:"name,omitempty"`
	CompanySize    string   `json:"companySize,omitempty"`
	EmployeeCount  *int     `json:"employeeCountOcean,omitempty"`
	Revenue        string   `json:"revenue,omitempty"`
	Industries     []string `json:"industries,omitempty"`
	PrimaryAddress string   `json:"primaryAddress,omitempty"`
}

// lookupRequest is the POST body for /v2/lookup/companies.
type lookupRequest struct {
	Companies []lookupCompany `json:"companies"`
}

type lookupCompany struct {
	Name string `json:"name"`
	City string `json:"city,omitempty"`
}

// lookupResponse wraps the matched companies, best match first.
type lookupResponse struct {
	Companies []Company `json:"companies"`
}

// StatusError is returned for non-200 responses other than 404.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ocean: unexpected status %d: %s", e.StatusCode, e.Body)
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
	apiToken string
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
}

// NewClient creates an Ocean.io client throttled at 2 req/s.
func NewClient(apiToken string, opts ...Option) Client {
	c := &httpClient{
		apiToken: apiToken,
		baseURL:  defaultBaseURL,
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

func (c *httpClient) LookupCompany(ctx context.Context, name, city string) (*Company, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "ocean: rate limit")
		}
	}

	body, err := json.Marshal(lookupRequest{Companies: []lookupCompany{{Name: name, City: city}}})
	if err != nil {
		return nil, eris.Wrap(err, "ocean: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/lookup/companies", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "ocean: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Token", c.apiToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "ocean: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "ocean: read response")
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result lookupResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "ocean: unmarshal response")
	}
	for i := range result.Companies {
		if result.Companies[i].Domain != "" {
			return &result.Companies[i], nil
		}
	}
	return nil, nil
}
