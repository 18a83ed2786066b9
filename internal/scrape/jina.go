package scrape

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/domain-resolver/internal/resilience"
	"github.com/sells-group/domain-resolver/pkg/jina"
)

const jinaName = "jina"

// challengeSignatures mark reader output that is an interstitial rather
// than the page itself.
var challengeSignatures = []string{
	"checking your browser",
	"enable javascript",
	"please enable cookies",
	"access denied",
	"403 forbidden",
	"just a moment",
	"cloudflare",
	"attention required",
}

// JinaAdapter wraps a Jina Reader client as a Scraper. Three consecutive
// failures open its breaker for a minute, during which the chain skips it.
type JinaAdapter struct {
	client  jina.Client
	breaker *resilience.Breaker
}

// NewJinaAdapter creates a JinaAdapter from a Jina client.
func NewJinaAdapter(client jina.Client) *JinaAdapter {
	return &JinaAdapter{
		client: client,
		breaker: resilience.NewBreaker(jinaName, resilience.BreakerConfig{
			FailureThreshold: 3,
			ResetTimeout:     time.Minute,
		}),
	}
}

func (j *JinaAdapter) Name() string { return jinaName }

// Supports returns true unless the breaker is open.
func (j *JinaAdapter) Supports(_ string) bool {
	return j.breaker.State() != resilience.Open
}

// Scrape fetches a URL via Jina Reader. Thin or challenge responses count
// as failures.
func (j *JinaAdapter) Scrape(ctx context.Context, targetURL string) (*Page, error) {
	return resilience.Call(ctx, j.breaker, func(ctx context.Context) (*Page, error) {
		resp, err := j.client.Read(ctx, targetURL)
		if err != nil {
			return nil, err
		}
		if needsFallback(resp) {
			return nil, eris.New("jina: response needs fallback")
		}
		u := resp.Data.URL
		if u == "" {
			u = targetURL
		}
		return &Page{
			URL:        u,
			Title:      resp.Data.Title,
			Text:       resp.Data.Content,
			StatusCode: resp.Code,
			Method:     jinaName,
		}, nil
	})
}

// needsFallback reports whether a reader response lacks usable content.
func needsFallback(resp *jina.ReadResponse) bool {
	if resp == nil {
		return true
	}
	if resp.Code != 0 && resp.Code != 200 {
		return true
	}

	content := strings.TrimSpace(resp.Data.Content)
	if len(content) < minBodyBytes {
		return true
	}

	if len(content) < 1000 {
		lower := strings.ToLower(content)
		for _, sig := range challengeSignatures {
			if strings.Contains(lower, sig) {
				return true
			}
		}
	}
	return false
}
