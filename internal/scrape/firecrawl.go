package scrape

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/domain-resolver/pkg/firecrawl"
)

const firecrawlName = "firecrawl"

// FirecrawlAdapter wraps a Firecrawl client as the last-resort Scraper. It
// renders JavaScript, so it reaches pages the local fetch and Jina cannot.
type FirecrawlAdapter struct {
	client firecrawl.Client
}

// NewFirecrawlAdapter creates a FirecrawlAdapter from a Firecrawl client.
func NewFirecrawlAdapter(client firecrawl.Client) *FirecrawlAdapter {
	return &FirecrawlAdapter{client: client}
}

func (f *FirecrawlAdapter) Name() string { return firecrawlName }

func (f *FirecrawlAdapter) Supports(_ string) bool { return true }

// Scrape fetches the main content of a URL as markdown.
func (f *FirecrawlAdapter) Scrape(ctx context.Context, targetURL string) (*Page, error) {
	resp, err := f.client.Scrape(ctx, firecrawl.ScrapeRequest{
		URL:             targetURL,
		Formats:         []string{"markdown"},
		OnlyMainContent: true,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, eris.New("firecrawl: scrape not successful")
	}
	if len(strings.TrimSpace(resp.Data.Markdown)) < minBodyBytes {
		return nil, eris.New("firecrawl: page too thin")
	}

	u := resp.Data.Metadata.SourceURL
	if u == "" {
		u = targetURL
	}
	return &Page{
		URL:        u,
		Title:      resp.Data.Metadata.Title,
		Text:       resp.Data.Markdown,
		StatusCode: resp.Data.Metadata.StatusCode,
		Method:     firecrawlName,
	}, nil
}
