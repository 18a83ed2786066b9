package scrape

import (
	"context"
	"unicode/utf8"
)

// Page is a fetched web page reduced to readable text.
type Page struct {
	URL        string
	Title      string
	Text       string
	StatusCode int
	Method     string // scraper that produced the page, e.g. "local_http", "jina"
}

// CharCount returns the length of the page text in characters.
func (p *Page) CharCount() int {
	if p == nil {
		return 0
	}
	return utf8.RuneCountInString(p.Text)
}

// Scraper fetches a single URL and returns its content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Page, error)
	Name() string
	Supports(url string) bool
}
