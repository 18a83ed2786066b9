// Package stage implements the individual waterfall stages. Each stage asks
// one collaborator for evidence and turns it into scored candidates; stages
// never call each other.
package stage

import (
	"context"

	"github.com/sells-group/domain-resolver/internal/model"
)

// Place is one map listing, normalized from the places provider.
type Place struct {
	Title       string
	Website     string
	PhoneNumber string
	Address     string
}

// PlacesProvider searches map listings.
type PlacesProvider interface {
	PlacesSearch(ctx context.Context, query string) ([]Place, error)
}

// KnowledgeGraph is the entity panel attached to a search response.
type KnowledgeGraph struct {
	Title   string
	Website string
	Phone   string
}

// Organic is one organic search hit.
type Organic struct {
	Link     string
	Title    string
	Snippet  string
	Position int
}

// SearchResponse is a normalized web search response.
type SearchResponse struct {
	KnowledgeGraph *KnowledgeGraph
	Organic        []Organic
}

// SearchProvider runs web searches.
type SearchProvider interface {
	Search(ctx context.Context, query string, n int) (*SearchResponse, error)
}

// CompanyProfile is a B2B provider's view of a company. Domain is empty when the
// provider has no match.
type CompanyProfile struct {
	Domain        string
	EmployeeCount *int
	Revenue       string
	Industry      string
	Address       string
}

// Signals lists the corroborating fields present in the response.
func (e *CompanyProfile) Signals() []string {
	if e == nil {
		return nil
	}
	var s []string
	if e.EmployeeCount != nil && *e.EmployeeCount > 0 {
		s = append(s, "employee_count")
	}
	if e.Revenue != "" {
		s = append(s, "revenue")
	}
	if e.Industry != "" {
		s = append(s, "industry")
	}
	if e.Address != "" {
		s = append(s, "address")
	}
	return s
}

// Enricher looks a company up in a B2B data provider.
type Enricher interface {
	Enrich(ctx context.Context, name, city string) (*CompanyProfile, error)
}

// FetchedPage is a candidate's page reduced to text.
type FetchedPage struct {
	URL       string
	Text      string
	CharCount int
	Method    string
}

// PageFetcher fetches a page's readable text.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*FetchedPage, error)
}

// Judge decides whether page text belongs to the queried company.
type Judge interface {
	Verify(ctx context.Context, q model.CompanyQuery, url, text string) (*model.Verdict, error)
}
