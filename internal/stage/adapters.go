package stage

import (
	"context"
	"strconv"
	"strings"

	"github.com/sells-group/domain-resolver/internal/scrape"
	"github.com/sells-group/domain-resolver/pkg/discolike"
	"github.com/sells-group/domain-resolver/pkg/google"
	"github.com/sells-group/domain-resolver/pkg/ocean"
	"github.com/sells-group/domain-resolver/pkg/serper"
)

// GooglePlaces adapts the Google Places client.
type GooglePlaces struct {
	Client google.Client
}

// PlacesSearch implements PlacesProvider.
func (g GooglePlaces) PlacesSearch(ctx context.Context, query string) ([]Place, error) {
	resp, err := g.Client.TextSearch(ctx, query)
	if err != nil {
		return nil, err
	}
	places := make([]Place, 0, len(resp.Places))
	for _, p := range resp.Places {
		places = append(places, Place{
			Title:       p.DisplayName.Text,
			Website:     p.WebsiteURI,
			PhoneNumber: p.Phone(),
			Address:     p.FormattedAddress,
		})
	}
	return places, nil
}

// SerperSearch adapts the Serper client.
type SerperSearch struct {
	Client serper.Client
}

// Search implements SearchProvider.
func (s SerperSearch) Search(ctx context.Context, query string, n int) (*SearchResponse, error) {
	resp, err := s.Client.Search(ctx, query, n)
	if err != nil {
		return nil, err
	}
	out := &SearchResponse{Organic: make([]Organic, 0, len(resp.Organic))}
	if kg := resp.KnowledgeGraph; kg != nil {
		out.KnowledgeGraph = &KnowledgeGraph{Title: kg.Title, Website: kg.Website, Phone: kg.Phone()}
	}
	for _, o := range resp.Organic {
		out.Organic = append(out.Organic, Organic{
			Link:     o.Link,
			Title:    o.Title,
			Snippet:  o.Snippet,
			Position: o.Position,
		})
	}
	return out, nil
}

// DiscolikeEnricher adapts the DiscoLike client.
type DiscolikeEnricher struct {
	Client discolike.Client
}

// Enrich implements Enricher.
func (d DiscolikeEnricher) Enrich(ctx context.Context, name, city string) (*CompanyProfile, error) {
	bd, err := d.Client.BizData(ctx, name, city)
	if err != nil || bd == nil {
		return nil, err
	}
	e := &CompanyProfile{
		Domain:        bd.Domain,
		EmployeeCount: bd.Employees,
		Industry:      bd.Industry,
	}
	if bd.Revenue != nil && *bd.Revenue > 0 {
		e.Revenue = strconv.FormatFloat(*bd.Revenue, 'f', 0, 64)
	}
	if !bd.Address.Empty() {
		e.Address = joinNonEmpty(", ", bd.Address.Street, bd.Address.City, bd.Address.State, bd.Address.Zip)
	}
	return e, nil
}

// OceanEnricher adapts the Ocean.io client.
type OceanEnricher struct {
	Client ocean.Client
}

// Enrich implements Enricher.
func (o OceanEnricher) Enrich(ctx context.Context, name, city string) (*CompanyProfile, error) {
	c, err := o.Client.LookupCompany(ctx, name, city)
	if err != nil || c == nil {
		return nil, err
	}
	e := &CompanyProfile{
		Domain:        c.Domain,
		EmployeeCount: c.EmployeeCount,
		Revenue:       c.Revenue,
		Address:       c.PrimaryAddress,
	}
	if len(c.Industries) > 0 {
		e.Industry = c.Industries[0]
	}
	return e, nil
}

// ChainFetcher adapts a scrape chain.
type ChainFetcher struct {
	Chain *scrape.Chain
}

// Fetch implements PageFetcher.
func (c ChainFetcher) Fetch(ctx context.Context, url string) (*FetchedPage, error) {
	page, err := c.Chain.Scrape(ctx, url)
	if err != nil {
		return nil, err
	}
	return &FetchedPage{
		URL:       page.URL,
		Text:      page.Text,
		CharCount: page.CharCount(),
		Method:    page.Method,
	}, nil
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
