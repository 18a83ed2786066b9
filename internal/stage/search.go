package stage

import (
	"context"
	"time"

	"github.com/sells-group/domain-resolver/internal/match"
	"github.com/sells-group/domain-resolver/internal/model"
	"github.com/sells-group/domain-resolver/internal/normalize"
	"github.com/sells-group/domain-resolver/internal/parking"
)

const searchTopN = 5

// Search resolves a company through a web search with knowledge graph.
type Search struct {
	provider SearchProvider
	cfg      model.ResolverConfig
	matcher  *match.Matcher
	parked   *parking.Detector
	guard    *Guard
}

// NewSearch creates the Search stage.
func NewSearch(provider SearchProvider, cfg model.ResolverConfig, guard *Guard) *Search {
	return &Search{
		provider: provider,
		cfg:      cfg,
		matcher:  match.NewMatcher(cfg.FuzzyMatching),
		parked:   parking.New(),
		guard:    guard,
	}
}

// Query builds the search query for q.
func Query(q model.CompanyQuery) string {
	return joinNonEmpty(" ", q.Name, q.City, q.Context, "official website")
}

// Run searches for the company's official site. A knowledge graph website
// wins outright and organic results are not scored. Otherwise the top five
// organic results are filtered (blacklisted domains, parked snippets) and the
// single best fuzzy match is kept.
func (s *Search) Run(ctx context.Context, q model.CompanyQuery) Outcome {
	query := Query(q)
	resp, err := Invoke(ctx, s.guard, CollaboratorSearch, model.Timeout(s.cfg.Timeouts.SearchSecs, 15*time.Second),
		func(ctx context.Context) (*SearchResponse, error) {
			return s.provider.Search(ctx, query, searchTopN)
		})
	if err != nil {
		return unavailable(model.StageSearch, describe(CollaboratorSearch, err))
	}
	if resp == nil {
		return nothing(model.StageSearch, "empty search response")
	}

	if kg := resp.KnowledgeGraph; kg != nil && kg.Website != "" {
		domain := normalize.CleanDomain(kg.Website)
		if domain != "" && !s.cfg.IsBlacklisted(domain) {
			return found(model.StageSearch, model.Candidate{
				Domain:     domain,
				URL:        kg.Website,
				Source:     model.SourceGoogleKG,
				Confidence: model.Confidence(model.StageSearch, model.MethodKnowledgeGraph),
				Method:     model.MethodKnowledgeGraph,
				Evidence:   model.Evidence{Title: kg.Title, Phone: kg.Phone},
			})
		}
	}

	organic := resp.Organic
	if len(organic) > searchTopN {
		organic = organic[:searchTopN]
	}
	inputs := make([]match.Input, 0, len(organic))
	kept := make([]Organic, 0, len(organic))
	for _, o := range organic {
		domain := normalize.CleanDomain(o.Link)
		if domain == "" || s.cfg.IsBlacklisted(domain) {
			continue
		}
		if s.parked.IsParked(o.Snippet, o.Link).Parked {
			continue
		}
		inputs = append(inputs, match.Input{URL: o.Link, Snippet: o.Snippet, Phone: q.Phone})
		kept = append(kept, o)
	}
	if len(inputs) == 0 {
		return nothing(model.StageSearch, "no organic result survived filtering")
	}

	best := s.matcher.MatchMultiple(q.Name, inputs, q.Context)
	if best == nil {
		return nothing(model.StageSearch, "no organic result matched the name")
	}
	o := kept[best.Index]
	return found(model.StageSearch, model.Candidate{
		Domain:     normalize.CleanDomain(o.Link),
		URL:        o.Link,
		Source:     model.SourceSerperSearch,
		Confidence: best.Result.Score,
		Method:     best.Result.Method,
		Evidence: model.Evidence{
			Snippet:      o.Snippet,
			Title:        o.Title,
			Position:     o.Position,
			ScoreDetails: best.Result.Details,
		},
	})
}
