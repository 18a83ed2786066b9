package stage

import (
	"context"
	"math"
	"time"

	"github.com/sells-group/domain-resolver/internal/model"
	"github.com/sells-group/domain-resolver/internal/normalize"
)

// Enrichment resolves a company through a B2B data provider. Providers
// filter parked domains themselves, so a returned domain is trusted at a
// flat base confidence plus a bonus per corroborating field.
type Enrichment struct {
	name     string
	method   model.Method
	source   model.Source
	provider Enricher
	cfg      model.ResolverConfig
	guard    *Guard
}

// NewDiscolike creates the DiscoLike enrichment stage.
func NewDiscolike(provider Enricher, cfg model.ResolverConfig, guard *Guard) *Enrichment {
	return &Enrichment{
		name:     CollaboratorDiscolike,
		method:   model.MethodDiscolikeEnrichment,
		source:   model.SourceDiscolike,
		provider: provider,
		cfg:      cfg,
		guard:    guard,
	}
}

// NewOcean creates the Ocean.io enrichment stage.
func NewOcean(provider Enricher, cfg model.ResolverConfig, guard *Guard) *Enrichment {
	return &Enrichment{
		name:     CollaboratorOcean,
		method:   model.MethodOceanEnrichment,
		source:   model.SourceOcean,
		provider: provider,
		cfg:      cfg,
		guard:    guard,
	}
}

// Name returns the provider name.
func (s *Enrichment) Name() string { return s.name }

// Run looks the company up and scores the returned domain.
func (s *Enrichment) Run(ctx context.Context, q model.CompanyQuery) Outcome {
	e, err := Invoke(ctx, s.guard, s.name, model.Timeout(s.cfg.Timeouts.EnrichSecs, 15*time.Second),
		func(ctx context.Context) (*CompanyProfile, error) {
			return s.provider.Enrich(ctx, q.Name, q.City)
		})
	if err != nil {
		return unavailable(model.StageEnrichment, describe(s.name, err))
	}
	if e == nil || e.Domain == "" {
		return nothing(model.StageEnrichment, s.name+": no match")
	}

	domain := normalize.CleanDomain(e.Domain)
	if domain == "" {
		return nothing(model.StageEnrichment, s.name+": unparsable domain "+e.Domain)
	}
	if s.cfg.IsBlacklisted(domain) {
		return nothing(model.StageEnrichment, s.name+": blacklisted domain "+domain)
	}

	signals := e.Signals()
	conf := model.Confidence(model.StageEnrichment, s.method) + float64(len(signals))*model.EnrichmentSignalBonus
	conf = math.Min(conf, model.EnrichmentCap(s.method))

	return found(model.StageEnrichment, model.Candidate{
		Domain:     domain,
		URL:        normalize.EnsureURL(domain),
		Source:     s.source,
		Confidence: conf,
		Method:     s.method,
		Evidence: model.Evidence{
			Address: e.Address,
			Signals: signals,
		},
	})
}
