package stage

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/domain-resolver/internal/match"
	"github.com/sells-group/domain-resolver/internal/model"
	"github.com/sells-group/domain-resolver/internal/normalize"
	"github.com/sells-group/domain-resolver/internal/verify"
)

const placesTopN = 3

// Places resolves a company through map listings.
type Places struct {
	provider PlacesProvider
	cfg      model.ResolverConfig
	matcher  *match.Matcher
	guard    *Guard
}

// NewPlaces creates the Places stage.
func NewPlaces(provider PlacesProvider, cfg model.ResolverConfig, guard *Guard) *Places {
	return &Places{
		provider: provider,
		cfg:      cfg,
		matcher:  match.NewMatcher(cfg.FuzzyMatching),
		guard:    guard,
	}
}

// Run queries "{name} {city}" and considers the first three listings that
// carry a website. A listing whose phone shares its last four digits with
// the query phone becomes a phone_verified candidate. Otherwise the listing
// title must fuzzy-match the website at the name_matched floor.
func (s *Places) Run(ctx context.Context, q model.CompanyQuery) Outcome {
	query := joinNonEmpty(" ", q.Name, q.City)
	places, err := Invoke(ctx, s.guard, CollaboratorPlaces, model.Timeout(s.cfg.Timeouts.PlacesSecs, 10*time.Second),
		func(ctx context.Context) ([]Place, error) {
			return s.provider.PlacesSearch(ctx, query)
		})
	if err != nil {
		return unavailable(model.StagePlaces, describe(CollaboratorPlaces, err))
	}

	nameFloor := model.Confidence(model.StagePlaces, model.MethodNameMatched)
	var cands []model.Candidate
	considered := 0
	for _, p := range places {
		if considered == placesTopN {
			break
		}
		if strings.TrimSpace(p.Website) == "" {
			continue
		}
		considered++

		domain := normalize.CleanDomain(p.Website)
		if domain == "" || s.cfg.IsBlacklisted(domain) {
			continue
		}

		ev := model.Evidence{
			Title:   p.Title,
			Phone:   p.PhoneNumber,
			Address: p.Address,
		}

		if q.Phone != "" && verify.PhoneMatch(q.Phone, p.PhoneNumber, model.PhoneMatchDigits) {
			ev.Signals = []string{"phone_last4"}
			if e164 := verify.NormalizePhone(p.PhoneNumber, ""); e164 != "" {
				ev.Phone = e164
			}
			cands = append(cands, model.Candidate{
				Domain:     domain,
				URL:        p.Website,
				Source:     model.SourceGooglePlaces,
				Confidence: model.Confidence(model.StagePlaces, model.MethodPhoneVerified),
				Method:     model.MethodPhoneVerified,
				Evidence:   ev,
			})
			continue
		}

		title := p.Title
		if title == "" {
			title = q.Name
		}
		res := s.matcher.AdvancedScore(match.Input{CompanyName: title, URL: p.Website})
		if res.Score < nameFloor {
			zap.L().Debug("stage: places listing below name floor",
				zap.String("company", q.Name),
				zap.String("domain", domain),
				zap.Float64("score", res.Score),
			)
			continue
		}
		ev.Signals = []string{string(res.Method)}
		ev.ScoreDetails = res.Details
		cands = append(cands, model.Candidate{
			Domain:     domain,
			URL:        p.Website,
			Source:     model.SourceGooglePlaces,
			Confidence: res.Score,
			Method:     model.MethodNameMatched,
			Evidence:   ev,
		})
	}

	if len(cands) == 0 {
		if considered == 0 {
			return nothing(model.StagePlaces, "no listing with a website")
		}
		return nothing(model.StagePlaces, "no listing matched by phone or name")
	}
	return found(model.StagePlaces, cands...)
}
