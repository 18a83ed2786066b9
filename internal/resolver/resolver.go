// Package resolver runs the domain resolution waterfall for one company:
// Places, Search, Scrape+Verify, Enrichment, then finalization.
package resolver

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/domain-resolver/internal/metrics"
	"github.com/sells-group/domain-resolver/internal/model"
	"github.com/sells-group/domain-resolver/internal/stage"
)

// DNSChecker reports whether a domain has address records.
type DNSChecker interface {
	Resolves(ctx context.Context, domain string) bool
}

// Deps are the collaborators of a Resolver. A nil collaborator disables its
// stage regardless of the config flag.
type Deps struct {
	Places    stage.PlacesProvider
	Search    stage.SearchProvider
	Fetcher   stage.PageFetcher
	Judge     stage.Judge
	Discolike stage.Enricher
	Ocean     stage.Enricher
	DNS       DNSChecker
	Guard     *stage.Guard
}

// Resolver resolves company identities to domains. It is safe for
// concurrent use; each Resolve call owns its own state.
type Resolver struct {
	cfg model.ResolverConfig

	places    *stage.Places
	search    *stage.Search
	verify    *stage.ScrapeVerify
	enrichers []*stage.Enrichment
	dns       DNSChecker
}

// New creates a Resolver. cfg is copied and never read from elsewhere.
func New(cfg model.ResolverConfig, deps Deps) *Resolver {
	r := &Resolver{cfg: cfg, dns: deps.DNS}
	if cfg.Stages.UsePlaces && deps.Places != nil {
		r.places = stage.NewPlaces(deps.Places, cfg, deps.Guard)
	}
	if cfg.Stages.UseSearch && deps.Search != nil {
		r.search = stage.NewSearch(deps.Search, cfg, deps.Guard)
	}
	if cfg.Stages.UseScraping && deps.Fetcher != nil {
		r.verify = stage.NewScrapeVerify(deps.Fetcher, deps.Judge, cfg, deps.Guard)
	}
	if cfg.Stages.UseDiscolike && deps.Discolike != nil {
		r.enrichers = append(r.enrichers, stage.NewDiscolike(deps.Discolike, cfg, deps.Guard))
	}
	if cfg.Stages.UseOcean && deps.Ocean != nil {
		r.enrichers = append(r.enrichers, stage.NewOcean(deps.Ocean, cfg, deps.Guard))
	}
	return r
}

// Config returns the resolver's configuration.
func (r *Resolver) Config() model.ResolverConfig { return r.cfg }

// Resolve runs the waterfall for q. It always returns a result: collaborator
// failures become stage diagnostics and a company nothing resolved is
// flagged for manual review.
func (r *Resolver) Resolve(ctx context.Context, q model.CompanyQuery) (res model.ResolutionResult) {
	started := time.Now()
	res = model.NewResult(q)

	defer func() {
		if p := recover(); p != nil {
			err := eris.Errorf("resolver: panic: %v", p)
			zap.L().Error("resolver: resolution panicked",
				zap.String("company", q.Name),
				zap.Error(err),
			)
			res.Domain = nil
			res.Confidence = 0
			res.NeedsManualReview = true
			res.SetError(err.Error())
		}
		res.ResolvedAt = time.Now().UTC()
		metrics.ResolutionDuration.Observe(time.Since(started).Seconds())
		metrics.ResolutionsTotal.WithLabelValues(outcomeLabel(&res)).Inc()
		zap.L().Info("resolver: resolved",
			zap.String("company", q.Name),
			zap.String("domain", res.DomainOrEmpty()),
			zap.Float64("confidence", res.Confidence),
			zap.String("method", string(res.Method)),
			zap.String("stage", string(res.StageReached)),
			zap.Bool("needs_review", res.NeedsManualReview),
			zap.Duration("elapsed", time.Since(started)),
		)
	}()

	if !q.Valid() {
		res.NeedsManualReview = true
		res.SetError("company name is required")
		return res
	}

	var best *model.Candidate

	// Places is the only stage whose result can skip everything after it.
	if r.places != nil {
		out := r.runStage(ctx, &res, model.StagePlaces, func() stage.Outcome { return r.places.Run(ctx, q) })
		best = out.Best()
		if best != nil && best.Confidence >= r.cfg.Thresholds.AutoAccept {
			r.finalize(ctx, &res, best)
			return res
		}
	}

	if r.search != nil {
		out := r.runStage(ctx, &res, model.StageSearch, func() stage.Outcome { return r.search.Run(ctx, q) })
		best = model.Best(best, out.Best())
	}

	if r.verify != nil && best != nil {
		v := r.runVerify(ctx, &res, q, *best)
		switch {
		case v.Parked:
			r.rejectParked(&res, best, v)
			return res
		case v.Best() != nil:
			best = v.Best()
			if v.Accepted && best.Confidence >= r.cfg.Thresholds.ManualReview {
				r.finalize(ctx, &res, best)
				return res
			}
		}
	}

	for _, e := range r.enrichers {
		if best != nil && best.Confidence >= r.cfg.Thresholds.ManualReview {
			break
		}
		out := r.runStage(ctx, &res, model.StageEnrichment, func() stage.Outcome { return e.Run(ctx, q) })
		if c := out.Best(); c != nil && (best == nil || c.Confidence > best.Confidence) {
			zap.L().Debug("resolver: adopted enrichment candidate",
				zap.String("company", q.Name),
				zap.String("provider", e.Name()),
				zap.String("domain", c.Domain),
				zap.Float64("confidence", c.Confidence),
			)
			best = c
		}
	}

	r.finalize(ctx, &res, best)
	return res
}

// runStage runs one stage, converting a panic in the stage itself into an
// unavailable outcome, and records its diagnostics on res.
func (r *Resolver) runStage(ctx context.Context, res *model.ResolutionResult, st model.Stage, run func() stage.Outcome) (out stage.Outcome) {
	res.StageReached = st
	defer func() {
		if p := recover(); p != nil {
			out = stage.Outcome{Stage: st, Kind: stage.KindUnavailable, Err: eris.Errorf("resolver: %s stage panicked: %v", st, p)}
		}
		r.record(res, out)
	}()
	return run()
}

func (r *Resolver) runVerify(ctx context.Context, res *model.ResolutionResult, q model.CompanyQuery, cur model.Candidate) (v stage.Verification) {
	res.StageReached = model.StageScrapeVerify
	defer func() {
		if p := recover(); p != nil {
			v = stage.Verification{Outcome: stage.Outcome{
				Stage: model.StageScrapeVerify,
				Kind:  stage.KindUnavailable,
				Err:   eris.Errorf("resolver: %s stage panicked: %v", model.StageScrapeVerify, p),
			}}
		}
		r.record(res, v.Outcome)
	}()
	return r.verify.Run(ctx, q, cur)
}

func (r *Resolver) record(res *model.ResolutionResult, out stage.Outcome) {
	label := "candidate"
	if se := out.StageError(); se != nil {
		res.StageErrors = append(res.StageErrors, *se)
		label = se.Kind
		fields := []zap.Field{
			zap.String("company", res.Name),
			zap.String("stage", string(out.Stage)),
			zap.String("kind", se.Kind),
			zap.String("detail", se.Message),
		}
		if out.Failed() {
			zap.L().Warn("resolver: stage unavailable", fields...)
		} else {
			zap.L().Debug("resolver: stage produced nothing", fields...)
		}
	} else if best := out.Best(); best != nil {
		zap.L().Debug("resolver: stage candidate",
			zap.String("company", res.Name),
			zap.String("stage", string(out.Stage)),
			zap.String("domain", best.Domain),
			zap.Float64("confidence", best.Confidence),
			zap.String("method", string(best.Method)),
		)
	}
	metrics.StageOutcomes.WithLabelValues(string(out.Stage), label).Inc()
}

// rejectParked ends the resolution after the candidate's page was found
// parked. The domain is discarded.
func (r *Resolver) rejectParked(res *model.ResolutionResult, cand *model.Candidate, v stage.Verification) {
	res.Domain = nil
	res.URL = ""
	res.Confidence = 0
	res.Source = cand.Source
	res.Method = model.MethodParkedDomainRejected
	res.NeedsManualReview = true
	res.SetError("Parked domain rejected: " + cand.Domain + " (" + string(v.ParkReason) + ")")
}

// finalize applies the decision held in best. Confident domains are DNS
// checked; anything below the review bar keeps its domain for a human.
func (r *Resolver) finalize(ctx context.Context, res *model.ResolutionResult, best *model.Candidate) {
	if best == nil || best.Domain == "" {
		res.NeedsManualReview = true
		res.SetError(model.ErrNoDomainFound)
		return
	}

	res.Apply(best)
	if best.Confidence < r.cfg.Thresholds.ManualReview {
		res.NeedsManualReview = true
		return
	}
	if r.dns == nil {
		return
	}

	res.Verified = r.dns.Resolves(ctx, best.Domain)
	if !res.Verified {
		res.NeedsManualReview = true
		res.StageErrors = append(res.StageErrors, model.StageError{
			Stage:   model.StageFinal,
			Kind:    model.KindDNSUnresolved,
			Message: "dns lookup failed for " + best.Domain,
		})
	}
}

func outcomeLabel(res *model.ResolutionResult) string {
	switch {
	case !res.HasDomain():
		return metrics.OutcomeNoDomain
	case res.NeedsManualReview:
		return metrics.OutcomeNeedsReview
	default:
		return metrics.OutcomeAccepted
	}
}
