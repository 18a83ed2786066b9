package stage

import (
	"context"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/domain-resolver/internal/model"
	"github.com/sells-group/domain-resolver/internal/normalize"
	"github.com/sells-group/domain-resolver/internal/parking"
)

// Verification is the scrape-and-verify result for one candidate. When the
// outcome has a candidate it replaces the one that was verified.
type Verification struct {
	Outcome

	// Parked is set when the page was rejected as parked.
	Parked      bool
	ParkReason  parking.Reason
	ParkedScore int

	// Accepted is set when the judge matched at or above the accept floor.
	Accepted bool
	Verdict  *model.Verdict
	Page     *FetchedPage
}

// ScrapeVerify fetches a candidate's page and asks the judge whether it is
// the company's own site.
type ScrapeVerify struct {
	fetcher PageFetcher
	judge   Judge
	cfg     model.ResolverConfig
	parked  *parking.Detector
	guard   *Guard
}

// NewScrapeVerify creates the scrape-and-verify stage. A nil judge limits the
// stage to parked-page rejection.
func NewScrapeVerify(fetcher PageFetcher, judge Judge, cfg model.ResolverConfig, guard *Guard) *ScrapeVerify {
	return &ScrapeVerify{
		fetcher: fetcher,
		judge:   judge,
		cfg:     cfg,
		parked:  parking.New(),
		guard:   guard,
	}
}

// Run verifies cur. A parked page yields a zero-confidence
// parked_domain_rejected candidate. A judge match at the accept floor yields
// a deep_scrape_verified candidate carrying the judge's confidence. Any other
// judgement keeps the domain at the lower of the two confidences; a rejection
// always lands below the manual-review bar.
func (s *ScrapeVerify) Run(ctx context.Context, q model.CompanyQuery, cur model.Candidate) Verification {
	target := cur.URL
	if target == "" {
		target = normalize.EnsureURL(cur.Domain)
	}

	page, err := Invoke(ctx, s.guard, CollaboratorFetcher, model.Timeout(s.cfg.Timeouts.FetchSecs, 20*time.Second),
		func(ctx context.Context) (*FetchedPage, error) {
			return s.fetcher.Fetch(ctx, target)
		})
	if err != nil {
		return Verification{Outcome: unavailable(model.StageScrapeVerify, describe(CollaboratorFetcher, err))}
	}
	if page == nil || strings.TrimSpace(page.Text) == "" {
		return Verification{Outcome: nothing(model.StageScrapeVerify, "fetched page has no text")}
	}

	verdict := s.parked.IsParked(page.Text, target)
	score := s.parked.Confidence(page.Text, target)
	if verdict.Parked || score >= model.ParkedRejectScore {
		reason := verdict.Reason
		if reason == parking.ReasonNone {
			reason = parking.ReasonConfidence
		}
		zap.L().Info("stage: parked page rejected",
			zap.String("company", q.Name),
			zap.String("domain", cur.Domain),
			zap.String("reason", string(reason)),
			zap.Int("parked_score", score),
		)
		rejected := cur
		rejected.Confidence = model.Confidence(model.StageScrapeVerify, model.MethodParkedDomainRejected)
		rejected.Method = model.MethodParkedDomainRejected
		rejected.Evidence.Signals = append(append([]string(nil), cur.Evidence.Signals...), string(reason))
		return Verification{
			Outcome:     found(model.StageScrapeVerify, rejected),
			Parked:      true,
			ParkReason:  reason,
			ParkedScore: score,
			Page:        page,
		}
	}

	if s.judge == nil {
		return Verification{Outcome: nothing(model.StageScrapeVerify, "no judge configured"), ParkedScore: score, Page: page}
	}

	judged, err := Invoke(ctx, s.guard, CollaboratorJudge, model.Timeout(s.cfg.Timeouts.JudgeSecs, 30*time.Second),
		func(ctx context.Context) (*model.Verdict, error) {
			return s.judge.Verify(ctx, q, target, page.Text)
		})
	if err != nil {
		return Verification{Outcome: unavailable(model.StageScrapeVerify, describe(CollaboratorJudge, err)), ParkedScore: score, Page: page}
	}
	if judged == nil {
		return Verification{Outcome: nothing(model.StageScrapeVerify, "judge returned no verdict"), ParkedScore: score, Page: page}
	}

	conf := math.Max(0, math.Min(100, judged.Confidence))
	next := cur
	next.Evidence.Judgement = judged.Evidence

	floor := model.Confidence(model.StageScrapeVerify, model.MethodDeepScrapeVerified)
	accepted := judged.Match && conf >= floor
	switch {
	case accepted:
		next.Confidence = conf
		next.Source = model.SourceLLMVerified
		next.Method = model.MethodDeepScrapeVerified
	case !judged.Match:
		next.Confidence = s.rejectedConfidence(cur.Confidence, conf)
		next.Method = model.MethodLLMRejected
	default:
		next.Confidence = math.Min(cur.Confidence, conf)
	}

	return Verification{
		Outcome:     found(model.StageScrapeVerify, next),
		Accepted:    accepted,
		Verdict:     judged,
		ParkedScore: score,
		Page:        page,
	}
}

// rejectedConfidence scores a candidate the judge said is not the company.
// The judge's confidence is in its answer, so a sure rejection leaves little
// match confidence. The result stays under the manual-review bar so the
// candidate never finalizes as accepted.
func (s *ScrapeVerify) rejectedConfidence(cur, judged float64) float64 {
	c := math.Min(cur, 100-judged)
	c = math.Min(c, s.cfg.Thresholds.ManualReview-1)
	return math.Max(0, c)
}
