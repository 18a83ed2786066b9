package batch

import (
	"github.com/sells-group/domain-resolver/internal/model"
	"github.com/sells-group/domain-resolver/internal/stage"
)

// Summary counts batch outcomes.
type Summary struct {
	Total          int `json:"total"`
	Found          int `json:"found"`
	HighConfidence int `json:"high_confidence"`
	NeedsReview    int `json:"needs_review"`
	Errored        int `json:"errored"`
}

// Summarize counts results. HighConfidence counts found domains at or above
// highBar.
func Summarize(results []model.ResolutionResult, highBar float64) Summary {
	s := Summary{Total: len(results)}
	for i := range results {
		res := &results[i]
		if res.HasDomain() {
			s.Found++
			if res.Confidence >= highBar {
				s.HighConfidence++
			}
		}
		if res.NeedsManualReview {
			s.NeedsReview++
		}
		if Errored(res) {
			s.Errored++
		}
	}
	return s
}

// Errored reports whether a resolution ended without a domain because
// something failed: a collaborator was unavailable, the input was invalid or
// the resolver panicked. An ordinary miss or a parked rejection is not an
// error.
func Errored(res *model.ResolutionResult) bool {
	if res.HasDomain() {
		return false
	}
	for _, se := range res.StageErrors {
		if se.Kind == string(stage.KindUnavailable) {
			return true
		}
	}
	if res.Error == nil || res.Method == model.MethodParkedDomainRejected {
		return false
	}
	return *res.Error != model.ErrNoDomainFound
}

// Cacheable reports whether res may be stored and served in place of a later
// resolution. Results shaped by an unavailable collaborator are retried on
// the next run instead.
func Cacheable(res *model.ResolutionResult) bool {
	if Errored(res) {
		return false
	}
	for _, se := range res.StageErrors {
		if se.Kind == string(stage.KindUnavailable) {
			return false
		}
	}
	return true
}

// Partition returns all results and the subset flagged for manual review.
func Partition(results []model.ResolutionResult) (all, review []model.ResolutionResult) {
	all = results
	for _, res := range results {
		if res.NeedsManualReview {
			review = append(review, res)
		}
	}
	return all, review
}
