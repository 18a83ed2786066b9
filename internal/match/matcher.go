// Package match scores how likely a URL is to belong to a named company.
// Scoring is deterministic and performs no I/O.
package match

import (
	"math"
	"slices"
	"strings"
	"unicode"

	"github.com/sells-group/domain-resolver/internal/model"
	"github.com/sells-group/domain-resolver/internal/normalize"
	"github.com/sells-group/domain-resolver/internal/verify"
)

// Input is one (company, URL) pair to score. Context, Snippet and Phone are optional.
type Input struct {
	CompanyName string
	URL         string
	Context     string
	Snippet     string
	Phone       string
}

// Result is a fuzzy match score on the 0-100 scale.
type Result struct {
	Score   float64            `json:"score"`
	Method  model.Method       `json:"method"`
	Details map[string]float64 `json:"details,omitempty"`
}

// Matcher applies the fuzzy matching rules with configured thresholds.
type Matcher struct {
	exact          float64
	good           float64
	minContextHits int
}

// NewMatcher creates a Matcher. Zero thresholds fall back to the defaults.
func NewMatcher(cfg model.FuzzyConfig) *Matcher {
	def := model.DefaultResolverConfig().FuzzyMatching
	m := &Matcher{
		exact:          cfg.ExactMatchThreshold,
		good:           cfg.GoodMatchThreshold,
		minContextHits: cfg.MinContextHits,
	}
	if m.exact <= 0 {
		m.exact = def.ExactMatchThreshold
	}
	if m.good <= 0 {
		m.good = def.GoodMatchThreshold
	}
	if m.minContextHits <= 0 {
		m.minContextHits = def.MinContextHits
	}
	return m
}

// Score applies the base rules in priority order; the first rule that fires wins.
func (m *Matcher) Score(in Input) Result {
	name := normalize.NormalizeName(in.CompanyName)
	compact := strings.NewReplacer(" ", "", "-", "").Replace(name)
	base := normalize.BaseDomain(in.URL)
	if compact == "" || base == "" {
		return result(model.MethodNoMatch, nil)
	}
	baseCompact := strings.ReplaceAll(base, "-", "")

	ratio := Ratio(compact, baseCompact)
	partial := PartialRatio(compact, baseCompact)
	tokenSort := TokenSortRatio(name, strings.ReplaceAll(base, "-", " "))
	details := map[string]float64{
		"ratio":            round1(ratio),
		"partial_ratio":    round1(partial),
		"token_sort_ratio": round1(tokenSort),
	}

	if ratio >= m.exact {
		return result(model.MethodExactDomainMatch, details)
	}

	if (strings.Contains(baseCompact, compact) || strings.Contains(compact, baseCompact)) && ratio >= 80 {
		return result(model.MethodHighSubstringMatch, details)
	}

	if tokenSort >= m.exact {
		return result(model.MethodTokenSortMatch, details)
	}

	snippet := strings.ToLower(in.Snippet)
	if partial >= m.good {
		if in.Context != "" && snippet != "" {
			hits := contextHits(in.Context, snippet)
			details["context_hits"] = float64(hits)
			switch {
			case hits >= m.minContextHits:
				return result(model.MethodPartialMatchWithContext, details)
			case hits == 1:
				return result(model.MethodPartialMatchWeakContext, details)
			}
		}
		if partial >= 80 {
			return result(model.MethodPartialMatchNoContext, details)
		}
	}

	if snippet != "" && strings.Contains(snippet, name) && partial >= 60 {
		return result(model.MethodSnippetNameMatch, details)
	}

	if partial >= 50 {
		return result(model.MethodWeakMatchNeedsLLM, details)
	}

	return result(model.MethodNoMatch, details)
}

// AdvancedScore is Score plus post-processing: an acronym domain floors the
// score at the acronym confidence, and a phone whose trailing digits appear
// in the snippet adds a bonus up to the match cap.
func (m *Matcher) AdvancedScore(in Input) Result {
	r := m.Score(in)
	if r.Details == nil {
		r.Details = map[string]float64{}
	}

	if base := normalize.BaseDomain(in.URL); base != "" && slices.Contains(normalize.Acronyms(in.CompanyName), base) {
		floor := model.Confidence(model.StageMatch, model.MethodAcronymMatch)
		if r.Score < floor {
			r.Score = floor
			r.Method = model.MethodAcronymMatch
		}
	}

	if in.Phone != "" && in.Snippet != "" && verify.PhoneInText(in.Phone, in.Snippet, model.PhoneMatchDigits) {
		r.Score = math.Min(r.Score+model.PhoneSnippetBonus, model.MatchScoreCap)
		r.Details["phone_bonus"] = model.PhoneSnippetBonus
	}

	return r
}

// Scored pairs an input with its score and position.
type Scored struct {
	Index  int
	Input  Input
	Result Result
}

// MatchMultiple scores every candidate and returns the highest scorer. Ties keep
// the earlier input. Returns nil when there are no candidates or none scores above 0.
func (m *Matcher) MatchMultiple(name string, candidates []Input, context string) *Scored {
	var best *Scored
	for i, c := range candidates {
		c.CompanyName = name
		if c.Context == "" {
			c.Context = context
		}
		r := m.AdvancedScore(c)
		if r.Score <= 0 {
			continue
		}
		if best == nil || r.Score > best.Result.Score {
			best = &Scored{Index: i, Input: c, Result: r}
		}
	}
	return best
}

// contextHits counts distinct context words longer than three characters
// that appear in the lowercased snippet.
func contextHits(context, snippet string) int {
	words := strings.FieldsFunc(strings.ToLower(context), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	seen := make(map[string]struct{}, len(words))
	hits := 0
	for _, w := range words {
		if len([]rune(w)) <= 3 {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if strings.Contains(snippet, w) {
			hits++
		}
	}
	return hits
}

func result(method model.Method, details map[string]float64) Result {
	return Result{
		Score:   model.Confidence(model.StageMatch, method),
		Method:  method,
		Details: details,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
