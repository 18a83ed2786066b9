// Package parking detects parked, for-sale and placeholder domains from page
// text and URL.
package parking

import (
	"regexp"
	"strings"
)

// Reason describes why a page was classified as parked.
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonKeyword    Reason = "parking_keyword"
	ReasonService    Reason = "parking_service"
	ReasonPattern    Reason = "parking_pattern"
	ReasonThinDomain Reason = "thin_domain_page"

	// ReasonConfidence marks a rejection on the summed score alone.
	ReasonConfidence Reason = "parked_confidence"
)

// Verdict is the boolean parking classification.
type Verdict struct {
	Parked bool   `json:"parked"`
	Reason Reason `json:"reason,omitempty"`
	Match  string `json:"match,omitempty"`
}

// Contribution weights for Confidence.
const (
	weightKeyword     = 80
	weightService     = 90
	weightPattern     = 70
	weightComingSoon  = 60
	weightGeneric     = 50
	weightUnder100    = 20
	weightUnder50     = 40
	thinPageWordLimit = 50
)

var keywords = []string{
	"domain for sale",
	"this domain is for sale",
	"buy this domain",
	"domain is for sale",
	"this domain may be for sale",
	"make an offer on this domain",
	"purchase this domain",
	"domain parking",
	"parked domain",
	"parked free",
	"this domain has been registered",
	"domain has expired",
	"this domain name is available",
	"inquire about this domain",
	"coming soon",
	"under construction",
	"website coming soon",
	"site under construction",
}

var services = []string{
	"godaddy",
	"sedo",
	"afternic",
	"dan.com",
	"hugedomains",
	"bodis",
	"parkingcrew",
	"namecheap parking",
	"above.com",
	"undeveloped.com",
	"sedoparking",
	"domainmarket",
	"buydomains",
	"uniregistry",
	"squadhelp",
}

// serviceRe matches brands on word boundaries so place names like "Sedona"
// do not read as "sedo".
var serviceRe = buildServiceRe(services)

var patterns = []*regexp.Regexp{
	regexp.MustCompile(`buy.{0,40}domain`),
	regexp.MustCompile(`domain.{0,40}sale`),
	regexp.MustCompile(`domain.{0,40}(?:auction|offer|lease)`),
	regexp.MustCompile(`(?:acquire|purchase|own) this (?:domain|website)`),
	regexp.MustCompile(`related (?:searches|links)`),
}

var thinPageTerms = []string{"domain", "for sale", "coming soon"}

var comingSoonTerms = []string{"coming soon", "under construction", "launching soon"}

var genericLandingTerms = []string{
	"welcome to nginx",
	"apache2 default page",
	"it works!",
	"default web site page",
	"index of /",
	"website is under maintenance",
	"future home of",
	"hosting provider",
}

// Detector classifies pages as parked. The lists it checks are fixed; a zero
// Detector is ready to use.
type Detector struct{}

// New returns a Detector.
func New() *Detector { return &Detector{} }

// IsParked applies the rules in order and reports the first that fires:
// a parking phrase, a parking-service brand in text or URL, a for-sale
// pattern, and finally a thin page (< 50 words) mentioning a domain sale.
func (d *Detector) IsParked(text, url string) Verdict {
	lower := strings.ToLower(text)
	lowerURL := strings.ToLower(url)

	if kw := firstContained(lower, keywords); kw != "" {
		return Verdict{Parked: true, Reason: ReasonKeyword, Match: kw}
	}

	if svc := serviceRe.FindString(lower); svc != "" {
		return Verdict{Parked: true, Reason: ReasonService, Match: svc}
	}
	if svc := serviceRe.FindString(lowerURL); svc != "" {
		return Verdict{Parked: true, Reason: ReasonService, Match: svc}
	}

	for _, re := range patterns {
		if m := re.FindString(lower); m != "" {
			return Verdict{Parked: true, Reason: ReasonPattern, Match: m}
		}
	}

	if wordCount(lower) < thinPageWordLimit {
		if term := firstContained(lower, thinPageTerms); term != "" {
			return Verdict{Parked: true, Reason: ReasonThinDomain, Match: term}
		}
	}

	return Verdict{}
}

// Confidence sums weighted parking signals, capped at 100. Adding a parking
// phrase to a page never lowers the score.
func (d *Detector) Confidence(text, url string) int {
	lower := strings.ToLower(text)
	lowerURL := strings.ToLower(url)

	score := 0
	if firstContained(lower, keywords) != "" {
		score += weightKeyword
	}
	if serviceRe.MatchString(lower) || serviceRe.MatchString(lowerURL) {
		score += weightService
	}
	for _, re := range patterns {
		if re.MatchString(lower) {
			score += weightPattern
			break
		}
	}
	if firstContained(lower, comingSoonTerms) != "" {
		score += weightComingSoon
	}
	if firstContained(lower, genericLandingTerms) != "" {
		score += weightGeneric
	}

	// Length only adds to an existing signal.
	if score > 0 {
		words := wordCount(lower)
		switch {
		case words < 50:
			score += weightUnder50
		case words < 100:
			score += weightUnder100
		}
	}

	if score > 100 {
		score = 100
	}
	return score
}

func buildServiceRe(list []string) *regexp.Regexp {
	quoted := make([]string, len(list))
	for i, s := range list {
		quoted[i] = regexp.QuoteMeta(s)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

func firstContained(s string, list []string) string {
	if s == "" {
		return ""
	}
	for _, item := range list {
		if strings.Contains(s, item) {
			return item
		}
	}
	return ""
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
