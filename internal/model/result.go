package model

import (
	"time"
)

// Stage is a step of the resolution waterfall.
type Stage string

const (
	StageNone         Stage = ""
	StagePlaces       Stage = "places"
	StageSearch       Stage = "search"
	StageScrapeVerify Stage = "scrape_verify"
	StageEnrichment   Stage = "enrichment"
	StageFinal        Stage = "final"

	// StageMatch keys confidences assigned by the fuzzy matcher itself.
	StageMatch Stage = "match"
)

// ErrNoDomainFound is the error text for a resolution that never held a domain.
const ErrNoDomainFound = "No domain found"

// KindDNSUnresolved marks an accepted domain whose DNS lookup failed.
const KindDNSUnresolved = "dns_unresolved"

// StageError is a diagnostic for a stage that errored or produced nothing.
type StageError struct {
	Stage   Stage  `json:"stage"`
	Kind    string `json:"kind"` // "unavailable", "no_candidate" or "dns_unresolved"
	Message string `json:"message"`
}

// ResolutionResult is the outcome of resolving one CompanyQuery.
// It is built up while stages run and must not be mutated after Resolve returns.
type ResolutionResult struct {
	Name    string `json:"name"`
	City    string `json:"city,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	Context string `json:"context,omitempty"`

	Domain            *string      `json:"domain"`
	URL               string       `json:"url,omitempty"`
	Confidence        float64      `json:"confidence"`
	Source            Source       `json:"source,omitempty"`
	Method            Method       `json:"method,omitempty"`
	Verified          bool         `json:"verified"`
	NeedsManualReview bool         `json:"needs_manual_review"`
	StageReached      Stage        `json:"stage_reached"`
	Error             *string      `json:"error"`
	StageErrors       []StageError `json:"stage_errors,omitempty"`
	ResolvedAt        time.Time    `json:"resolved_at"`
}

// NewResult creates an empty result echoing the query.
func NewResult(q CompanyQuery) ResolutionResult {
	return ResolutionResult{
		Name:    q.Name,
		City:    q.City,
		Phone:   q.Phone,
		Address: q.Address,
		Context: q.Context,
	}
}

// Query rebuilds the input that produced this result.
func (r *ResolutionResult) Query() CompanyQuery {
	return CompanyQuery{Name: r.Name, City: r.City, Phone: r.Phone, Address: r.Address, Context: r.Context}
}

// HasDomain reports whether a domain is held.
func (r *ResolutionResult) HasDomain() bool {
	return r.Domain != nil && *r.Domain != ""
}

// DomainOrEmpty returns the held domain or "".
func (r *ResolutionResult) DomainOrEmpty() string {
	if r.Domain == nil {
		return ""
	}
	return *r.Domain
}

// ErrorOrEmpty returns the error text or "".
func (r *ResolutionResult) ErrorOrEmpty() string {
	if r.Error == nil {
		return ""
	}
	return *r.Error
}

// Apply copies a candidate's decision onto the result.
func (r *ResolutionResult) Apply(c *Candidate) {
	if c == nil {
		return
	}
	d := c.Domain
	r.Domain = &d
	r.URL = c.URL
	r.Confidence = c.Confidence
	r.Source = c.Source
	r.Method = c.Method
}

// SetError records an error message on the result.
func (r *ResolutionResult) SetError(msg string) {
	r.Error = &msg
}

// LookupLog is one line of the append-only per-lookup log.
type LookupLog struct {
	RunID           string           `json:"run_id,omitempty"`
	Timestamp       time.Time        `json:"timestamp"`
	Input           CompanyQuery     `json:"input"`
	Result          ResolutionResult `json:"result"`
	DurationSeconds float64          `json:"duration_seconds"`
}
