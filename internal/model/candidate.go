package model

// Source tags where a candidate came from.
type Source string

const (
	SourceGooglePlaces Source = "google_places"
	SourceGoogleKG     Source = "google_kg"
	SourceSerperSearch Source = "serper_search"
	SourceLLMVerified  Source = "llm_verified"
	SourceDiscolike    Source = "discolike"
	SourceOcean        Source = "ocean"

	// SourceDirectoryPrefix prefixes directory listings, e.g. "directory_yelp".
	SourceDirectoryPrefix = "directory_"
)

// Method tags the rule or algorithm that produced a confidence.
type Method string

const (
	MethodPhoneVerified           Method = "phone_verified"
	MethodNameMatched             Method = "name_matched"
	MethodKnowledgeGraph          Method = "knowledge_graph"
	MethodAcronymMatch            Method = "acronym_match"
	MethodExactDomainMatch        Method = "exact_domain_match"
	MethodHighSubstringMatch      Method = "high_substring_match"
	MethodTokenSortMatch          Method = "token_sort_match"
	MethodPartialMatchWithContext Method = "partial_match_with_context"
	MethodPartialMatchWeakContext Method = "partial_match_weak_context"
	MethodPartialMatchNoContext   Method = "partial_match_no_context"
	MethodSnippetNameMatch        Method = "snippet_name_match"
	MethodWeakMatchNeedsLLM       Method = "weak_match_needs_llm"
	MethodNoMatch                 Method = "no_match"
	MethodDeepScrapeVerified      Method = "deep_scrape_verified"
	MethodParkedDomainRejected    Method = "parked_domain_rejected"
	MethodLLMRejected             Method = "llm_rejected"
	MethodDiscolikeEnrichment     Method = "discolike_enrichment"
	MethodOceanEnrichment         Method = "ocean_enrichment"
)

// Evidence records why a candidate was produced.
type Evidence struct {
	Snippet      string             `json:"snippet,omitempty"`
	Title        string             `json:"title,omitempty"`
	Phone        string             `json:"phone,omitempty"`
	Address      string             `json:"address,omitempty"`
	Position     int                `json:"position,omitempty"`
	Signals      []string           `json:"signals,omitempty"`
	Judgement    string             `json:"judgement,omitempty"`
	ScoreDetails map[string]float64 `json:"score_details,omitempty"`
}

// Candidate is one scored (domain, source) hypothesis for a company's website.
type Candidate struct {
	Domain     string   `json:"domain"`
	URL        string   `json:"url"`
	Source     Source   `json:"source"`
	Confidence float64  `json:"confidence"`
	Method     Method   `json:"method"`
	Evidence   Evidence `json:"evidence"`
}

// Best returns whichever candidate is more confident. Ties keep a.
// Either argument may be nil.
func Best(a, b *Candidate) *Candidate {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.Confidence > a.Confidence:
		return b
	default:
		return a
	}
}
