package model

// ConfidenceKey addresses one entry of the confidence table.
type ConfidenceKey struct {
	Stage  Stage
	Method Method
}

// confidenceTable holds every fixed confidence assigned by the resolver.
// Scores are on a 0-100 scale.
var confidenceTable = map[ConfidenceKey]float64{
	{StageMatch, MethodExactDomainMatch}:        95,
	{StageMatch, MethodHighSubstringMatch}:      92,
	{StageMatch, MethodTokenSortMatch}:          90,
	{StageMatch, MethodPartialMatchWithContext}: 85,
	{StageMatch, MethodSnippetNameMatch}:        80,
	{StageMatch, MethodPartialMatchWeakContext}: 75,
	{StageMatch, MethodPartialMatchNoContext}:   70,
	{StageMatch, MethodWeakMatchNeedsLLM}:       50,
	{StageMatch, MethodNoMatch}:                 0,
	{StageMatch, MethodAcronymMatch}:            88, // floor

	// Phone matches are capped below auto-accept: sibling facilities often share a number.
	{StagePlaces, MethodPhoneVerified}: 75,
	{StagePlaces, MethodNameMatched}:   85, // minimum fuzzy score to keep a listing

	{StageSearch, MethodKnowledgeGraph}: 98,

	{StageScrapeVerify, MethodDeepScrapeVerified}:   70, // minimum judge confidence to accept
	{StageScrapeVerify, MethodParkedDomainRejected}: 0,

	{StageEnrichment, MethodDiscolikeEnrichment}: 90, // base
	{StageEnrichment, MethodOceanEnrichment}:     88, // base
}

// enrichmentCaps bounds a B2B candidate after signal boosts.
var enrichmentCaps = map[Method]float64{
	MethodDiscolikeEnrichment: 95,
	MethodOceanEnrichment:     96,
}

const (
	// MatchScoreCap bounds fuzzy scores after the phone bonus.
	MatchScoreCap = 95
	// PhoneSnippetBonus is added when the phone's last digits appear in a snippet.
	PhoneSnippetBonus = 10
	// EnrichmentSignalBonus is added per corroborating B2B signal.
	EnrichmentSignalBonus = 2
	// PhoneMatchDigits is how many trailing digits a phone comparison uses.
	PhoneMatchDigits = 4
	// ParkedRejectScore is the parked confidence at which a fetched page is
	// rejected even when no single parking rule fired.
	ParkedRejectScore = 80
)

// Confidence returns the table value for (stage, method), or 0 when absent.
func Confidence(stage Stage, method Method) float64 {
	return confidenceTable[ConfidenceKey{Stage: stage, Method: method}]
}

// EnrichmentCap returns the ceiling for a B2B method, or MatchScoreCap when unknown.
func EnrichmentCap(method Method) float64 {
	if c, ok := enrichmentCaps[method]; ok {
		return c
	}
	return MatchScoreCap
}

// ConfidenceTable returns a copy of the table for auditing.
func ConfidenceTable() map[ConfidenceKey]float64 {
	out := make(map[ConfidenceKey]float64, len(confidenceTable))
	for k, v := range confidenceTable {
		out[k] = v
	}
	return out
}
