package model

import (
	"strings"
	"time"
)

// ResolverConfig governs every threshold comparison made during resolution.
// It is loaded once and read-only for the life of a run.
type ResolverConfig struct {
	Thresholds       Thresholds    `yaml:"thresholds" mapstructure:"thresholds"`
	Stages           StageFlags    `yaml:"stages" mapstructure:"stages"`
	FuzzyMatching    FuzzyConfig   `yaml:"fuzzy_matching" mapstructure:"fuzzy_matching"`
	BlacklistDomains []string      `yaml:"blacklist_domains" mapstructure:"blacklist_domains"`
	Timeouts         StageTimeouts `yaml:"timeouts" mapstructure:"timeouts"`
}

// Thresholds are the acceptance bars on the 0-100 confidence scale.
type Thresholds struct {
	AutoAccept   float64 `yaml:"auto_accept" mapstructure:"auto_accept"`
	ManualReview float64 `yaml:"manual_review" mapstructure:"manual_review"`
}

// StageFlags enable or disable waterfall stages.
type StageFlags struct {
	UsePlaces    bool `yaml:"use_places" mapstructure:"use_places"`
	UseSearch    bool `yaml:"use_search" mapstructure:"use_search"`
	UseScraping  bool `yaml:"use_scraping" mapstructure:"use_scraping"`
	UseDiscolike bool `yaml:"use_discolike" mapstructure:"use_discolike"`
	UseOcean     bool `yaml:"use_ocean" mapstructure:"use_ocean"`
}

// FuzzyConfig holds the fuzzy matcher's thresholds.
type FuzzyConfig struct {
	ExactMatchThreshold float64 `yaml:"exact_match_threshold" mapstructure:"exact_match_threshold"`
	GoodMatchThreshold  float64 `yaml:"good_match_threshold" mapstructure:"good_match_threshold"`
	MinContextHits      int     `yaml:"min_context_hits" mapstructure:"min_context_hits"`
}

// StageTimeouts bound each collaborator call. Zero means the default.
type StageTimeouts struct {
	PlacesSecs int `yaml:"places_secs" mapstructure:"places_secs"`
	SearchSecs int `yaml:"search_secs" mapstructure:"search_secs"`
	FetchSecs  int `yaml:"fetch_secs" mapstructure:"fetch_secs"`
	JudgeSecs  int `yaml:"judge_secs" mapstructure:"judge_secs"`
	EnrichSecs int `yaml:"enrich_secs" mapstructure:"enrich_secs"`
	DNSSecs    int `yaml:"dns_secs" mapstructure:"dns_secs"`
}

// DefaultBlacklist lists directory and social domains that are never a company's own site.
var DefaultBlacklist = []string{
	"yelp.com", "facebook.com", "linkedin.com", "bbb.org", "yellowpages.com",
	"manta.com", "mapquest.com", "indeed.com", "glassdoor.com", "zoominfo.com",
	"bloomberg.com", "instagram.com", "twitter.com", "x.com", "youtube.com",
	"wikipedia.org", "crunchbase.com", "angi.com", "houzz.com", "nextdoor.com",
}

// DefaultResolverConfig returns the stock thresholds with every stage enabled
// except the paid B2B providers.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		Thresholds: Thresholds{AutoAccept: 85, ManualReview: 70},
		Stages: StageFlags{
			UsePlaces:   true,
			UseSearch:   true,
			UseScraping: true,
		},
		FuzzyMatching: FuzzyConfig{
			ExactMatchThreshold: 90,
			GoodMatchThreshold:  70,
			MinContextHits:      2,
		},
		BlacklistDomains: append([]string(nil), DefaultBlacklist...),
	}
}

// IsBlacklisted reports whether domain (already cleaned) is on the blacklist.
// Subdomains of a blacklisted domain are also rejected.
func (c ResolverConfig) IsBlacklisted(domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return false
	}
	for _, b := range c.BlacklistDomains {
		b = strings.ToLower(strings.TrimSpace(b))
		if b == "" {
			continue
		}
		if domain == b || strings.HasSuffix(domain, "."+b) {
			return true
		}
	}
	return false
}

// Timeout converts a seconds setting to a duration with a fallback.
func Timeout(secs int, fallback time.Duration) time.Duration {
	if secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}
