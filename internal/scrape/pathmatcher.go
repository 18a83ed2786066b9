package scrape

import (
	"net/url"
	"path"
	"strings"
)

// defaultExcludePatterns skip documents that are never a company homepage.
var defaultExcludePatterns = []string{
	"*.pdf",
	"*.zip",
	"*.doc",
	"*.docx",
	"*.xls",
	"*.xlsx",
	"*.jpg",
	"*.jpeg",
	"*.png",
	"*.gif",
	"/wp-content/uploads/*",
}

// PathMatcher filters URLs by glob-style path patterns. A pattern starting
// with "*." matches the file extension at any depth, and "/dir/*" matches
// everything below /dir.
type PathMatcher struct {
	patterns []string
}

// NewPathMatcher creates a PathMatcher from glob patterns. Falls back to the
// default patterns if none are provided.
func NewPathMatcher(patterns []string) *PathMatcher {
	if len(patterns) == 0 {
		patterns = defaultExcludePatterns
	}
	return &PathMatcher{patterns: patterns}
}

// Patterns returns the configured patterns.
func (m *PathMatcher) Patterns() []string {
	return m.patterns
}

// IsExcluded reports whether a URL matches any pattern. Unparsable URLs are
// excluded.
func (m *PathMatcher) IsExcluded(rawURL string) bool {
	if m == nil {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	p := strings.ToLower(u.Path)
	for _, pattern := range m.patterns {
		if matchPattern(strings.ToLower(pattern), p) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, urlPath string) bool {
	if ext, ok := strings.CutPrefix(pattern, "*."); ok {
		return path.Ext(urlPath) == "."+ext
	}
	if ok, _ := path.Match(pattern, urlPath); ok {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		return urlPath == prefix || strings.HasPrefix(urlPath, prefix+"/")
	}
	return false
}
