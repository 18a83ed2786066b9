package model

import (
	"strings"
)

// CompanyQuery is the unverified company identity to resolve.
type CompanyQuery struct {
	Name    string `json:"name"`
	City    string `json:"city,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	Context string `json:"context,omitempty"` // free-text industry or keywords
}

// Key returns a stable identity for correlating results with their input and
// for the result cache. Batch results arrive in completion order, so callers
// join on Key, not position. Queries without an address or context keep the
// short name|city|phone form.
func (q CompanyQuery) Key() string {
	parts := []string{
		squash(q.Name),
		squash(q.City),
		digitsOnly(q.Phone),
	}
	if addr, about := squash(q.Address), squash(q.Context); addr != "" || about != "" {
		parts = append(parts, addr, about)
	}
	return strings.Join(parts, "|")
}

func squash(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Valid reports whether the query carries the one required field.
func (q CompanyQuery) Valid() bool {
	return strings.TrimSpace(q.Name) != ""
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
