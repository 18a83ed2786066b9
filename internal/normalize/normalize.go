// Package normalize canonicalizes company names and URLs into comparable forms.
package normalize

import (
	"net"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// legalSuffixes lists legal-entity words dropped from names before matching.
var legalSuffixes = map[string]struct{}{
	"inc": {}, "incorporated": {},
	"llc": {}, "llp": {}, "lp": {}, "pllc": {}, "pc": {}, "pa": {},
	"corp": {}, "corporation": {},
	"ltd": {}, "limited": {},
	"co": {}, "company": {},
	"plc": {},
	"group": {}, "holdings": {},
}

var (
	nonWordRe    = regexp.MustCompile(`[^\p{L}\p{N}\s-]+`)
	multiSpaceRe = regexp.MustCompile(`\s+`)
)

// NormalizeName reduces a company name to its comparable token form:
//  1. Fold accents and lowercase
//  2. Strip punctuation except hyphens
//  3. Drop legal suffix words (inc, llc, corp, group, holdings, ...)
//  4. Collapse whitespace
//
// A name made only of suffix words keeps its tokens so it never normalizes to "".
func NormalizeName(name string) string {
	tokens := nameTokens(name)
	if len(tokens) == 0 {
		return ""
	}

	kept := tokens[:0:0]
	for _, tok := range tokens {
		if _, ok := legalSuffixes[strings.Trim(tok, "-")]; ok {
			continue
		}
		kept = append(kept, tok)
	}
	if len(kept) == 0 {
		kept = tokens
	}
	return strings.Join(kept, " ")
}

// Compact returns the normalized name with spaces and hyphens removed, the form
// compared against a bare domain label.
func Compact(name string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(NormalizeName(name))
}

// nameTokens folds accents, lowercases and strips punctuation except hyphens,
// returning the remaining words. Legal suffixes are kept.
func nameTokens(name string) []string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	name = strings.ToLower(foldAccents(name))
	name = strings.ReplaceAll(name, "&", " ")
	name = nonWordRe.ReplaceAllString(name, "")
	name = multiSpaceRe.ReplaceAllString(name, " ")
	return strings.Fields(name)
}

// Acronym returns the first letter of each word of the name as written,
// splitting hyphenated words and ignoring punctuation, so "Boston Consulting
// Group" gives "bcg". Returns "" for names with fewer than two words.
func Acronym(name string) string {
	return initials(strings.Join(nameTokens(name), " "))
}

// Acronyms returns the distinct acronyms a company may use for its domain:
// the full form from Acronym, then the form without legal suffix words
// ("General Electric Company" gives "gec" and "ge").
func Acronyms(name string) []string {
	var out []string
	for _, a := range []string{Acronym(name), initials(NormalizeName(name))} {
		if a != "" && (len(out) == 0 || out[0] != a) {
			out = append(out, a)
		}
	}
	return out
}

func initials(words string) string {
	fields := strings.FieldsFunc(words, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-'
	})
	if len(fields) < 2 {
		return ""
	}
	var b strings.Builder
	for _, w := range fields {
		r, _ := utf8.DecodeRuneInString(w)
		b.WriteRune(r)
	}
	return b.String()
}

// CleanDomain reduces a URL or bare host to its registrable "domain.tld" form,
// dropping scheme, www, port, path and query. Returns "" when no registrable
// domain can be parsed; callers must treat "" as "no domain".
func CleanDomain(raw string) string {
	host := hostOf(raw)
	if host == "" {
		return ""
	}
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return ""
	}
	return registrable
}

// BaseDomain returns the registrable domain without its public suffix,
// e.g. "acme" for "https://www.acme.co.uk/about".
func BaseDomain(raw string) string {
	registrable := CleanDomain(raw)
	if registrable == "" {
		return ""
	}
	suffix, _ := publicsuffix.PublicSuffix(registrable)
	return strings.TrimSuffix(registrable, "."+suffix)
}

// EnsureURL turns a bare domain into an https URL suitable for fetching.
func EnsureURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.Contains(raw, "://") {
		return raw
	}
	return "https://" + raw
}

func hostOf(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "http://" + strings.TrimPrefix(s, "//")
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	host := strings.TrimSuffix(u.Hostname(), ".")
	host = strings.TrimPrefix(host, "www.")
	if host == "" || !strings.Contains(host, ".") || net.ParseIP(host) != nil {
		return ""
	}
	if strings.ContainsAny(host, " _") {
		return ""
	}
	return host
}

// foldAccents builds its transformer per call; chained transformers are not
// safe for concurrent use.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
