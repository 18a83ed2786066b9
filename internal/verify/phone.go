// Package verify holds corroboration checks: trailing-digit phone comparison
// and authoritative DNS existence.
package verify

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "US"

// Digits returns only the ASCII digits of s.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LastDigits returns the last n digits of s, or "" when s has fewer than n.
func LastDigits(s string, n int) string {
	d := Digits(s)
	if n <= 0 || len(d) < n {
		return ""
	}
	return d[len(d)-n:]
}

// PhoneMatch reports whether two phone numbers share their last n digits.
// Formatting is ignored and the comparison is symmetric.
func PhoneMatch(a, b string, n int) bool {
	la, lb := LastDigits(a, n), LastDigits(b, n)
	return la != "" && la == lb
}

// PhoneInText reports whether the phone's last n digits occur in the digit
// stream of text.
func PhoneInText(phone, text string, n int) bool {
	tail := LastDigits(phone, n)
	if tail == "" {
		return false
	}
	return strings.Contains(Digits(text), tail)
}

// NormalizePhone formats a phone number as E.164 using region as the default
// country. Returns "" when the number cannot be parsed or is not valid.
func NormalizePhone(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if region == "" {
		region = defaultRegion
	}
	number, err := phonenumbers.Parse(raw, strings.ToUpper(region))
	if err != nil {
		return ""
	}
	if !phonenumbers.IsPossibleNumber(number) || !phonenumbers.IsValidNumber(number) {
		return ""
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}
