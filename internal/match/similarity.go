package match

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"
)

// indelParams makes a substitution cost the same as a delete plus an insert,
// so Distance becomes the indel distance used by Ratio.
var indelParams = levenshtein.NewParams().SubCost(2)

// Ratio returns whole-string similarity on a 0-100 scale.
func Ratio(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 || lb == 0 {
		return 0
	}
	if a == b {
		return 100
	}
	d := levenshtein.Distance(a, b, indelParams)
	return 100 * (1 - float64(d)/float64(la+lb))
}

// PartialRatio returns the best Ratio between the shorter string and every
// same-length window of the longer one, tolerating surrounding text.
func PartialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}
	if len(short) == len(long) {
		return Ratio(string(short), string(long))
	}

	s := string(short)
	best := 0.0
	for i := 0; i+len(short) <= len(long); i++ {
		r := Ratio(s, string(long[i:i+len(short)]))
		if r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}

// TokenSortRatio returns Ratio after sorting each string's whitespace tokens,
// making it insensitive to word order.
func TokenSortRatio(a, b string) float64 {
	return Ratio(sortTokens(a), sortTokens(b))
}

func sortTokens(s string) string {
	tokens := strings.Fields(strings.ToLower(s))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
