package nutrition

import (
	"sort"
	"strings"
	"unicode"

	"github.com/xrash/smetrics"
)

// Ratio scores two strings 0-100 by normalized indel distance: insertions
// and deletions cost 1 and a substitution costs 2.
func Ratio(a, b string) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	return float64(total-smetrics.WagnerFischer(a, b, 1, 1, 2)) / float64(total) * 100
}

// TokenSortRatio compares the alphanumeric words of both strings in sorted
// order, so "dal, urad" and "urad dal" score 100.
func TokenSortRatio(a, b string) float64 {
	return Ratio(sortedTokens(a), sortedTokens(b))
}

func sortedTokens(s string) string {
	tokens := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
