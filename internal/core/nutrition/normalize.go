package nutrition

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	commaSuffixPattern   = regexp.MustCompile(`,.*$`)
	parentheticalPattern = regexp.MustCompile(`\(.*?\)`)
)

// NameNormalizer canonicalizes ingredient names.
type NameNormalizer struct {
	synonyms []SynonymGroup
}

func NewNameNormalizer(tables *Tables) *NameNormalizer {
	return &NameNormalizer{synonyms: tables.Names.Synonyms}
}

// Normalize strips annotations ("onions, finely chopped (optional)") and maps
// regional spellings onto a canonical name. The first synonym group with an
// alternate occurring as whole words in the name wins. Normalize is
// idempotent.
func (n *NameNormalizer) Normalize(raw string) string {
	name := cleanName(raw)
	for _, group := range n.synonyms {
		for _, alt := range group.Alternates {
			if containsWords(name, alt) {
				return group.Canonical
			}
		}
	}
	return name
}

func cleanName(raw string) string {
	name := strings.ToLower(stripDiacritics(strings.TrimSpace(raw)))
	name = commaSuffixPattern.ReplaceAllString(name, "")
	name = parentheticalPattern.ReplaceAllString(name, "")
	return strings.Join(strings.Fields(name), " ")
}

// stripDiacritics folds "jalapeño" to "jalapeno".
func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return norm.NFC.String(b.String())
}

// containsWords reports whether phrase occurs in s on word boundaries,
// so "oil" matches "mustard oil" but not "boiled".
func containsWords(s, phrase string) bool {
	if phrase == "" {
		return false
	}
	for i := 0; ; {
		j := strings.Index(s[i:], phrase)
		if j < 0 {
			return false
		}
		start := i + j
		end := start + len(phrase)
		if (start == 0 || !isWordByte(s[start-1])) && (end == len(s) || !isWordByte(s[end])) {
			return true
		}
		i = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}
