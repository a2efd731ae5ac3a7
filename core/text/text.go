// Package text folds host and catalog copy for keyword matching.
// Matching is diacritic- and case-insensitive.
package text

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// shortKeyword keywords of this length or less must match a whole token ("uv", "mal")
const shortKeyword = 3

var letterFold = strings.NewReplacer("ø", "o", "æ", "ae", "ß", "ss", "œ", "oe")

// Normalize folds text for keyword matching: lowercase, Nordic letters folded, combining
// marks stripped after NFD decomposition, whitespace collapsed.
func Normalize(s string) string {
	s = letterFold.Replace(strings.ToLower(s))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}
	return strings.Join(strings.Fields(s), " ")
}

// ContainsAny reports whether normalized text contains any keyword
func ContainsAny(normalized string, keywords []string) bool {
	for _, kw := range keywords {
		if containsKeyword(normalized, Normalize(kw)) {
			return true
		}
	}
	return false
}

func containsKeyword(text, kw string) bool {
	if kw == "" {
		return false
	}
	if len(kw) > shortKeyword {
		return strings.Contains(text, kw)
	}
	for _, tok := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if tok == kw {
			return true
		}
	}
	return false
}

var numberPattern = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// FirstNumber returns the first number in text ("1,5 m" gives 1.5)
func FirstNumber(text string) (float64, bool) {
	m := numberPattern.FindString(text)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.Replace(m, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Slug turns a label into an identifier ("Hent i butikk" gives "hent-i-butikk")
func Slug(text string) string {
	n := Normalize(text)
	var b strings.Builder
	dash := false
	for _, r := range n {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
