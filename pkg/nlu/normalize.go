package nlu

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize prepares Arabic command text for the resolver: strips tashkeel
// and other combining marks, collapses whitespace, and recomposes to NFC.
// Inventory matching always runs against raw entity values, never against
// this normalized form.
func Normalize(text string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	result, _, err := transform.String(t, text)
	if err != nil {
		result = text
	}

	words := strings.Fields(result)
	return strings.Join(words, " ")
}

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
