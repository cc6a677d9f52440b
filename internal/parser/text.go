package parser

import (
	"strings"
	"unicode"
)

// ParseText extracts video ids from free-form pasted text. Candidates are
// separated by newlines, commas, semicolons, or runs of whitespace.
func ParseText(input string) Result {
	c := newCollector()

	tokens := strings.FieldsFunc(stripBOM(input), func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == ';'
	})
	for _, tok := range tokens {
		c.add(tok)
	}

	return c.result()
}

func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}
