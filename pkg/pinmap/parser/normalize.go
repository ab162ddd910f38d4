package parser

import (
	"strconv"
	"strings"
	"unicode"
)

// cleanText trims ordinary, non-breaking and full-width whitespace.
func cleanText(s string) string {
	return strings.TrimFunc(s, isSpace)
}

// removeSpaces drops every whitespace rune, including NBSP and U+3000.
func removeSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if isSpace(r) {
			return -1
		}
		return r
	}, s)
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\u00a0' || r == '\u3000' || r == '\u200b' || r == '\ufeff'
}

// normalizeKey lowercases s and keeps only letters and digits, so that
// "Pin No", "PIN_NO" and "pin no." all become "pinno".
func normalizeKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// parseNumber keeps digits, sign and decimal point and parses the rest.
// Anything unparseable reports false.
func parseNumber(s string) (float64, bool) {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-', r == '+':
			b.WriteRune(r)
		case r == '\u2212', r == '\uff0d', r == '\u2013':
			b.WriteRune('-')
		case r == '\uff0b':
			b.WriteRune('+')
		case r >= '\uff10' && r <= '\uff19':
			b.WriteRune('0' + (r - '\uff10'))
		case r == '\uff0e':
			b.WriteRune('.')
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
