package parser

import "strings"

// ExtractID keeps only the decimal digits of an identification code, so that
// "ABC-123-456X" and "abc 123.456-x" both become "123456".
// It returns false when no digit is left.
func ExtractID(code string) (string, bool) {
	id := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, code)

	return id, id != ""
}

// slug turns "1.5 EX 16V" into "15-ex-16v".
func slug(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "-")
	return strings.ToLower(strings.ReplaceAll(s, ".", ""))
}
