package cache

import (
	"strings"
	"unicode"
)

// toSnake converts a Go identifier to snake_case so struct fields without a
// json tag still serialize to the same names the REST API uses
// (PostalCode -> postal_code, SKU -> sku, Line2 -> line_2). Any other rune
// becomes a single underscore so a segment never carries the KeySeparator.
func toSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(runes) + 4)

	sep := func() {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
			b.WriteByte('_')
		}
	}

	for i, r := range runes {
		var prev, next rune
		if i > 0 {
			prev = runes[i-1]
		}
		if i+1 < len(runes) {
			next = runes[i+1]
		}

		switch {
		case unicode.IsUpper(r):
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && unicode.IsLower(next)) {
				sep()
			}
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsDigit(r):
			if prev != 0 && !unicode.IsDigit(prev) {
				sep()
			}
			b.WriteRune(r)
		case unicode.IsLower(r):
			b.WriteRune(r)
		default:
			sep()
		}
	}

	return strings.Trim(b.String(), "_")
}
