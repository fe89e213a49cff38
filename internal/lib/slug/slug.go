// Package slug derives URL-safe article identifiers from titles.
//
// A title is lowercased, Cyrillic letters are transliterated to Latin using
// the Ukrainian national system (with the few Russian-only letters mapped as
// well), everything outside letters, digits, whitespace, and hyphens is
// stripped, runs of whitespace and hyphens collapse into a single hyphen, and
// leading/trailing hyphens are trimmed.
package slug

import (
	"fmt"
	"strings"
	"unicode"
)

var translit = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "h", 'ґ': "g", 'д': "d",
	'е': "e", 'є': "ie", 'ж': "zh", 'з': "z", 'и': "y", 'і': "i",
	'ї': "i", 'й': "i", 'к': "k", 'л': "l", 'м': "m", 'н': "n",
	'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "kh", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "shch",
	'ь': "", 'ю': "iu", 'я': "ia",
	// Russian-only letters
	'ё': "e", 'ъ': "", 'ы': "y", 'э': "e",
}

// Make normalizes a title into its base slug. The result may be empty when
// the title contains no letters or digits at all.
func Make(title string) string {
	var b strings.Builder
	pendingSep := false

	emit := func(s string) {
		if pendingSep && b.Len() > 0 {
			b.WriteByte('-')
		}
		pendingSep = false
		b.WriteString(s)
	}

	for _, r := range strings.ToLower(title) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			emit(string(r))
		case unicode.IsSpace(r) || r == '-':
			pendingSep = true
		default:
			if t, ok := translit[r]; ok && t != "" {
				emit(t)
			}
		}
	}
	return b.String()
}

// WithSuffix returns the n-th disambiguation candidate for a base slug:
// the base itself for n = 0, then "base-1", "base-2", and so on.
func WithSuffix(base string, n int) string {
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n)
}
