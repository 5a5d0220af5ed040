package searchreplace

import (
	"regexp"
	"strings"
)

// Contains reports whether value holds search as a literal substring,
// optionally ignoring case.
func Contains(value, search string, caseSensitive bool) bool {
	if caseSensitive {
		return strings.Contains(value, search)
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(search))
}

// Replace substitutes every occurrence of search in value with replacement.
// The search text is literal, never a pattern. In case-insensitive mode the
// matched span's original casing is discarded; the replacement keeps its own.
func Replace(value, search, replacement string, caseSensitive bool) string {
	if caseSensitive {
		return strings.ReplaceAll(value, search, replacement)
	}
	pattern := regexp.MustCompile("(?i)" + regexp.QuoteMeta(search))
	return pattern.ReplaceAllLiteralString(value, replacement)
}
