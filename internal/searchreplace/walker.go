package searchreplace

import (
	"sort"

	"github.com/rpattn/lexcms/pkg/jsonpath"
)

// Match records one located occurrence of the search text: where it was
// found and the value before and after replacement. Matches are transient;
// they are recomputed on every call because documents may change between
// calls.
type Match struct {
	Path     jsonpath.Path
	OldValue string
	NewValue string
}

// Walk recursively applies the matcher to every string leaf of a JSON value
// and returns a structurally new tree with replacements applied, plus one
// match per changed leaf. The input is never mutated; every ancestor of a
// changed descendant is rebuilt.
//
// Mapping children are visited in sorted key order so that two walks over
// the same input produce identical output and match order. Execute depends
// on agreeing with what preview showed the user.
func Walk(node any, search, replacement string, caseSensitive bool, path jsonpath.Path) (any, []Match) {
	switch value := node.(type) {
	case string:
		if !Contains(value, search, caseSensitive) {
			return value, nil
		}
		replaced := Replace(value, search, replacement, caseSensitive)
		return replaced, []Match{{Path: path, OldValue: value, NewValue: replaced}}

	case []any:
		rebuilt := make([]any, len(value))
		var matches []Match
		for i, element := range value {
			child, childMatches := Walk(element, search, replacement, caseSensitive, path.Element(i))
			rebuilt[i] = child
			matches = append(matches, childMatches...)
		}
		return rebuilt, matches

	case map[string]any:
		keys := make([]string, 0, len(value))
		for key := range value {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		rebuilt := make(map[string]any, len(value))
		var matches []Match
		for _, key := range keys {
			child, childMatches := Walk(value[key], search, replacement, caseSensitive, path.Child(key))
			rebuilt[key] = child
			matches = append(matches, childMatches...)
		}
		return rebuilt, matches

	default:
		// Numbers, booleans, nulls: no match, returned as-is.
		return node, nil
	}
}
