// Package strings provides string manipulation utilities.
package strings

import (
	"sort"
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
//
// Example:
//
//	DedupeAndTrim([]string{"  404684003 ", "116676008", "404684003", "", "  "})
//	// Returns: []string{"404684003", "116676008"}
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}

// SortedSet de-duplicates and trims like DedupeAndTrim and returns the result in
// lexicographic order. Store queries use it so identical id sets produce identical statements.
func SortedSet(values []string) []string {
	result := DedupeAndTrim(values)
	sort.Strings(result)
	return result
}

// KeysOf returns the keys of a set-like map in lexicographic order.
func KeysOf[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
