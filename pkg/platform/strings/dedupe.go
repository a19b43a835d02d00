// Package strings provides list clean-up helpers for user-entered values.
package strings

import (
	"strings"
)

// DedupeAndTrim trims each element and drops empties and exact duplicates,
// preserving first-seen order.
//
//	DedupeAndTrim([]string{"  go ", "sql", "go", ""}) // []string{"go", "sql"}
func DedupeAndTrim(values []string) []string {
	return dedupe(values, func(s string) string { return s })
}

// DedupeFold is DedupeAndTrim with case-insensitive comparison. The first spelling
// of each value is kept.
//
//	DedupeFold([]string{"Go", "go", "GO ", "SQL"}) // []string{"Go", "SQL"}
func DedupeFold(values []string) []string {
	return dedupe(values, strings.ToLower)
}

func dedupe(values []string, key func(string) string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		k := key(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}
