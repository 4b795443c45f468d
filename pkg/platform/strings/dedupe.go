// Package strings provides small string slice helpers shared across services.
package strings

import "strings"

// DedupeAndTrim trims whitespace from each value and drops empties and
// duplicates, preserving first-seen order.
func DedupeAndTrim(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
