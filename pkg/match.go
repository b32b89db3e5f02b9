// Package pkg holds small helpers shared by the collectors.
package pkg

import "strings"

// MatchAny reports whether name matches one of patterns, ignoring case.
// A pattern ending in "*" matches as a prefix, "=name" matches exactly and
// anything else matches as a substring.
func MatchAny(name string, patterns []string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return false
	}

	for _, p := range patterns {
		p = strings.ToLower(p)

		switch {
		case strings.HasPrefix(p, "="):
			if name == p[1:] {
				return true
			}
		case strings.HasSuffix(p, "*"):
			if strings.HasPrefix(name, strings.TrimSuffix(p, "*")) {
				return true
			}
		case strings.Contains(name, p):
			return true
		}
	}

	return false
}
