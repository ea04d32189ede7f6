// ABOUTME: Pure matcher selecting candidate hooks for an event, no side effects
// ABOUTME: Type equality or wildcard, then substring/glob against tool name and paths

package hook

import "strings"

// Matches reports whether a hook's event type and pattern match an event.
// The pattern check is deliberately permissive: a case-insensitive
// substring of the tool name, a substring of any affected path, or a
// simple glob (* and ? only) against any path all count. Any signal wins;
// there is no precedence between them.
func Matches(h *Hook, ev *Event) bool {
	if h.Event != EventWildcard && h.Event != ev.Type {
		return false
	}

	pattern := strings.ToLower(h.Pattern)
	if pattern == "" || pattern == "*" {
		return true
	}

	if strings.Contains(strings.ToLower(ev.ToolName), pattern) {
		return true
	}
	for _, path := range ev.FilePaths {
		lower := strings.ToLower(path)
		if strings.Contains(lower, pattern) {
			return true
		}
		if globMatch(pattern, lower) {
			return true
		}
	}
	return false
}

// Select returns the hooks matching ev, preserving candidate order.
// Candidate order is directory scan order; no ranking is applied and all
// matches are executed.
func Select(candidates []*Hook, ev *Event) []*Hook {
	var matched []*Hook
	for _, h := range candidates {
		if Matches(h, ev) {
			matched = append(matched, h)
		}
	}
	return matched
}

// globMatch implements minimal glob matching: * matches any run of
// characters, ? matches exactly one. No character classes.
func globMatch(pattern, s string) bool {
	pi, si := 0, 0
	star, starTarget := -1, 0

	for si < len(s) {
		switch {
		case pi < len(pattern) && (pattern[pi] == '?' || pattern[pi] == s[si]):
			pi++
			si++
		case pi < len(pattern) && pattern[pi] == '*':
			star = pi
			starTarget = si
			pi++
		case star >= 0:
			pi = star + 1
			starTarget++
			si = starTarget
		default:
			return false
		}
	}

	for pi < len(pattern) && pattern[pi] == '*' {
		pi++
	}
	return pi == len(pattern)
}
