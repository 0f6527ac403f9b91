package common

import "strings"

// ContainsFold reports whether s contains sub, ignoring case.
func ContainsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// HasAny reports whether s contains any of the substrings, ignoring case.
func HasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if ContainsFold(s, sub) {
			return true
		}
	}
	return false
}
