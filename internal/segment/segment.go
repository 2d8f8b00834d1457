// Package segment locates exact-text anchors inside a buffer.
//
// Matching is byte-exact: no case folding and no whitespace normalization.
// A segment that does not occur is reported through the boolean result,
// never as an error.
package segment

import "strings"

// Locate returns the byte offset of the first occurrence of needle in haystack.
// An empty needle is never found.
func Locate(haystack, needle string) (int, bool) {
	if needle == "" {
		return -1, false
	}
	idx := strings.Index(haystack, needle)
	if idx < 0 {
		return -1, false
	}
	return idx, true
}

// ReplaceFirst replaces the first occurrence of needle with replacement.
// When needle is absent the haystack is returned unchanged with false.
func ReplaceFirst(haystack, needle, replacement string) (string, bool) {
	idx, ok := Locate(haystack, needle)
	if !ok {
		return haystack, false
	}
	return haystack[:idx] + replacement + haystack[idx+len(needle):], true
}

// Count returns the number of non-overlapping occurrences of needle.
func Count(haystack, needle string) int {
	if needle == "" {
		return 0
	}
	return strings.Count(haystack, needle)
}
