// Package safename sanitizes catalog display names before they're exposed
// as filesystem entries (browsefs), so a media file with a
// slash, backslash, or NUL byte in its name can never be read as a path
// separator. Adapted from the teacher's internal/cache asset-ID
// sanitizer, which solved the identical problem for cache file names.
package safename

import "strings"

// Sanitize replaces path-unsafe characters in name with underscores.
// Surrounding whitespace is trimmed, and "unnamed" is returned for an
// input that is empty or all whitespace.
func Sanitize(name string) string {
	s := strings.ReplaceAll(name, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, "\x00", "_")
	s = strings.TrimSpace(s)
	if s == "" {
		s = "unnamed"
	}
	return s
}
