package safename

import "testing"

func TestSanitizeReplacesSeparators(t *testing.T) {
	got := Sanitize("movie/with\\slash")
	if got != "movie_with_slash" {
		t.Errorf("got %q", got)
	}
}

func TestSanitizeEmptyYieldsUnnamed(t *testing.T) {
	if got := Sanitize("   "); got != "unnamed" {
		t.Errorf("got %q", got)
	}
}

func TestSanitizeReplacesNulByte(t *testing.T) {
	got := Sanitize("a\x00b")
	if got != "a_b" {
		t.Errorf("got %q", got)
	}
}
