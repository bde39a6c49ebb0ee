package match_test

import (
	"testing"

	"github.com/deshkavote/voicebridge/internal/match"
)

func TestSimilarity_Identity(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"a", "election", "mumbai municipal election", "वोट"} {
		if got := match.Similarity(s, s); got != 1.0 {
			t.Errorf("Similarity(%q, %q) = %f, want 1.0", s, s, got)
		}
	}
}

func TestSimilarity_Symmetry(t *testing.T) {
	t.Parallel()

	pairs := [][2]string{
		{"kitten", "sitting"},
		{"vote", "note"},
		{"", "abc"},
		{"show elections", "show me the elections"},
	}
	for _, p := range pairs {
		ab := match.Similarity(p[0], p[1])
		ba := match.Similarity(p[1], p[0])
		if ab != ba {
			t.Errorf("Similarity(%q, %q) = %f but Similarity(%q, %q) = %f", p[0], p[1], ab, p[1], p[0], ba)
		}
	}
}

func TestSimilarity_EmptyStrings(t *testing.T) {
	t.Parallel()

	if got := match.Similarity("", ""); got != 1.0 {
		t.Errorf("Similarity(\"\", \"\") = %f, want 1.0", got)
	}
	if got := match.Similarity("", "abc"); got != 0.0 {
		t.Errorf("Similarity(\"\", \"abc\") = %f, want 0.0", got)
	}
}

func TestSimilarity_KnownDistance(t *testing.T) {
	t.Parallel()

	// levenshtein("kitten", "sitting") = 3, longer length 7.
	want := (7.0 - 3.0) / 7.0
	if got := match.Similarity("kitten", "sitting"); got != want {
		t.Errorf("Similarity(kitten, sitting) = %f, want %f", got, want)
	}
}

func TestSimilarity_Range(t *testing.T) {
	t.Parallel()

	pairs := [][2]string{
		{"completely", "different"},
		{"a", "zzzzzzzzzzzzzzzz"},
		{"vote in mumbai", "mumbai municipal election"},
	}
	for _, p := range pairs {
		got := match.Similarity(p[0], p[1])
		if got < 0 || got > 1 {
			t.Errorf("Similarity(%q, %q) = %f, want within [0, 1]", p[0], p[1], got)
		}
	}
}
