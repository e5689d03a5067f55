package similarity

import "testing"

// TestDistance tests the Levenshtein edit distance.
func TestDistance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"CY8C29666", "CY8C296G6", 1},
		{"LM358N", "LM358N", 0},
		{"flaw", "lawn", 2},
	}

	for _, tt := range tests {
		if got := Distance(tt.a, tt.b); got != tt.want {
			t.Errorf("Distance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

// TestScore tests the normalized similarity.
func TestScore(t *testing.T) {
	t.Parallel()

	t.Run("identical strings score 1", func(t *testing.T) {
		t.Parallel()

		if got := Score("CYPRESS", "CYPRESS"); got != 1 {
			t.Errorf("Score = %f, want 1", got)
		}
	})

	t.Run("empty against non-empty scores 0", func(t *testing.T) {
		t.Parallel()

		if got := Score("", "CYPRESS"); got != 0 {
			t.Errorf("Score = %f, want 0", got)
		}
	})

	t.Run("one edit in nine runes", func(t *testing.T) {
		t.Parallel()

		got := Score("CY8C29666", "CY8C296G6")
		want := 1 - 1.0/9
		if got < want-1e-9 || got > want+1e-9 {
			t.Errorf("Score = %f, want %f", got, want)
		}
	})

	t.Run("alias above manufacturer threshold", func(t *testing.T) {
		t.Parallel()

		// One dropped character: a typical OCR misreading of a printed name.
		if got := Score("CYPRES", "CYPRESS"); got < 0.75 {
			t.Errorf("Score = %f, want >= 0.75", got)
		}
	})

	t.Run("unrelated strings score low", func(t *testing.T) {
		t.Parallel()

		if got := Score("CYPRESS", "MAXIM"); got > 0.4 {
			t.Errorf("Score = %f, want <= 0.4", got)
		}
	})
}
