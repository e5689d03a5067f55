// Package similarity provides normalized string similarity scoring.
// It is used by the marking parser for alias-aware manufacturer matching
// and by the verification engine for part-number comparison.
package similarity

import "unicode/utf8"

// Score returns the normalized similarity of two strings in [0,1].
// 1.0 means identical, 0.0 means nothing in common. The score is
// 1 - levenshtein(a,b)/max(len(a),len(b)), computed over runes so that
// multi-byte characters count as single edits.
func Score(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la == 0 || lb == 0 {
		return 0
	}
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	return 1 - float64(Distance(a, b))/float64(maxLen)
}

// Distance returns the Levenshtein edit distance between two strings,
// counted in runes.
//
// The implementation keeps a single row of the dynamic-programming matrix,
// so memory is O(len(b)) and time is O(len(a)*len(b)). Marking tokens are
// short, so no further optimization is warranted.
func Distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	row := make([]int, len(rb)+1)
	for j := range row {
		row[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		prev := row[0]
		row[0] = i
		for j := 1; j <= len(rb); j++ {
			cur := row[j]
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			row[j] = minOf(row[j]+1, row[j-1]+1, prev+cost)
			prev = cur
		}
	}
	return row[len(rb)]
}

func minOf(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
