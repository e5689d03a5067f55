package parser

import (
	"strings"

	"github.com/markscan/markscan/internal/config"
)

// corrector applies the confusion table to numeric-expected character
// positions. It never touches tokens or token segments that match the
// alphabetic package-code whitelist: a trailing grade suffix like "XI"
// must survive even when the surrounding digits are corrected.
type corrector struct {
	confusion map[rune]rune
	whitelist map[string]bool
}

func newCorrector(tables *config.Tables) *corrector {
	c := &corrector{
		confusion: make(map[rune]rune),
		whitelist: make(map[string]bool),
	}
	if tables == nil {
		return c
	}
	for from, to := range tables.Confusion {
		fr := []rune(from)
		tr := []rune(to)
		if len(fr) == 1 && len(tr) == 1 {
			c.confusion[fr[0]] = tr[0]
		}
	}
	for _, w := range tables.PackageWhitelist {
		c.whitelist[strings.ToUpper(w)] = true
	}
	return c
}

// correctAllDigits rewrites every confusable character of s into its digit,
// for strings whose whole content is expected to be numeric (date codes,
// lot digit runs). A whitelisted token is returned unchanged.
// The second return value reports whether anything changed.
func (c *corrector) correctAllDigits(s string) (string, bool) {
	if c.whitelist[strings.ToUpper(s)] {
		return s, false
	}
	runes := []rune(s)
	changed := false
	for i, r := range runes {
		if d, ok := c.confusion[r]; ok {
			runes[i] = d
			changed = true
		}
	}
	if !changed {
		return s, false
	}
	return string(runes), true
}

// correctDigitPart corrects only the digit part of a letter-prefixed code
// such as "B05": the prefix letters are expected alphabetic and stay as
// read, the remainder is expected numeric.
func (c *corrector) correctDigitPart(s string, prefixLen int) (string, bool) {
	if prefixLen >= len(s) {
		return s, false
	}
	tail, changed := c.correctAllDigits(s[prefixLen:])
	if !changed {
		return s, false
	}
	return s[:prefixLen] + tail, true
}

// correctPartNumber corrects confusable characters inside the digit runs of
// a part number. Correction is positional: a confusable letter is rewritten
// only when it sits between digits, because genuine part numbers embed
// alphabetic segments (family codes, package suffixes) that must stay
// alphabetic.
//
// Each hyphen-separated segment is handled independently, and a segment's
// trailing alphabetic run is left untouched when it matches the package
// whitelist.
func (c *corrector) correctPartNumber(s string) (string, bool) {
	segments := strings.Split(s, "-")
	changed := false
	for i, seg := range segments {
		fixed, segChanged := c.correctSegment(seg)
		if segChanged {
			segments[i] = fixed
			changed = true
		}
	}
	if !changed {
		return s, false
	}
	return strings.Join(segments, "-"), true
}

// correctSegment corrects one hyphen-free part-number segment.
func (c *corrector) correctSegment(seg string) (string, bool) {
	if seg == "" || c.whitelist[strings.ToUpper(seg)] {
		return seg, false
	}

	runes := []rune(seg)

	// Locate the trailing alphabetic run; if whitelisted, it is protected.
	protectedFrom := len(runes)
	tail := trailingAlphaRun(runes)
	if tail < len(runes) && c.whitelist[strings.ToUpper(string(runes[tail:]))] {
		protectedFrom = tail
	}

	changed := false
	for i, r := range runes {
		if i >= protectedFrom {
			break
		}
		d, ok := c.confusion[r]
		if !ok {
			continue
		}
		if neighborIsDigit(runes, i) {
			runes[i] = d
			changed = true
		}
	}
	if !changed {
		return seg, false
	}
	return string(runes), true
}

// trailingAlphaRun returns the index where the trailing run of letters
// starts, or len(runes) if the segment does not end in letters.
func trailingAlphaRun(runes []rune) int {
	i := len(runes)
	for i > 0 && isLetter(runes[i-1]) {
		i--
	}
	return i
}

// neighborIsDigit reports whether the rune at i has a digit directly
// before or after it.
func neighborIsDigit(runes []rune, i int) bool {
	if i > 0 && isDigit(runes[i-1]) {
		return true
	}
	if i+1 < len(runes) && isDigit(runes[i+1]) {
		return true
	}
	return false
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isLetter(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}
