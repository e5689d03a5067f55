package fusion

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/markscan/markscan/internal/config"
	"github.com/markscan/markscan/internal/model"
)

// Score blend ratio: text quality dominates backend self-confidence.
const (
	qualityWeight    = 0.7
	confidenceWeight = 0.3
)

// Quality score components. The base weight keeps a plain non-empty reading
// above zero; bonuses reward marking-like structure; penalties push down
// readings that look like misrecognized background text.
const (
	baseQuality        = 0.30
	lengthBandBonus    = 0.15
	mixedCharsBonus    = 0.15
	shapeBonus         = 0.20
	punctuationPenalty = 0.20
	garbagePenalty     = 0.30

	// punctuationDensityLimit is the fraction of punctuation characters
	// above which the penalty applies. Genuine markings are almost entirely
	// alphanumeric with occasional hyphens and dots.
	punctuationDensityLimit = 0.15
)

// Marking shape patterns. A candidate containing a part-number-like or
// date-code-like token is more likely a real marking than background text.
var (
	partNumberShape = regexp.MustCompile(`\b[A-Z]{1,4}[0-9A-Z]{2,}(?:-[0-9A-Z]+)+\b`)
	dateCodeShape   = regexp.MustCompile(`\b(?:[0-9]{4}|[0-9]{6}|[A-Z][0-9]{2,4})\b`)
)

// Fuser selects the single trusted reading from per-backend candidates.
// It carries only configuration; Fuse itself holds no state between calls.
type Fuser struct {
	// priority is the configured backend priority order, used to break
	// composite-score ties deterministically.
	priority []string

	// garbage is the uppercase set of known background words.
	garbage map[string]bool
}

// New creates a Fuser with the given backend priority order and lookup
// tables.
func New(priority []string, tables *config.Tables) *Fuser {
	garbage := make(map[string]bool)
	if tables != nil {
		for _, w := range tables.GarbageTokens {
			garbage[strings.ToUpper(w)] = true
		}
	}
	return &Fuser{
		priority: priority,
		garbage:  garbage,
	}
}

// Fuse merges the candidates into one FusedResult.
//
// The candidate with the highest composite score wins; ties are broken by
// the configured backend priority order. When every candidate is empty,
// Fuse returns an empty FusedResult and noText=true so downstream stages
// proceed with all-absent fields rather than aborting.
func (f *Fuser) Fuse(candidates []model.OCRCandidate) (*model.FusedResult, bool) {
	best := -1
	bestScore := -1.0

	for i, c := range candidates {
		if c.Empty() {
			continue
		}
		score := qualityWeight*f.Quality(c.Text) + confidenceWeight*c.Confidence
		switch {
		case score > bestScore:
			best, bestScore = i, score
		case score == bestScore && best >= 0:
			// Equal composite scores: the backend earlier in the priority
			// order wins, keeping selection deterministic.
			if f.priorityRank(c.Backend) < f.priorityRank(candidates[best].Backend) {
				best = i
			}
		}
	}

	if best < 0 {
		return &model.FusedResult{}, true
	}

	selected := candidates[best]
	return &model.FusedResult{
		Text:    selected.Text,
		Score:   bestScore,
		Backend: selected.Backend,
		Tokens:  selected.Tokens,
	}, false
}

// Quality computes the text quality score in [0,1], independent of any
// backend confidence.
func (f *Fuser) Quality(text string) float64 {
	score := baseQuality

	compact := strings.TrimSpace(text)
	if n := len(compact); n >= config.MinMarkingLength && n <= config.MaxMarkingLength {
		score += lengthBandBonus
	}

	if hasLetters(compact) && hasDigits(compact) {
		score += mixedCharsBonus
	}

	upper := strings.ToUpper(compact)
	if partNumberShape.MatchString(upper) || dateCodeShape.MatchString(upper) {
		score += shapeBonus
	}

	if punctuationDensity(compact) > punctuationDensityLimit {
		score -= punctuationPenalty
	}

	if f.containsGarbage(upper) {
		score -= garbagePenalty
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// priorityRank returns the backend's position in the priority order.
// Unknown backends sort after all configured ones.
func (f *Fuser) priorityRank(backend string) int {
	for i, name := range f.priority {
		if name == backend {
			return i
		}
	}
	return len(f.priority)
}

// containsGarbage reports whether any whitespace-separated token of the
// uppercase text is a known background word.
func (f *Fuser) containsGarbage(upper string) bool {
	for _, tok := range strings.Fields(upper) {
		if f.garbage[strings.Trim(tok, ".,:;!?")] {
			return true
		}
	}
	return false
}

func hasLetters(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func hasDigits(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// punctuationDensity returns the fraction of characters that are neither
// alphanumeric nor whitespace.
func punctuationDensity(s string) float64 {
	if s == "" {
		return 0
	}
	var punct, total int
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			punct++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(punct) / float64(total)
}
