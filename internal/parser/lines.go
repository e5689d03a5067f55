package parser

import (
	"sort"
	"strings"

	"github.com/markscan/markscan/internal/model"
)

// lineClusterRatio scales the estimated character height into the vertical
// tolerance for grouping tokens onto one line. Markings are laser-etched in
// straight rows, so a little over half a character height absorbs baseline
// jitter without merging adjacent rows.
const lineClusterRatio = 0.6

// defaultLineTolerance is the fallback tolerance in pixels when no token
// reports a character height.
const defaultLineTolerance = 8.0

// segmentLines turns the fused reading into ordered lines of tokens.
// Tokens with geometry are clustered by vertical position and ordered
// left-to-right within a line, lines top-to-bottom. Readings without
// geometry are split on newlines and whitespace.
func segmentLines(fused *model.FusedResult) [][]string {
	if len(fused.Tokens) == 0 {
		return segmentText(fused.Text)
	}

	tokens := make([]model.Token, len(fused.Tokens))
	copy(tokens, fused.Tokens)
	sort.SliceStable(tokens, func(i, j int) bool { return tokens[i].Y < tokens[j].Y })

	tolerance := lineClusterRatio * medianHeight(tokens)
	if tolerance <= 0 {
		tolerance = defaultLineTolerance
	}

	// Greedy clustering over Y-sorted tokens: a token starts a new line
	// when it sits below the current line's running mean by more than the
	// tolerance.
	var clusters [][]model.Token
	var current []model.Token
	var meanY float64

	for _, tok := range tokens {
		if len(current) == 0 || tok.Y-meanY <= tolerance {
			current = append(current, tok)
			meanY = meanOfY(current)
			continue
		}
		clusters = append(clusters, current)
		current = []model.Token{tok}
		meanY = tok.Y
	}
	if len(current) > 0 {
		clusters = append(clusters, current)
	}

	lines := make([][]string, 0, len(clusters))
	for _, cluster := range clusters {
		sort.SliceStable(cluster, func(i, j int) bool { return cluster[i].X < cluster[j].X })
		line := make([]string, 0, len(cluster))
		for _, tok := range cluster {
			if t := strings.TrimSpace(tok.Text); t != "" {
				line = append(line, t)
			}
		}
		if len(line) > 0 {
			lines = append(lines, line)
		}
	}
	return lines
}

// segmentText splits plain text into lines of whitespace-separated tokens.
func segmentText(text string) [][]string {
	var lines [][]string
	for _, raw := range strings.Split(text, "\n") {
		fields := strings.Fields(raw)
		if len(fields) > 0 {
			lines = append(lines, fields)
		}
	}
	return lines
}

// medianHeight returns the median reported character height, ignoring
// tokens without geometry.
func medianHeight(tokens []model.Token) float64 {
	heights := make([]float64, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Height > 0 {
			heights = append(heights, tok.Height)
		}
	}
	if len(heights) == 0 {
		return 0
	}
	sort.Float64s(heights)
	return heights[len(heights)/2]
}

func meanOfY(tokens []model.Token) float64 {
	var sum float64
	for _, tok := range tokens {
		sum += tok.Y
	}
	return sum / float64(len(tokens))
}
