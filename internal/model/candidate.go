package model

// Token is a single recognized text fragment with its position on the image.
// Coordinates are in pixels relative to the top-left corner of the image.
// Height is the estimated character height, used by the parser to cluster
// tokens into lines.
type Token struct {
	// Text is the recognized token text.
	Text string `json:"text"`

	// X is the horizontal position of the token's left edge.
	X float64 `json:"x"`

	// Y is the vertical position of the token's baseline.
	Y float64 `json:"y"`

	// Height is the estimated character height in pixels.
	// Zero means the backend did not report geometry.
	Height float64 `json:"height"`
}

// OCRCandidate is the reading produced by one OCR backend for one image.
// A backend that fails or exceeds its timeout still contributes a candidate
// with empty text and zero confidence so that fusion always sees exactly
// one candidate per configured backend.
//
// Candidates are immutable once produced; fusion only reads them.
type OCRCandidate struct {
	// Text is the full recognized text, lines separated by '\n'.
	Text string `json:"text"`

	// Confidence is the backend's own confidence in [0,1].
	// This is intentionally kept separate from the fusion quality score,
	// which is computed independently of backend self-assessment.
	Confidence float64 `json:"confidence"`

	// Backend identifies the backend that produced this candidate.
	Backend string `json:"backend"`

	// Tokens holds positioned tokens when the backend reports geometry.
	// May be empty; the parser falls back to whitespace segmentation.
	Tokens []Token `json:"tokens,omitempty"`
}

// Empty reports whether the candidate carries no usable text.
func (c OCRCandidate) Empty() bool {
	return c.Text == ""
}

// FusedResult is the single trusted reading selected by fusion.
// Exactly one FusedResult exists per analysis and it is never mutated
// after creation.
type FusedResult struct {
	// Text is the selected candidate's text.
	Text string `json:"text"`

	// Score is the composite score of the selected candidate,
	// 0.7*quality + 0.3*confidence.
	Score float64 `json:"score"`

	// Backend is the backend whose candidate was selected.
	Backend string `json:"backend"`

	// Tokens are the positioned tokens of the selected candidate, if any.
	Tokens []Token `json:"tokens,omitempty"`
}

// QualityVector is the normalized image quality composite supplied by the
// image provider. Each component is in [0,1], higher is better except Noise
// where higher means more noise.
type QualityVector struct {
	// Sharpness measures edge definition of the marking region.
	Sharpness float64 `json:"sharpness"`

	// Contrast measures foreground/background separation.
	Contrast float64 `json:"contrast"`

	// Noise measures sensor and compression noise. Higher is worse.
	Noise float64 `json:"noise"`

	// EdgeDensity measures the density of printed edges in the region.
	EdgeDensity float64 `json:"edge_density"`
}

// Composite reduces the vector to a single print-quality score in [0,1].
// Noise counts against the score; the remaining components count for it.
func (q QualityVector) Composite() float64 {
	score := (q.Sharpness + q.Contrast + q.EdgeDensity + (1 - q.Noise)) / 4
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
