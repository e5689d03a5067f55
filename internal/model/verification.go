package model

import "time"

// Classification is the final authenticity verdict for one component.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and sorting. The String() method provides
// human-readable output when needed.
type Classification int

const (
	// ClassificationAuthentic means the marking is consistent with the
	// official specification with high confidence.
	ClassificationAuthentic Classification = iota

	// ClassificationSuspect means the evidence is mixed: some checks passed
	// but the aggregate confidence is too low to call the part authentic.
	ClassificationSuspect

	// ClassificationCounterfeit means the marking contradicts the official
	// specification, or the critical date-code override fired.
	ClassificationCounterfeit
)

// String returns a human-readable representation of the classification.
func (c Classification) String() string {
	switch c {
	case ClassificationAuthentic:
		return "AUTHENTIC"
	case ClassificationSuspect:
		return "SUSPECT"
	case ClassificationCounterfeit:
		return "COUNTERFEIT"
	default:
		return "UNKNOWN"
	}
}

// Check name constants. The verification engine runs exactly these six
// checks; their configured weights must sum to 1.0.
const (
	CheckPartNumber    = "part_number"
	CheckManufacturer  = "manufacturer"
	CheckDateCode      = "date_code"
	CheckCountry       = "country"
	CheckPrintQuality  = "print_quality"
	CheckMarkingFormat = "marking_format"
)

// SpecDependentChecks lists the checks that compare the marking against the
// official specification. When the specification is unavailable these score
// neutrally at 0.5: absence of authoritative data is inconclusive evidence,
// not proof of forgery.
var SpecDependentChecks = []string{
	CheckPartNumber,
	CheckManufacturer,
	CheckCountry,
	CheckMarkingFormat,
}

// VerificationCheck is the outcome of one weighted check.
type VerificationCheck struct {
	// Name is one of the Check* constants.
	Name string `json:"name"`

	// Weight is the check's contribution to the overall confidence.
	Weight float64 `json:"weight"`

	// Score is the check's result in [0,1].
	Score float64 `json:"score"`

	// Passed is true when Score reached the configured pass threshold.
	Passed bool `json:"passed"`

	// Neutral is true when the check was scored 0.5 because the official
	// specification was unavailable.
	Neutral bool `json:"neutral,omitempty"`

	// Detail is a human-readable explanation of the score.
	Detail string `json:"detail,omitempty"`
}

// VerificationResult is the terminal artifact of one analysis.
// It is immutable once produced and always returned to the caller,
// never silently dropped.
type VerificationResult struct {
	// PartNumber is the extracted (possibly corrected) part number,
	// empty if absent.
	PartNumber string `json:"part_number,omitempty"`

	// Confidence is the weighted confidence in [0,100].
	// It is reported even when the critical override forced the
	// classification, for diagnostic purposes.
	Confidence int `json:"confidence"`

	// Classification is the final verdict.
	Classification Classification `json:"classification"`

	// ClassificationText is the string form of Classification,
	// kept for report serialization.
	ClassificationText string `json:"classification_text"`

	// Checks holds all six check outcomes in fixed order.
	Checks []VerificationCheck `json:"checks"`

	// ChecksPassed lists the names of checks that met the pass threshold.
	ChecksPassed []string `json:"checks_passed"`

	// ChecksFailed lists the names of checks that missed the pass threshold.
	ChecksFailed []string `json:"checks_failed"`

	// Anomalies holds a human-readable reason for every failed or neutral
	// check, plus the override reason when it fired.
	Anomalies []string `json:"anomalies"`

	// Recommendation is a fixed advisory string keyed by classification.
	Recommendation string `json:"recommendation"`

	// OverrideFired is true when the missing date code forced the
	// Counterfeit classification regardless of confidence.
	OverrideFired bool `json:"override_fired,omitempty"`

	// SpecUnavailable is true when the resolver exhausted every source and
	// specification-dependent checks were scored neutrally.
	SpecUnavailable bool `json:"spec_unavailable,omitempty"`

	// NoTextDetected is true when every OCR backend returned an empty
	// candidate and all fields remained absent.
	NoTextDetected bool `json:"no_text_detected,omitempty"`

	// AnalyzedAt is the timestamp of the analysis.
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// recommendationMapping maps classifications to advisory text.
// This centralized mapping keeps recommendations consistent across report
// formats and the history database.
var recommendationMapping = map[Classification]string{
	ClassificationAuthentic:   "Marking is consistent with the official specification. Standard incoming inspection is sufficient.",
	ClassificationSuspect:     "Marking shows inconsistencies. Quarantine the lot and verify with decapsulation or electrical testing before use.",
	ClassificationCounterfeit: "Marking contradicts the official specification. Reject the lot and report the supplier to your counterfeit-avoidance program.",
}

// RecommendationFor returns the fixed advisory string for a classification.
func RecommendationFor(c Classification) string {
	if r, ok := recommendationMapping[c]; ok {
		return r
	}
	return "Review the marking manually."
}
