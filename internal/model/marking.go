package model

// fieldAbsentStr is the string representation for absent fields.
const fieldAbsentStr = "absent"

// FieldOrigin records how a structured marking field was obtained.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons. The String() method provides human-readable
// output for reports and diagnostics.
type FieldOrigin int

const (
	// OriginAbsent means the field could not be extracted from the marking.
	// Absence is a first-class state, not an error: downstream checks treat
	// an absent field differently from an invalid one.
	OriginAbsent FieldOrigin = iota

	// OriginAsRead means the field was extracted exactly as recognized,
	// with no confusion correction applied.
	OriginAsRead

	// OriginCorrected means at least one character of the field was
	// rewritten by the confusion-correction table.
	OriginCorrected
)

// String returns a human-readable representation of the field origin.
func (o FieldOrigin) String() string {
	switch o {
	case OriginAsRead:
		return "as-read"
	case OriginCorrected:
		return "corrected"
	default:
		return fieldAbsentStr
	}
}

// Field is one extracted marking field together with its provenance.
// An absent field has empty Value and OriginAbsent; empty-string sentinels
// are never used to mean "not found" on a present field.
type Field struct {
	// Value is the extracted text. Empty if and only if Origin is OriginAbsent.
	Value string `json:"value"`

	// Origin records whether the value was corrected, read verbatim, or absent.
	Origin FieldOrigin `json:"origin"`

	// Ambiguous is set when more than one pattern alternative matched and the
	// highest-scoring one was chosen. Diagnostic only; does not affect scoring.
	Ambiguous bool `json:"ambiguous,omitempty"`
}

// Present reports whether the field was extracted.
func (f Field) Present() bool {
	return f.Origin != OriginAbsent
}

// StructuredMarking is the fused reading decomposed into named fields.
// RawLines preserves the segmented lines in top-to-bottom order so that
// the marking-format check can compare the observed layout against the
// specification's expected layout.
type StructuredMarking struct {
	// RawLines are the segmented marking lines, top to bottom.
	RawLines []string `json:"raw_lines"`

	// PartNumber is the component part number, e.g. "CY8C29666-24PVXI".
	PartNumber Field `json:"part_number"`

	// Manufacturer is the manufacturer name resolved from prefix matching,
	// e.g. "CYPRESS".
	Manufacturer Field `json:"manufacturer"`

	// DateCode is the production date code, e.g. "0732" or "2007".
	DateCode Field `json:"date_code"`

	// LotCode is the production lot identifier.
	LotCode Field `json:"lot_code"`

	// CountryCode is the country of origin resolved to its canonical name,
	// e.g. "PHILIPPINES".
	CountryCode Field `json:"country_code"`
}

// FieldCount returns how many of the five named fields are present.
func (m *StructuredMarking) FieldCount() int {
	n := 0
	for _, f := range []Field{m.PartNumber, m.Manufacturer, m.DateCode, m.LotCode, m.CountryCode} {
		if f.Present() {
			n++
		}
	}
	return n
}
