package model

// DateFormat identifies the date-code convention a manufacturer uses.
type DateFormat string

// Known date-code formats.
const (
	// DateFormatUnknown means the specification does not state a format.
	DateFormatUnknown DateFormat = ""
	// DateFormatYYWW is a four-digit year-week code, e.g. "0732".
	DateFormatYYWW DateFormat = "YYWW"
	// DateFormatBatchWeek is a letter batch prefix followed by a week code,
	// e.g. "B05".
	DateFormatBatchWeek DateFormat = "BATCH_WEEK"
	// DateFormatYYMMDD is a six-digit full date, e.g. "070815".
	DateFormatYYMMDD DateFormat = "YYMMDD"
	// DateFormatYear is a bare four-digit year, e.g. "2007".
	DateFormatYear DateFormat = "YYYY"
)

// IsValid returns true if this is a known date format.
func (d DateFormat) IsValid() bool {
	switch d {
	case DateFormatYYWW, DateFormatBatchWeek, DateFormatYYMMDD, DateFormatYear:
		return true
	default:
		return false
	}
}

// OfficialSpecification is the authoritative description of how a genuine
// part is marked, resolved from a manufacturer datasheet or an equivalent
// source. It is immutable once resolved and cached under the normalized
// part number.
type OfficialSpecification struct {
	// PartNumber is the normalized part number this specification describes.
	PartNumber string `json:"part_number"`

	// Manufacturer is the canonical manufacturer name.
	Manufacturer string `json:"manufacturer"`

	// ExpectedFormat is a regular expression the genuine part number marking
	// must match, e.g. `^CY8C29[0-9]{3}-[0-9]{2}[A-Z]{2,4}$`.
	ExpectedFormat string `json:"expected_format"`

	// ExpectedDateFormat is the date-code convention for this part family.
	ExpectedDateFormat DateFormat `json:"expected_date_format"`

	// ValidCountries lists canonical names of legitimate production
	// countries. An empty list means the specification does not constrain
	// the country of origin.
	ValidCountries []string `json:"valid_countries"`

	// PackageNaming is the package suffix convention, e.g. "PVXI" for
	// SSOP industrial grade. Used by the marking-format check.
	PackageNaming string `json:"package_naming"`

	// ExpectedLineCount is the number of marking lines a genuine part
	// carries. Zero means the specification does not state a layout.
	ExpectedLineCount int `json:"expected_line_count"`

	// SourceURL records where the specification was resolved from.
	SourceURL string `json:"source_url,omitempty"`
}

// AllowsCountry reports whether the given canonical country name is a
// legitimate production country per this specification. An empty
// ValidCountries list allows any country.
func (s *OfficialSpecification) AllowsCountry(country string) bool {
	if len(s.ValidCountries) == 0 {
		return true
	}
	for _, c := range s.ValidCountries {
		if c == country {
			return true
		}
	}
	return false
}
