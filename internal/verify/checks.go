package verify

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/markscan/markscan/internal/model"
	"github.com/markscan/markscan/internal/similarity"
)

// neutralDetail explains a neutrally scored check.
const neutralDetail = "specification unavailable, scored neutrally"

// checkPartNumber fuzzy-matches the extracted part number against the
// specification's. The score is the normalized Levenshtein similarity,
// so one misread character on a sixteen-character part costs little
// while a relabeled part scores near zero.
func (e *Engine) checkPartNumber(marking *model.StructuredMarking, spec *model.OfficialSpecification) model.VerificationCheck {
	check := model.VerificationCheck{Name: model.CheckPartNumber, Weight: e.weights.PartNumber}

	if spec == nil {
		check.Score = neutralScore
		check.Neutral = true
		check.Detail = neutralDetail
		return check
	}
	if !marking.PartNumber.Present() {
		check.Detail = "no part number extracted from marking"
		return check
	}

	check.Score = similarity.Score(marking.PartNumber.Value, spec.PartNumber)
	check.Detail = fmt.Sprintf("similarity %.2f between %q and expected %q",
		check.Score, marking.PartNumber.Value, spec.PartNumber)
	return check
}

// checkManufacturer performs an alias-aware exact match: "TI" and
// "TEXAS INSTRUMENTS" compare equal, but no fuzzy credit is given
// because manufacturer substitution is a hard counterfeiting signal.
func (e *Engine) checkManufacturer(marking *model.StructuredMarking, spec *model.OfficialSpecification) model.VerificationCheck {
	check := model.VerificationCheck{Name: model.CheckManufacturer, Weight: e.weights.Manufacturer}

	if spec == nil {
		check.Score = neutralScore
		check.Neutral = true
		check.Detail = neutralDetail
		return check
	}
	if !marking.Manufacturer.Present() {
		check.Detail = "no manufacturer extracted from marking"
		return check
	}

	got := e.canonicalManufacturer(strings.ToUpper(marking.Manufacturer.Value))
	want := e.canonicalManufacturer(strings.ToUpper(spec.Manufacturer))
	if got == want {
		check.Score = 1.0
		check.Detail = fmt.Sprintf("manufacturer %q matches specification", got)
	} else {
		check.Detail = fmt.Sprintf("manufacturer %q does not match expected %q", got, want)
	}
	return check
}

// checkDateCode validates the date code's format and plausible age.
// Format validity and age each contribute half the score; a code whose
// format carries no decodable year (batch-week codes) is not penalized
// on age because the age cannot be disproved.
//
// This check never depends on the specification being available: an
// expected format sharpens the validation when known, but a date code is
// judged on its own shape otherwise.
func (e *Engine) checkDateCode(marking *model.StructuredMarking) model.VerificationCheck {
	check := model.VerificationCheck{Name: model.CheckDateCode, Weight: e.weights.DateCode}

	if !marking.DateCode.Present() {
		check.Detail = "no date code extracted from marking"
		return check
	}

	value := marking.DateCode.Value
	currentYear := e.now().Year()
	year, hasYear, formatOK := decodeDateCode(value, currentYear)

	if formatOK {
		check.Score += 0.5
	}
	switch {
	case !hasYear && formatOK:
		// Age is unverifiable for this format, which is not evidence
		// against the part.
		check.Score += 0.5
		check.Detail = fmt.Sprintf("date code %q has valid format, age not decodable", value)
	case !hasYear:
		check.Detail = fmt.Sprintf("date code %q carries no decodable year", value)
	case year > currentYear:
		check.Detail = fmt.Sprintf("date code %q decodes to future year %d", value, year)
	case year < currentYear-e.maxAge:
		check.Detail = fmt.Sprintf("date code %q decodes to year %d, older than the %d-year maximum", value, year, e.maxAge)
	default:
		check.Score += 0.5
		check.Detail = fmt.Sprintf("date code %q decodes to plausible year %d", value, year)
	}

	if !formatOK {
		check.Detail = fmt.Sprintf("date code %q matches no known format; %s", value, check.Detail)
	}
	return check
}

// checkCountry tests membership of the resolved country in the
// specification's valid production countries.
func (e *Engine) checkCountry(marking *model.StructuredMarking, spec *model.OfficialSpecification) model.VerificationCheck {
	check := model.VerificationCheck{Name: model.CheckCountry, Weight: e.weights.Country}

	if spec == nil {
		check.Score = neutralScore
		check.Neutral = true
		check.Detail = neutralDetail
		return check
	}
	if !marking.CountryCode.Present() {
		check.Detail = "no country of origin extracted from marking"
		return check
	}

	if spec.AllowsCountry(marking.CountryCode.Value) {
		check.Score = 1.0
		check.Detail = fmt.Sprintf("country %q is a valid production country", marking.CountryCode.Value)
	} else {
		check.Detail = fmt.Sprintf("country %q is not among valid production countries %v",
			marking.CountryCode.Value, spec.ValidCountries)
	}
	return check
}

// checkPrintQuality scores the externally supplied image-quality
// composite. Blurry, low-contrast remarked surfaces score low here even
// when the text itself was recognized.
func (e *Engine) checkPrintQuality(quality model.QualityVector) model.VerificationCheck {
	check := model.VerificationCheck{Name: model.CheckPrintQuality, Weight: e.weights.PrintQuality}
	check.Score = quality.Composite()
	check.Detail = fmt.Sprintf("print quality composite %.2f (sharpness %.2f, contrast %.2f, noise %.2f, edges %.2f)",
		check.Score, quality.Sharpness, quality.Contrast, quality.Noise, quality.EdgeDensity)
	return check
}

// checkMarkingFormat tests structural conformance of the observed
// marking layout: line count, part-number pattern, and package suffix,
// whichever of those the specification states. The score is the
// fraction of stated criteria the marking satisfies; a specification
// stating no layout constraints scores 1.0.
func (e *Engine) checkMarkingFormat(marking *model.StructuredMarking, spec *model.OfficialSpecification) model.VerificationCheck {
	check := model.VerificationCheck{Name: model.CheckMarkingFormat, Weight: e.weights.MarkingFormat}

	if spec == nil {
		check.Score = neutralScore
		check.Neutral = true
		check.Detail = neutralDetail
		return check
	}

	var criteria, satisfied int
	var failures []string

	if spec.ExpectedLineCount > 0 {
		criteria++
		if len(marking.RawLines) == spec.ExpectedLineCount {
			satisfied++
		} else {
			failures = append(failures, fmt.Sprintf("%d marking lines, expected %d",
				len(marking.RawLines), spec.ExpectedLineCount))
		}
	}

	if spec.ExpectedFormat != "" && marking.PartNumber.Present() {
		criteria++
		if re, err := regexp.Compile(spec.ExpectedFormat); err == nil && re.MatchString(marking.PartNumber.Value) {
			satisfied++
		} else {
			failures = append(failures, fmt.Sprintf("part number %q does not match expected pattern %q",
				marking.PartNumber.Value, spec.ExpectedFormat))
		}
	}

	if spec.PackageNaming != "" && marking.PartNumber.Present() {
		criteria++
		if strings.HasSuffix(marking.PartNumber.Value, spec.PackageNaming) {
			satisfied++
		} else {
			failures = append(failures, fmt.Sprintf("part number %q does not carry package suffix %q",
				marking.PartNumber.Value, spec.PackageNaming))
		}
	}

	if criteria == 0 {
		check.Score = 1.0
		check.Detail = "specification states no layout constraints"
		return check
	}

	check.Score = float64(satisfied) / float64(criteria)
	if len(failures) == 0 {
		check.Detail = fmt.Sprintf("layout satisfies all %d stated criteria", criteria)
	} else {
		check.Detail = strings.Join(failures, "; ")
	}
	return check
}

// decodeDateCode classifies a date code's shape and extracts its year
// when the format carries one. It returns the decoded year, whether a
// year was decodable, and whether the shape matches any known format.
func decodeDateCode(value string, currentYear int) (year int, hasYear, formatOK bool) {
	switch {
	case isDigits(value) && len(value) == 4:
		n, _ := strconv.Atoi(value)
		if strings.HasPrefix(value, "19") || strings.HasPrefix(value, "20") {
			// Bare four-digit year, e.g. "2007".
			return n, true, true
		}
		// Year-week code, e.g. "0732".
		week, _ := strconv.Atoi(value[2:])
		if week >= 1 && week <= 53 {
			return expandTwoDigitYear(value[:2], currentYear), true, true
		}
		return 0, false, false

	case isDigits(value) && len(value) == 6:
		// Full date, e.g. "070815".
		month, _ := strconv.Atoi(value[2:4])
		day, _ := strconv.Atoi(value[4:6])
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return expandTwoDigitYear(value[:2], currentYear), true, true
		}
		return 0, false, false

	case len(value) >= 3 && unicode.IsLetter(rune(value[0])) && isDigits(value[1:]):
		// Batch-week code, e.g. "B05": no year is encoded.
		return 0, false, true

	default:
		return 0, false, false
	}
}

// expandTwoDigitYear maps a two-digit year to the century that keeps it
// in the past: codes up to the current two-digit year are this century,
// the rest are the previous one.
func expandTwoDigitYear(yy string, currentYear int) int {
	n, _ := strconv.Atoi(yy)
	if n <= currentYear%100 {
		return 2000 + n
	}
	return 1900 + n
}

// isDigits reports whether s is non-empty and all ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
