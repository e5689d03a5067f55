package parser

import (
	"regexp"
	"strings"

	"github.com/markscan/markscan/internal/model"
	"github.com/markscan/markscan/internal/similarity"
)

// manufacturerMatchThreshold is the minimum normalized similarity for a
// leading token to be accepted as a manufacturer name or alias.
const manufacturerMatchThreshold = 0.75

// Part-number pattern alternatives, tried in priority order: hyphenated
// forms first because they are the most distinctive marking element, then
// bare alphanumeric forms.
var (
	partNumberHyphenated = regexp.MustCompile(`^[A-Z0-9]{2,}(?:-[A-Z0-9]+)+$`)
	partNumberBare       = regexp.MustCompile(`^[A-Z]{1,4}[0-9]{2,}[A-Z0-9]*$`)

	// batchWeekShape matches a single batch letter followed by a week or
	// short date digit run, e.g. "B05".
	batchWeekShape = regexp.MustCompile(`^[A-Z][0-9]{2,4}$`)

	digitsOnly = regexp.MustCompile(`^[0-9]+$`)
)

// located remembers where a token was found, so later fields can prefer
// lines other than the part-number line.
type located struct {
	line  int
	token string
}

// extractPartNumber finds the part number using the ordered pattern
// alternatives. It returns the corrected field and the location of the
// winning token.
func (p *Parser) extractPartNumber(lines [][]string) (model.Field, located) {
	for _, pattern := range []*regexp.Regexp{partNumberHyphenated, partNumberBare} {
		var matches []located
		for li, line := range lines {
			for _, tok := range line {
				up := normalizeToken(tok)
				if pattern.MatchString(up) && hasDigit(up) {
					matches = append(matches, located{line: li, token: up})
				}
			}
		}
		if len(matches) == 0 {
			continue
		}

		winner := matches[0]
		corrected, changed := p.corrector.correctPartNumber(winner.token)
		field := model.Field{
			Value:     corrected,
			Origin:    model.OriginAsRead,
			Ambiguous: len(matches) > 1,
		}
		if changed {
			field.Origin = model.OriginCorrected
		}
		return field, located{line: winner.line, token: winner.token}
	}
	return model.Field{}, located{line: -1}
}

// extractManufacturer resolves the manufacturer from the marking.
// Alternatives in priority order: fuzzy alias match over leading tokens,
// then prefix inference from the already-extracted part number.
func (p *Parser) extractManufacturer(lines [][]string, partNumber model.Field) model.Field {
	// Leading tokens: the manufacturer name is printed on the first lines,
	// typically above the part number.
	leading := leadingTokens(lines, 2)

	bestScore := 0.0
	bestName := ""
	matched := 0
	for _, tok := range leading {
		up := normalizeToken(tok)
		if up == "" || digitsOnly.MatchString(up) {
			continue
		}
		for name, entry := range p.tables.Manufacturers {
			for _, alias := range entry.Aliases {
				score := similarity.Score(up, strings.ToUpper(alias))
				if score >= manufacturerMatchThreshold {
					matched++
					if score > bestScore {
						bestScore = score
						bestName = name
					}
				}
			}
		}
	}
	if bestName != "" {
		return model.Field{
			Value:     bestName,
			Origin:    model.OriginAsRead,
			Ambiguous: matched > 1,
		}
	}

	// Second alternative: infer from the part-number prefix.
	if partNumber.Present() {
		if name := p.manufacturerByPrefix(partNumber.Value); name != "" {
			return model.Field{Value: name, Origin: model.OriginAsRead}
		}
	}
	return model.Field{}
}

// manufacturerByPrefix returns the manufacturer whose longest part-number
// prefix matches the given part number, or empty.
func (p *Parser) manufacturerByPrefix(partNumber string) string {
	bestLen := 0
	bestName := ""
	for name, entry := range p.tables.Manufacturers {
		for _, prefix := range entry.Prefixes {
			up := strings.ToUpper(prefix)
			if strings.HasPrefix(partNumber, up) && len(up) > bestLen {
				bestLen = len(up)
				bestName = name
			}
		}
	}
	return bestName
}

// extractDateCode finds the production date code.
//
// Forms are disambiguated by digit-run length and letter prefix: a
// six-digit run is YYMMDD, a four-digit run is a bare year when it starts
// with 19 or 20 and a YYWW week code otherwise, and a letter followed by
// digits is a batch-week code. Pure digit runs take priority over
// letter-prefixed ones because batch letters double as lot identifiers.
func (p *Parser) extractDateCode(lines [][]string, part located) model.Field {
	type candidate struct {
		value   string
		changed bool
		rank    int // lower is better
	}

	var candidates []candidate
	for li, line := range lines {
		for _, tok := range line {
			up := normalizeToken(tok)
			if li == part.line && up == part.token {
				continue
			}
			if c, ok := p.classifyDateToken(up); ok {
				candidates = append(candidates, candidate{value: c.value, changed: c.changed, rank: c.rank})
			}
		}
	}
	if len(candidates) == 0 {
		return model.Field{}
	}

	best := candidates[0]
	ambiguous := false
	for _, c := range candidates[1:] {
		if c.rank < best.rank {
			best = c
		} else if c.rank == best.rank && c.value != best.value {
			ambiguous = true
		}
	}

	field := model.Field{Value: best.value, Origin: model.OriginAsRead, Ambiguous: ambiguous}
	if best.changed {
		field.Origin = model.OriginCorrected
	}
	return field
}

// dateToken is a classified date-code candidate.
type dateToken struct {
	value   string
	changed bool
	rank    int
}

// classifyDateToken applies confusion correction for numeric positions and
// checks the token against the known date-code shapes.
func (p *Parser) classifyDateToken(up string) (dateToken, bool) {
	if up == "" {
		return dateToken{}, false
	}

	// Letter-prefixed batch-week form: correct only the digit part.
	if batchWeekShape.MatchString(up) && !p.corrector.whitelist[up] {
		fixed, changed := p.corrector.correctDigitPart(up, 1)
		return dateToken{value: fixed, changed: changed, rank: 1}, true
	}

	// Pure (or confusably pure) digit runs.
	fixed, changed := p.corrector.correctAllDigits(up)
	if !digitsOnly.MatchString(fixed) {
		return dateToken{}, false
	}
	switch len(fixed) {
	case 4:
		if strings.HasPrefix(fixed, "19") || strings.HasPrefix(fixed, "20") {
			return dateToken{value: fixed, changed: changed, rank: 0}, true
		}
		if validWeek(fixed[2:]) {
			return dateToken{value: fixed, changed: changed, rank: 0}, true
		}
	case 6:
		if validMonthDay(fixed[2:4], fixed[4:6]) {
			return dateToken{value: fixed, changed: changed, rank: 0}, true
		}
	}
	return dateToken{}, false
}

// extractCountry matches tokens against the country table, aliases
// included, and resolves to the canonical country name.
func (p *Parser) extractCountry(lines [][]string) model.Field {
	for _, line := range lines {
		for _, tok := range line {
			up := normalizeToken(tok)
			if name, ok := p.countryFor(up); ok {
				return model.Field{Value: name, Origin: model.OriginAsRead}
			}
		}
	}
	return model.Field{}
}

// countryFor resolves a token to a canonical country name.
func (p *Parser) countryFor(up string) (string, bool) {
	if up == "" {
		return "", false
	}
	for name, aliases := range p.tables.Countries {
		if up == name {
			return name, true
		}
		for _, alias := range aliases {
			if up == strings.ToUpper(alias) {
				return name, true
			}
		}
	}
	return "", false
}

// extractLotCode finds a manufacturer-prefix token followed by a digit run.
// Tokens on a line other than the part-number line are preferred so that
// the part number itself is never misread as a lot code.
func (p *Parser) extractLotCode(lines [][]string, part located) model.Field {
	var sameLine, otherLine []string

	for li, line := range lines {
		for _, tok := range line {
			up := normalizeToken(tok)
			if li == part.line && up == part.token {
				continue
			}
			if !p.isLotToken(up) {
				continue
			}
			if li == part.line {
				sameLine = append(sameLine, up)
			} else {
				otherLine = append(otherLine, up)
			}
		}
	}

	pick := ""
	switch {
	case len(otherLine) > 0:
		pick = otherLine[0]
	case len(sameLine) > 0:
		pick = sameLine[0]
	default:
		return model.Field{}
	}

	field := model.Field{Value: pick, Origin: model.OriginAsRead, Ambiguous: len(otherLine)+len(sameLine) > 1}
	return field
}

// isLotToken reports whether the token is a manufacturer prefix directly
// followed by a digit run of at least three digits.
func (p *Parser) isLotToken(up string) bool {
	for _, entry := range p.tables.Manufacturers {
		for _, prefix := range entry.Prefixes {
			pre := strings.ToUpper(prefix)
			rest, ok := strings.CutPrefix(up, pre)
			if !ok || len(rest) < 3 {
				continue
			}
			if digitsOnly.MatchString(rest) {
				return true
			}
		}
	}
	return false
}

// leadingTokens returns the tokens of the first n lines.
func leadingTokens(lines [][]string, n int) []string {
	var out []string
	for i, line := range lines {
		if i >= n {
			break
		}
		out = append(out, line...)
	}
	return out
}

// normalizeToken uppercases a token and strips surrounding punctuation
// that OCR picks up from marking borders.
func normalizeToken(tok string) string {
	return strings.Trim(strings.ToUpper(tok), ".,:;()[]*")
}

func hasDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

func validWeek(ww string) bool {
	if len(ww) != 2 {
		return false
	}
	n := int(ww[0]-'0')*10 + int(ww[1]-'0')
	return n >= 1 && n <= 53
}

func validMonthDay(mm, dd string) bool {
	m := int(mm[0]-'0')*10 + int(mm[1]-'0')
	d := int(dd[0]-'0')*10 + int(dd[1]-'0')
	return m >= 1 && m <= 12 && d >= 1 && d <= 31
}
