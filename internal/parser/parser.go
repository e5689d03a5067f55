package parser

import (
	"strings"

	"github.com/markscan/markscan/internal/config"
	"github.com/markscan/markscan/internal/model"
)

// Parser decomposes a fused reading into a structured marking.
// It is safe for concurrent use: all state is immutable configuration.
type Parser struct {
	tables    *config.Tables
	corrector *corrector
}

// New creates a Parser backed by the given lookup tables.
// Nil tables fall back to the built-in defaults.
func New(tables *config.Tables) *Parser {
	if tables == nil {
		tables = config.DefaultTables()
	}
	return &Parser{
		tables:    tables,
		corrector: newCorrector(tables),
	}
}

// Parse extracts structured fields from the fused reading.
//
// An empty reading yields a marking with every field absent; absence
// propagates to the verification engine as a first-class state rather
// than an error.
func (p *Parser) Parse(fused *model.FusedResult) *model.StructuredMarking {
	marking := &model.StructuredMarking{}
	if fused == nil || (fused.Text == "" && len(fused.Tokens) == 0) {
		return marking
	}

	lines := segmentLines(fused)
	marking.RawLines = joinLines(lines)

	// The part number anchors the other fields: its line and token are
	// excluded from date and lot extraction.
	part, loc := p.extractPartNumber(lines)
	marking.PartNumber = part

	marking.Manufacturer = p.extractManufacturer(lines, part)
	marking.DateCode = p.extractDateCode(lines, loc)
	marking.CountryCode = p.extractCountry(lines)
	marking.LotCode = p.extractLotCode(lines, loc)

	return marking
}

// joinLines renders the segmented token lines back into display strings.
func joinLines(lines [][]string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = strings.Join(line, " ")
	}
	return out
}
