package datasheet

import (
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/markscan/markscan/internal/model"
)

// HTML element name constants for specification table detection.
const (
	htmlElementTable = "table"
	htmlElementRow   = "tr"
	htmlElementDL    = "dl"
	htmlElementDT    = "dt"
	htmlElementDD    = "dd"
)

// ParseDocument extracts an OfficialSpecification from a datasheet HTML
// page. It scans definition lists and two-column tables for labeled
// marking attributes (part number, manufacturer, marking format, date
// code format, countries of origin, package naming, marking lines).
//
// Design decision: We use golang.org/x/net/html for parsing rather than
// regex because:
//  1. It correctly handles malformed HTML common on datasheet sites
//  2. Provides a proper DOM-like structure
//  3. More maintainable than complex regex patterns
//  4. Standard library extension, well-maintained
func ParseDocument(content io.Reader) (*model.OfficialSpecification, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	pairs := make(map[string]string)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case htmlElementTable:
				collectTablePairs(n, pairs)
			case htmlElementDL:
				collectDefinitionPairs(n, pairs)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	spec := specFromPairs(pairs)
	if spec.PartNumber == "" {
		return nil, ErrNotFound
	}

	return spec, nil
}

// collectTablePairs extracts key/value pairs from two-column table rows.
// The first cell (th or td) is the label, the second is the value.
func collectTablePairs(table *html.Node, pairs map[string]string) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == htmlElementRow {
			cells := make([]string, 0, 2)
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					cells = append(cells, nodeText(c))
				}
			}
			if len(cells) >= 2 {
				addPair(pairs, cells[0], cells[1])
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
}

// collectDefinitionPairs extracts dt/dd pairs from a definition list.
func collectDefinitionPairs(dl *html.Node, pairs map[string]string) {
	var key string
	for c := dl.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case htmlElementDT:
			key = nodeText(c)
		case htmlElementDD:
			if key != "" {
				addPair(pairs, key, nodeText(c))
				key = ""
			}
		}
	}
}

// addPair stores a labeled value under a canonical lowercase key.
// The first occurrence of a label wins.
func addPair(pairs map[string]string, label, value string) {
	key := strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(label), ":")))
	value = strings.TrimSpace(value)
	if key == "" || value == "" {
		return
	}
	if _, ok := pairs[key]; !ok {
		pairs[key] = value
	}
}

// nodeText returns the concatenated text content of a node.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// labelAliases maps the labels datasheet sites use to canonical
// specification fields. Lookup is by exact lowercase label.
var labelAliases = map[string]string{
	"part number":          "part",
	"part no":              "part",
	"part":                 "part",
	"mpn":                  "part",
	"manufacturer":         "manufacturer",
	"maker":                "manufacturer",
	"brand":                "manufacturer",
	"marking format":       "format",
	"expected format":      "format",
	"marking pattern":      "format",
	"date code format":     "dateformat",
	"date code":            "dateformat",
	"date format":          "dateformat",
	"valid countries":      "countries",
	"countries of origin":  "countries",
	"country of origin":    "countries",
	"assembly locations":   "countries",
	"package naming":       "package",
	"package":              "package",
	"package code":         "package",
	"marking lines":        "lines",
	"marking line count":   "lines",
	"number of mark lines": "lines",
}

// specFromPairs converts labeled values into a specification.
func specFromPairs(pairs map[string]string) *model.OfficialSpecification {
	spec := &model.OfficialSpecification{}

	for label, value := range pairs {
		switch labelAliases[label] {
		case "part":
			spec.PartNumber = strings.ToUpper(value)
		case "manufacturer":
			spec.Manufacturer = strings.ToUpper(value)
		case "format":
			spec.ExpectedFormat = value
		case "dateformat":
			spec.ExpectedDateFormat = parseDateFormat(value)
		case "countries":
			spec.ValidCountries = splitCountries(value)
		case "package":
			spec.PackageNaming = strings.ToUpper(value)
		case "lines":
			if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n > 0 {
				spec.ExpectedLineCount = n
			}
		}
	}

	return spec
}

// parseDateFormat maps the date-code descriptions found on datasheet
// sites to the known format identifiers.
func parseDateFormat(value string) model.DateFormat {
	normalized := strings.ToUpper(strings.Join(strings.Fields(value), ""))
	switch {
	case strings.Contains(normalized, "YYWW"):
		return model.DateFormatYYWW
	case strings.Contains(normalized, "YYMMDD"):
		return model.DateFormatYYMMDD
	case strings.Contains(normalized, "BATCH"):
		return model.DateFormatBatchWeek
	case strings.Contains(normalized, "YYYY") || strings.Contains(normalized, "YEAR"):
		return model.DateFormatYear
	default:
		return model.DateFormatUnknown
	}
}

// splitCountries splits a country list on commas, semicolons or slashes
// and uppercases each entry.
func splitCountries(value string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';' || r == '/'
	})

	countries := make([]string, 0, len(fields))
	for _, f := range fields {
		if c := strings.ToUpper(strings.TrimSpace(f)); c != "" {
			countries = append(countries, c)
		}
	}
	if len(countries) == 0 {
		return nil
	}
	return countries
}
