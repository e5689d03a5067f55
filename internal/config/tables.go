package config

// Tables holds the recognition lookup tables used by the parser, fusion,
// and verification engine. The defaults cover common component families;
// every table can be extended or replaced from the YAML config file.
//
// Design decision: Tables live in config rather than in the parser because
// they are deployment data, not behavior. Sites verifying an unusual
// component family add entries to their config file instead of patching code.
type Tables struct {
	// Manufacturers maps a canonical manufacturer name to the part-number
	// prefixes and alias spellings that identify it on a marking.
	Manufacturers map[string]ManufacturerEntry `yaml:"manufacturers"`

	// Countries maps a canonical country name to the abbreviations and
	// alias spellings found on markings.
	Countries map[string][]string `yaml:"countries"`

	// Confusion maps characters commonly misrecognized by OCR to the digit
	// they should become inside numeric-expected field positions.
	Confusion map[string]string `yaml:"confusion"`

	// PackageWhitelist lists alphabetic package and grade codes that must
	// never be touched by confusion correction, even when they sit inside
	// an otherwise numeric-expected region.
	PackageWhitelist []string `yaml:"package_whitelist"`

	// GarbageTokens lists words commonly misread from the image background
	// (labels, tape, trays). A candidate matching these is penalized by
	// fusion quality scoring.
	GarbageTokens []string `yaml:"garbage_tokens"`
}

// ManufacturerEntry describes one manufacturer in the prefix table.
type ManufacturerEntry struct {
	// Prefixes are part-number prefixes, e.g. "CY" for Cypress.
	Prefixes []string `yaml:"prefixes"`

	// Aliases are spellings of the name as printed on markings,
	// including known misreadings.
	Aliases []string `yaml:"aliases"`
}

// DefaultTables returns the built-in lookup tables.
// The manufacturer set covers the families most frequently targeted by
// remarking; it is not exhaustive and is meant to be extended per site.
func DefaultTables() *Tables {
	return &Tables{
		Manufacturers: map[string]ManufacturerEntry{
			"CYPRESS": {
				Prefixes: []string{"CY"},
				Aliases:  []string{"CYPRESS", "CYP"},
			},
			"TEXAS INSTRUMENTS": {
				Prefixes: []string{"SN", "LM", "TL", "TPS"},
				Aliases:  []string{"TI", "TEXAS", "TEXAS INSTRUMENTS"},
			},
			"ATMEL": {
				Prefixes: []string{"AT"},
				Aliases:  []string{"ATMEL", "ATMEL CORP"},
			},
			"MICROCHIP": {
				Prefixes: []string{"PIC", "MCP", "DSPIC"},
				Aliases:  []string{"MICROCHIP", "MCHP"},
			},
			"STMICROELECTRONICS": {
				Prefixes: []string{"ST", "STM"},
				Aliases:  []string{"ST", "STMICRO", "STMICROELECTRONICS"},
			},
			"NXP": {
				Prefixes: []string{"PCF", "LPC", "MK"},
				Aliases:  []string{"NXP", "PHILIPS"},
			},
			"ANALOG DEVICES": {
				Prefixes: []string{"AD", "ADM"},
				Aliases:  []string{"ANALOG", "ADI", "ANALOG DEVICES"},
			},
			"MAXIM": {
				Prefixes: []string{"MAX", "DS"},
				Aliases:  []string{"MAXIM", "MAXIM INTEGRATED"},
			},
			"INFINEON": {
				Prefixes: []string{"IFX", "SAK", "TLE"},
				Aliases:  []string{"INFINEON"},
			},
			"ONSEMI": {
				Prefixes: []string{"MC", "NCP"},
				Aliases:  []string{"ON", "ONSEMI", "ON SEMICONDUCTOR", "MOTOROLA"},
			},
		},
		Countries: map[string][]string{
			"PHILIPPINES": {"PHI", "PHIL", "PH", "RP"},
			"MALAYSIA":    {"MAL", "MY", "MYS", "MALAY"},
			"CHINA":       {"CHN", "CN", "PRC"},
			"TAIWAN":      {"TWN", "TW", "ROC"},
			"THAILAND":    {"THA", "TH", "THAI"},
			"KOREA":       {"KOR", "KR", "ROK"},
			"JAPAN":       {"JPN", "JP"},
			"USA":         {"US", "U.S.A", "UNITED STATES"},
			"MEXICO":      {"MEX", "MX"},
			"INDONESIA":   {"INA", "IDN", "ID"},
		},
		// Only letter-to-digit directions: correction applies exclusively
		// inside positions expected to be numeric.
		Confusion: map[string]string{
			"O": "0",
			"o": "0",
			"l": "1",
			"I": "1",
			"S": "5",
			"s": "5",
			"Z": "2",
			"z": "2",
		},
		PackageWhitelist: []string{
			"XI", "PI", "AI", "PVXI", "PXI", "AXI",
			"SOIC", "TSSOP", "SSOP", "QFN", "BGA", "DIP",
			"PU", "AU", "CT", "TR",
		},
		GarbageTokens: []string{
			"THE", "AND", "FOR", "WITH", "FROM",
			"WWW", "HTTP", "COM",
			"WARRANTY", "QUALITY", "PASSED", "INSPECTED",
			"FRAGILE", "CAUTION", "STATIC",
		},
	}
}

// Merge overlays non-empty tables from other onto t.
// Map entries are merged key-wise so a config file can add one manufacturer
// without restating the whole default table; list tables are appended.
func (t *Tables) Merge(other *Tables) {
	if other == nil {
		return
	}
	for name, entry := range other.Manufacturers {
		if t.Manufacturers == nil {
			t.Manufacturers = make(map[string]ManufacturerEntry)
		}
		t.Manufacturers[name] = entry
	}
	for name, aliases := range other.Countries {
		if t.Countries == nil {
			t.Countries = make(map[string][]string)
		}
		t.Countries[name] = aliases
	}
	for from, to := range other.Confusion {
		if t.Confusion == nil {
			t.Confusion = make(map[string]string)
		}
		t.Confusion[from] = to
	}
	t.PackageWhitelist = append(t.PackageWhitelist, other.PackageWhitelist...)
	t.GarbageTokens = append(t.GarbageTokens, other.GarbageTokens...)
}
