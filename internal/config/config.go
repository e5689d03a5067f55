package config

import (
	"math"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are calibrated against typical IC marking characteristics
// and are safe starting points for most component families.
const (
	// DefaultCacheTTL is how long a resolved specification (or a not-found
	// sentinel) stays valid in the cache. Datasheets change rarely, so
	// 30 days avoids re-querying sources for parts verified in bulk.
	DefaultCacheTTL = 30 * 24 * time.Hour

	// DefaultBackendTimeout bounds a single OCR backend invocation.
	// A backend exceeding this contributes an empty candidate rather than
	// blocking the analysis.
	DefaultBackendTimeout = 20 * time.Second

	// DefaultSourceTimeout bounds a single datasheet source query.
	// A timeout advances the cascade to the next source.
	DefaultSourceTimeout = 15 * time.Second

	// DefaultPassThreshold is the per-check score at or above which a check
	// counts as passed for the pass-rate calculation.
	DefaultPassThreshold = 0.6

	// DefaultMaxDateCodeAge is the maximum plausible component age in years.
	// A decoded production year older than this fails the date-code check.
	DefaultMaxDateCodeAge = 30

	// DefaultBatchSize is the number of concurrent analyses when verifying
	// multiple images. OCR backends are CPU-bound, so this stays modest.
	DefaultBatchSize = 4

	// DefaultMaxBodySize limits the response body size read from a
	// datasheet source. 5MB covers search result pages while preventing
	// memory exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultUserAgent identifies markscan in datasheet source requests.
	DefaultUserAgent = "markscan/1.0 (+https://github.com/markscan/markscan)"

	// AppName is the application name used for XDG directory paths.
	AppName = "markscan"

	// MinMarkingLength and MaxMarkingLength bound the plausible length of a
	// complete marking text. Fusion grants a quality bonus inside this band.
	MinMarkingLength = 8
	MaxMarkingLength = 96
)

// weightEpsilon is the tolerance when checking that check weights sum to 1.0.
// Weights come from YAML as float64; exact equality would reject values like
// 0.30+0.20+0.15+0.10+0.15+0.10 that are off by one ulp.
const weightEpsilon = 1e-9

// CheckWeights holds the weight of each of the six fixed verification checks.
// The weights must sum to exactly 1.0; Validate enforces this at startup so
// an invalid weight set is rejected before any analysis runs.
type CheckWeights struct {
	// PartNumber weighs the fuzzy match of extracted vs expected part number.
	PartNumber float64 `yaml:"part_number"`

	// Manufacturer weighs the alias-aware manufacturer match.
	Manufacturer float64 `yaml:"manufacturer"`

	// DateCode weighs date-code format validity and plausible age.
	DateCode float64 `yaml:"date_code"`

	// Country weighs membership in the specification's valid-country set.
	Country float64 `yaml:"country"`

	// PrintQuality weighs the externally supplied image-quality composite.
	PrintQuality float64 `yaml:"print_quality"`

	// MarkingFormat weighs structural conformance of the observed layout.
	MarkingFormat float64 `yaml:"marking_format"`
}

// Sum returns the total of all six weights.
func (w CheckWeights) Sum() float64 {
	return w.PartNumber + w.Manufacturer + w.DateCode + w.Country + w.PrintQuality + w.MarkingFormat
}

// DefaultCheckWeights returns the standard weight distribution.
// Part number identity dominates because it is the strongest single signal
// of a remarked part.
func DefaultCheckWeights() CheckWeights {
	return CheckWeights{
		PartNumber:    0.30,
		Manufacturer:  0.20,
		DateCode:      0.15,
		Country:       0.10,
		PrintQuality:  0.15,
		MarkingFormat: 0.10,
	}
}

// Config holds all configuration options for markscan.
// This struct is populated from defaults, the optional YAML config file,
// and CLI flags, then passed through the application via dependency
// injection rather than global state.
type Config struct {
	// Backends is the ordered OCR backend priority list. The order breaks
	// ties when fusion composite scores are equal, so it must be stable.
	Backends []string

	// Sources is the ordered datasheet source cascade. Resolution stops at
	// the first source that returns a plausible match.
	Sources []string

	// Weights are the six verification check weights. Must sum to 1.0.
	Weights CheckWeights

	// PassThreshold is the per-check score treated as a pass, in (0,1].
	PassThreshold float64

	// CacheTTL is the specification cache time-to-live. An entry older than
	// this is equivalent to absent. Must be positive.
	CacheTTL time.Duration

	// BackendTimeout bounds each OCR backend invocation.
	BackendTimeout time.Duration

	// SourceTimeout bounds each datasheet source query.
	SourceTimeout time.Duration

	// MaxDateCodeAge is the maximum plausible component age in years.
	MaxDateCodeAge int

	// BatchSize is the number of concurrent analyses in batch mode.
	BatchSize int

	// MaxBodySize limits datasheet source response bodies, in bytes.
	MaxBodySize int64

	// UserAgent is sent with datasheet source requests.
	UserAgent string

	// SourceEndpoints maps source class names to base URL overrides.
	// An entry here points a source class at a mirror or a test server
	// instead of its built-in endpoint.
	SourceEndpoints map[string]string

	// OCREndpoint is the URL of the HTTP OCR backend, if configured.
	OCREndpoint string

	// DBDir is the directory for the SQLite database holding the
	// specification cache and the verification history.
	// Defaults to the XDG data directory.
	DBDir string

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// JSONReport enables JSON report output instead of human-readable text.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When empty, the report goes to stdout.
	ReportFile string

	// ConfigFilePath is the explicit path of the YAML config file, if any.
	ConfigFilePath string

	// Tables holds the recognition lookup tables. Never nil after NewConfig.
	Tables *Tables

	// Images are the image paths to analyze.
	Images []string
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use
// cases. Users can override specific values after creation.
func NewConfig() *Config {
	return &Config{
		Backends:       []string{"tesseract", "http"},
		Sources:        []string{"manufacturer", "aggregator", "distributor", "search"},
		Weights:        DefaultCheckWeights(),
		PassThreshold:  DefaultPassThreshold,
		CacheTTL:       DefaultCacheTTL,
		BackendTimeout: DefaultBackendTimeout,
		SourceTimeout:  DefaultSourceTimeout,
		MaxDateCodeAge: DefaultMaxDateCodeAge,
		BatchSize:      DefaultBatchSize,
		MaxBodySize:    DefaultMaxBodySize,
		UserAgent:      DefaultUserAgent,
		DBDir:          XDGDataDir(),
		Tables:         DefaultTables(),
	}
}

// XDGDataDir returns the XDG data directory for markscan.
// On Linux: ~/.local/share/markscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for markscan.
// On Linux: ~/.config/markscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Validation happens once after CLI parsing, before any analysis runs.
// The first error found is returned; fixing one error often makes the
// rest irrelevant.
func (c *Config) Validate() error {
	if len(c.Images) == 0 {
		return ErrNoImage
	}

	if len(c.Backends) == 0 {
		return ErrNoBackends
	}

	if len(c.Sources) == 0 {
		return ErrNoSources
	}

	// The six check weights must sum to exactly 1.0 (within float tolerance).
	if math.Abs(c.Weights.Sum()-1.0) > weightEpsilon {
		return ErrInvalidWeights
	}

	if c.PassThreshold <= 0 || c.PassThreshold > 1 {
		return ErrInvalidPassThreshold
	}

	// A zero or negative TTL would make every cache entry expired on write.
	if c.CacheTTL <= 0 {
		return ErrInvalidCacheTTL
	}

	if c.BackendTimeout <= 0 || c.SourceTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxDateCodeAge <= 0 {
		return ErrInvalidMaxAge
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
