package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoImage is returned when no image path is given to analyze.
	ErrNoImage = errors.New("no image specified: provide an image path or use --list")

	// ErrNoBackends is returned when the OCR backend priority list is empty.
	// Fusion needs at least one backend to produce a candidate.
	ErrNoBackends = errors.New("no OCR backends configured: the backend priority list must not be empty")

	// ErrNoSources is returned when the datasheet source cascade is empty.
	ErrNoSources = errors.New("no datasheet sources configured: the source list must not be empty")

	// ErrInvalidWeights is returned when the six check weights do not sum
	// to 1.0. This is fatal at startup: analyses must never run with a
	// skewed weight distribution.
	ErrInvalidWeights = errors.New("invalid check weights: the six weights must sum to 1.0")

	// ErrInvalidPassThreshold is returned when the per-check pass threshold
	// is outside (0,1].
	ErrInvalidPassThreshold = errors.New("invalid pass threshold: must be in (0,1]")

	// ErrInvalidCacheTTL is returned when the cache TTL is zero or negative.
	// Such a TTL would expire every entry on write.
	ErrInvalidCacheTTL = errors.New("invalid cache TTL: must be positive")

	// ErrInvalidTimeout is returned when a per-call timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxAge is returned when the maximum date-code age is not
	// positive.
	ErrInvalidMaxAge = errors.New("invalid max date-code age: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
