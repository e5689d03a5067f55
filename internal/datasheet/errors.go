package datasheet

import "errors"

// Sentinel errors for datasheet resolution.
var (
	// ErrNotFound is returned by a source that answered authoritatively
	// but holds no document for the requested part number. It advances
	// the cascade like a transport failure, but is logged differently.
	ErrNotFound = errors.New("part number not documented by this source")

	// ErrSpecUnavailable is returned by the resolver when every source
	// was exhausted without a plausible match, or when a fresh negative
	// cache entry short-circuits resolution. It is the only failure the
	// resolver surfaces; callers translate it into neutral scoring, never
	// into an aborted analysis.
	ErrSpecUnavailable = errors.New("specification unavailable: all sources exhausted")
)
