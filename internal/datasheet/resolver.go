package datasheet

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/markscan/markscan/internal/config"
	"github.com/markscan/markscan/internal/database"
	"github.com/markscan/markscan/internal/model"
	"github.com/markscan/markscan/internal/similarity"
)

// plausibleMatchThreshold is the minimum similarity between the
// requested part number and the one a source's document describes.
// Below this the document is rejected and the cascade continues, so a
// search fallback returning an unrelated datasheet never poisons the
// cache.
const plausibleMatchThreshold = 0.85

// Resolver resolves authoritative marking specifications, consulting
// the cache before running the source cascade.
//
// Design decision: the cache is an explicit, passed-in store handle
// rather than package-level state. The get-or-fetch sequence is guarded
// per key with singleflight so that at most one network cascade is in
// flight per part number; concurrent analyses of the same part await
// that single cascade's result.
type Resolver struct {
	// store is the SQLite-backed specification cache.
	store *database.Store

	// sources is the ordered cascade. Resolution stops at the first
	// source returning a plausible match.
	sources []Source

	// ttl is the cache freshness window.
	ttl time.Duration

	// sourceTimeout bounds each individual source query.
	sourceTimeout time.Duration

	// logger records cascade progress.
	logger *slog.Logger

	// group deduplicates concurrent cascades per normalized key.
	group singleflight.Group
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithSourceTimeout sets the per-source query timeout.
func WithSourceTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.sourceTimeout = d
	}
}

// WithLogger sets the structured logger used for cascade progress.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a resolver over the given cache store and source
// cascade. The ttl controls how long cached entries (positive and
// negative) satisfy lookups without network access.
func NewResolver(store *database.Store, sources []Source, ttl time.Duration, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:         store,
		sources:       sources,
		ttl:           ttl,
		sourceTimeout: 15 * time.Second,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// NewSources builds the configured source cascade. Endpoint overrides
// from the configuration replace the built-in URL for a class; unknown
// class names are skipped so a typo degrades the cascade instead of
// breaking startup.
func NewSources(cfg *config.Config, client *http.Client, logger *slog.Logger) []Source {
	sources := make([]Source, 0, len(cfg.Sources))
	for _, name := range cfg.Sources {
		endpoint := defaultEndpoints[name]
		if override, ok := cfg.SourceEndpoints[name]; ok {
			endpoint = override
		}
		if endpoint == "" {
			logger.Warn("skipping unknown datasheet source class", "source", name)
			continue
		}
		sources = append(sources, NewHTTPSource(name, endpoint, client,
			WithUserAgent(cfg.UserAgent),
			WithMaxBodySize(cfg.MaxBodySize),
		))
	}
	return sources
}

// Resolve returns the specification for a part number. A fresh cache
// entry is returned without network access; otherwise the source
// cascade runs and its outcome (positive or negative) is cached.
// Exhausting every source returns ErrSpecUnavailable.
//
// The manufacturer hint is optional; when present it breaks ties among
// fuzzy search-result matches in favor of documents from that vendor.
//
// A cancelled caller only abandons its own wait. The shared cascade
// runs detached from any single caller, so concurrent resolutions of
// the same part are unaffected and the flight's outcome still reaches
// the cache.
func (r *Resolver) Resolve(ctx context.Context, partNumber, manufacturer string) (*model.OfficialSpecification, error) {
	key := normalize(partNumber)
	if key == "" {
		return nil, ErrSpecUnavailable
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(key, func() (interface{}, error) {
		return r.resolve(flightCtx, key, manufacturer)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.OfficialSpecification), nil
	}
}

// resolve is the single-flight body: cache lookup, cascade, cache write.
func (r *Resolver) resolve(ctx context.Context, key, manufacturer string) (*model.OfficialSpecification, error) {
	entry, err := r.store.LookupSpec(ctx, key, r.ttl)
	if err != nil {
		// A failing cache read degrades to a miss; the cascade can
		// still produce an answer.
		r.logger.Warn("spec cache lookup failed", "part", key, "error", err)
	}
	if entry != nil {
		if entry.NotFound {
			r.logger.Debug("negative cache hit", "part", key)
			return nil, ErrSpecUnavailable
		}
		r.logger.Debug("cache hit", "part", key, "source", entry.Source)
		return entry.Spec, nil
	}

	for _, src := range r.sources {
		spec, err := r.query(ctx, src, key)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				r.logger.Debug("source has no document", "source", src.Name(), "part", key)
			} else {
				r.logger.Warn("source query failed", "source", src.Name(), "part", key, "error", err)
			}
			continue
		}

		if !plausibleMatch(key, manufacturer, spec) {
			r.logger.Debug("rejecting implausible match",
				"source", src.Name(), "part", key, "document_part", spec.PartNumber)
			continue
		}

		spec.PartNumber = key
		if err := r.store.UpsertSpec(ctx, &database.SpecEntry{
			PartNumber: key,
			Spec:       spec,
			Source:     src.Name(),
		}); err != nil {
			r.logger.Warn("failed to cache specification", "part", key, "error", err)
		}
		r.logger.Info("specification resolved", "part", key, "source", src.Name())
		return spec, nil
	}

	if err := r.store.UpsertSpec(ctx, &database.SpecEntry{PartNumber: key, NotFound: true}); err != nil {
		r.logger.Warn("failed to cache negative entry", "part", key, "error", err)
	}
	r.logger.Info("specification unavailable", "part", key, "sources_tried", len(r.sources))
	return nil, ErrSpecUnavailable
}

// query runs one bounded source lookup.
func (r *Resolver) query(ctx context.Context, src Source, key string) (*model.OfficialSpecification, error) {
	sctx, cancel := context.WithTimeout(ctx, r.sourceTimeout)
	defer cancel()
	return src.Lookup(sctx, key)
}

// plausibleMatch reports whether a document plausibly describes the
// requested part. Containment covers datasheets that list a family
// root (e.g. "CY8C29666" for "CY8C29666-24PVXI"); similarity covers
// minor revision-suffix differences. A similarity-only match can also
// be a sibling part from another vendor, so when the marking supplied
// a manufacturer the document's manufacturer must agree.
func plausibleMatch(requested, manufacturer string, spec *model.OfficialSpecification) bool {
	doc := normalize(spec.PartNumber)
	if doc == "" {
		return false
	}
	if doc == requested {
		return true
	}
	if strings.Contains(requested, doc) || strings.Contains(doc, requested) {
		return true
	}
	if similarity.Score(requested, doc) < plausibleMatchThreshold {
		return false
	}
	if manufacturer == "" || spec.Manufacturer == "" {
		return true
	}
	return manufacturerAgrees(manufacturer, spec.Manufacturer)
}

// manufacturerAgrees compares vendor names loosely; "CYPRESS" on a
// marking should accept a document filed under "Cypress Semiconductor".
func manufacturerAgrees(marking, document string) bool {
	m, d := normalize(marking), normalize(document)
	return m == d || strings.Contains(m, d) || strings.Contains(d, m)
}

// normalize canonicalizes a part number for cache keys and comparisons.
func normalize(partNumber string) string {
	return strings.ToUpper(strings.TrimSpace(partNumber))
}
