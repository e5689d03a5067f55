// Package datasheet resolves authoritative marking specifications for
// part numbers.
//
// Resolution is a three-layer cascade:
//  1. The SQLite-backed cache, consulted first; fresh entries (positive
//     or negative) short-circuit resolution without network access.
//  2. An ordered list of datasheet sources (manufacturer sites, datasheet
//     aggregators, distributors, and a generic search fallback), queried
//     sequentially with a bounded per-source timeout. The first source
//     that returns a document plausibly matching the requested part
//     number wins.
//  3. Document parsing, which extracts the expected marking layout,
//     date-code format, valid production countries, and package naming
//     from the matched document.
//
// Design decision: sources implement a single small interface and are
// iterated generically rather than branched on by site. Adding support
// for another datasheet site means adding an adapter, not new fallback
// logic. Source failures are never fatal: a timeout or transport error
// advances the cascade, and only exhausting every source surfaces as
// ErrSpecUnavailable.
package datasheet
