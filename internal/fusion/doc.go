// Package fusion merges per-backend OCR candidates into one trusted reading.
//
// # Design Philosophy
//
// Backend self-reported confidence is unreliable across engines: a backend
// that confidently misreads background text would dominate a naive
// confidence-weighted merge. Fusion therefore computes its own quality score
// from observable text properties (length, character mix, marking shapes,
// punctuation density, known garbage tokens) and blends it with backend
// confidence at a fixed 70/30 ratio.
//
// Fusion is a pure function of its inputs and the configured backend
// priority order. There is no hidden randomness, so identical inputs always
// select the same candidate, which keeps analyses reproducible and tests
// deterministic.
package fusion
