// Package parser extracts structured fields from a fused OCR reading.
//
// # Architecture
//
// Parsing runs in three steps:
//
//  1. Line segmentation: positioned tokens are clustered into lines by
//     vertical position, with a tolerance proportional to the estimated
//     character height. Readings without geometry fall back to newline
//     segmentation.
//  2. Field extraction: each field (part number, manufacturer, date code,
//     country, lot code) is attempted independently against an ordered
//     list of pattern alternatives; the first structural match wins.
//  3. Contextual correction: a fixed confusion table (O/0, l/I/1, S/5, Z/2)
//     is applied only to character positions expected to be numeric.
//     Tokens matching the alphabetic package-code whitelist are never
//     altered, so a grade suffix like "XI" survives correction intact.
//
// No field is ever invented: absence is a first-class state carried in the
// field's origin flag, not an error.
package parser
