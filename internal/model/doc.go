// Package model defines the core data structures for markscan.
// It contains OCR candidates, structured markings, official specifications,
// verification results, and the per-analysis state machine.
package model
