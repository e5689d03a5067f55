// Package pipeline orchestrates the stages of one marking analysis.
//
// A pipeline is an ordered list of steps executed against a mutable
// Analysis aggregate: OCR detection, candidate fusion, marking parsing,
// specification resolution, verification scoring, and history recording.
// Steps advance the analysis state machine (Pending through Classified)
// and each stage is entered exactly once per analysis.
//
// Cancellation is cooperative between steps: the pipeline checks the
// context before each step, and a cancelled analysis discards partial
// results without touching the specification cache or the history.
//
// BatchProcessor runs many analyses concurrently with a bounded limit,
// one fresh pipeline per image.
package pipeline
