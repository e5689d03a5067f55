package model

import (
	"fmt"
	"time"
)

// Stage identifies a state in the per-analysis state machine.
// The machine is terminal and has no cycles:
//
//	Pending -> Fused -> Parsed -> {SpecResolved | SpecUnavailable} -> Scored -> Classified
//
// Each stage is entered exactly once per analysis. Retries inside the
// resolver's source cascade are internal to the resolver, not transitions
// of this machine.
type Stage int

const (
	// StagePending is the initial state before any work has run.
	StagePending Stage = iota
	// StageFused is entered when fusion has produced the single reading.
	StageFused
	// StageParsed is entered when the marking has been decomposed into fields.
	StageParsed
	// StageSpecResolved is entered when an official specification was found.
	StageSpecResolved
	// StageSpecUnavailable is entered when the resolver exhausted all sources.
	StageSpecUnavailable
	// StageScored is entered when all six checks have been scored.
	StageScored
	// StageClassified is the terminal state.
	StageClassified
)

// String returns a human-readable representation of the stage.
func (s Stage) String() string {
	switch s {
	case StagePending:
		return "pending"
	case StageFused:
		return "fused"
	case StageParsed:
		return "parsed"
	case StageSpecResolved:
		return "spec_resolved"
	case StageSpecUnavailable:
		return "spec_unavailable"
	case StageScored:
		return "scored"
	case StageClassified:
		return "classified"
	default:
		return "unknown"
	}
}

// stageTransitions encodes the legal transitions of the state machine.
var stageTransitions = map[Stage][]Stage{
	StagePending:         {StageFused},
	StageFused:           {StageParsed},
	StageParsed:          {StageSpecResolved, StageSpecUnavailable},
	StageSpecResolved:    {StageScored},
	StageSpecUnavailable: {StageScored},
	StageScored:          {StageClassified},
	StageClassified:      {},
}

// Analysis is the mutable aggregate for one image analysis.
// Pipeline steps accumulate their outputs here in dependency order; the
// VerificationResult at the end is the only part handed back to callers.
//
// Design decision: We use a single aggregate passed through the pipeline
// rather than per-step return values because steps late in the pipeline
// need outputs of several earlier steps (the verifier reads the marking,
// the specification, and the quality vector).
type Analysis struct {
	// ImageRef identifies the analyzed image (path or opaque ID).
	ImageRef string `json:"image_ref"`

	// Quality is the externally supplied image quality vector.
	Quality QualityVector `json:"quality"`

	// StartedAt is when the analysis began.
	StartedAt time.Time `json:"started_at"`

	// Candidates are the per-backend readings, one per configured backend.
	Candidates []OCRCandidate `json:"candidates,omitempty"`

	// Fused is the single trusted reading. Nil until StageFused.
	Fused *FusedResult `json:"fused,omitempty"`

	// NoTextDetected is set when every backend returned an empty candidate.
	// Downstream stages still run with all-absent fields.
	NoTextDetected bool `json:"no_text_detected,omitempty"`

	// Marking is the structured marking. Nil until StageParsed.
	Marking *StructuredMarking `json:"marking,omitempty"`

	// Spec is the resolved official specification. Nil when unavailable.
	Spec *OfficialSpecification `json:"spec,omitempty"`

	// SpecUnavailable is set when the resolver exhausted every source or a
	// cached not-found sentinel short-circuited resolution.
	SpecUnavailable bool `json:"spec_unavailable,omitempty"`

	// Result is the terminal verification result. Nil until StageScored.
	Result *VerificationResult `json:"result,omitempty"`

	// PerformedStages records stage names in execution order, for diagnostics.
	PerformedStages []string `json:"performed_stages,omitempty"`

	// stage is the current state machine position.
	stage Stage

	// Cancelled is set when the analysis was cancelled between stages.
	// A cancelled analysis performs no cache writes.
	Cancelled bool `json:"cancelled,omitempty"`
}

// NewAnalysis creates a fresh analysis in StagePending.
func NewAnalysis(imageRef string, quality QualityVector) *Analysis {
	return &Analysis{
		ImageRef:  imageRef,
		Quality:   quality,
		StartedAt: time.Now(),
		stage:     StagePending,
	}
}

// Stage returns the current stage.
func (a *Analysis) Stage() Stage {
	return a.stage
}

// Advance moves the analysis to the next stage.
// It returns an error for any transition the state machine does not allow,
// which guards the "each stage entered exactly once" invariant.
func (a *Analysis) Advance(next Stage) error {
	for _, allowed := range stageTransitions[a.stage] {
		if allowed == next {
			a.stage = next
			a.PerformedStages = append(a.PerformedStages, next.String())
			return nil
		}
	}
	return fmt.Errorf("illegal stage transition %s -> %s", a.stage, next)
}

// Terminal reports whether the analysis reached its final stage.
func (a *Analysis) Terminal() bool {
	return a.stage == StageClassified
}
