package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/markscan/markscan/internal/database"
	"github.com/markscan/markscan/internal/datasheet"
	"github.com/markscan/markscan/internal/fusion"
	"github.com/markscan/markscan/internal/model"
	"github.com/markscan/markscan/internal/ocr"
	"github.com/markscan/markscan/internal/parser"
	"github.com/markscan/markscan/internal/verify"
)

// OCRStep reads the image and runs every configured backend against it.
// Each backend contributes exactly one candidate; failed or timed-out
// backends contribute an empty one so fusion always sees the full set.
type OCRStep struct {
	// runner invokes the configured backends concurrently.
	runner *ocr.Runner

	// logger for structured logging.
	logger *slog.Logger
}

// OCRStepOption configures an OCRStep.
type OCRStepOption func(*OCRStep)

// WithOCRLogger sets a custom logger for the OCR step.
func WithOCRLogger(logger *slog.Logger) OCRStepOption {
	return func(s *OCRStep) {
		s.logger = logger
	}
}

// NewOCRStep creates the backend invocation step.
func NewOCRStep(runner *ocr.Runner, opts ...OCRStepOption) *OCRStep {
	s := &OCRStep{
		runner: runner,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *OCRStep) Name() string {
	return "ocr"
}

// Do reads the image file and collects one candidate per backend.
// An unreadable image is a critical failure: nothing downstream can run
// without pixels.
func (s *OCRStep) Do(ctx context.Context, analysis *model.Analysis) error {
	image, err := os.ReadFile(analysis.ImageRef)
	if err != nil {
		return fmt.Errorf("failed to read image %s: %w", analysis.ImageRef, err)
	}

	analysis.Candidates = s.runner.DetectAll(ctx, image)
	s.logger.Debug("backends finished",
		"image", analysis.ImageRef,
		"candidates", len(analysis.Candidates),
	)
	return nil
}

// FuseStep merges the per-backend candidates into the single trusted
// reading and advances the analysis to StageFused.
type FuseStep struct {
	fuser *fusion.Fuser
}

// NewFuseStep creates the fusion step.
func NewFuseStep(fuser *fusion.Fuser) *FuseStep {
	return &FuseStep{fuser: fuser}
}

// Name returns the step name.
func (s *FuseStep) Name() string {
	return "fuse"
}

// Do selects the best candidate. All-empty candidates set NoTextDetected
// and the analysis continues with an empty reading; downstream fields
// stay absent and the confidence comes out naturally low.
func (s *FuseStep) Do(_ context.Context, analysis *model.Analysis) error {
	fused, noText := s.fuser.Fuse(analysis.Candidates)
	analysis.Fused = fused
	analysis.NoTextDetected = noText
	return analysis.Advance(model.StageFused)
}

// ParseStep decomposes the fused reading into structured marking fields
// and advances the analysis to StageParsed.
type ParseStep struct {
	parser *parser.Parser
}

// NewParseStep creates the parsing step.
func NewParseStep(p *parser.Parser) *ParseStep {
	return &ParseStep{parser: p}
}

// Name returns the step name.
func (s *ParseStep) Name() string {
	return "parse"
}

// Do extracts the marking fields from the fused reading.
func (s *ParseStep) Do(_ context.Context, analysis *model.Analysis) error {
	analysis.Marking = s.parser.Parse(analysis.Fused)
	return analysis.Advance(model.StageParsed)
}

// ResolveStep looks up the official specification for the extracted
// part number and advances to StageSpecResolved or StageSpecUnavailable.
type ResolveStep struct {
	resolver *datasheet.Resolver

	logger *slog.Logger
}

// ResolveStepOption configures a ResolveStep.
type ResolveStepOption func(*ResolveStep)

// WithResolveLogger sets a custom logger for the resolve step.
func WithResolveLogger(logger *slog.Logger) ResolveStepOption {
	return func(s *ResolveStep) {
		s.logger = logger
	}
}

// NewResolveStep creates the specification resolution step.
func NewResolveStep(resolver *datasheet.Resolver, opts ...ResolveStepOption) *ResolveStep {
	s := &ResolveStep{
		resolver: resolver,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ResolveStep) Name() string {
	return "resolve"
}

// Do resolves the specification. An unavailable specification is a
// recoverable condition recorded on the analysis, never a step failure;
// only cancellation aborts.
func (s *ResolveStep) Do(ctx context.Context, analysis *model.Analysis) error {
	if analysis.Marking == nil || !analysis.Marking.PartNumber.Present() {
		s.logger.Debug("no part number extracted, skipping resolution",
			"image", analysis.ImageRef)
		analysis.SpecUnavailable = true
		return analysis.Advance(model.StageSpecUnavailable)
	}

	var manufacturer string
	if analysis.Marking.Manufacturer.Present() {
		manufacturer = analysis.Marking.Manufacturer.Value
	}

	spec, err := s.resolver.Resolve(ctx, analysis.Marking.PartNumber.Value, manufacturer)
	switch {
	case err == nil:
		analysis.Spec = spec
		return analysis.Advance(model.StageSpecResolved)
	case errors.Is(err, datasheet.ErrSpecUnavailable):
		analysis.SpecUnavailable = true
		return analysis.Advance(model.StageSpecUnavailable)
	default:
		// Only context errors remain; the cascade swallows everything else.
		return err
	}
}

// VerifyStep scores the marking against the specification and produces
// the terminal VerificationResult, advancing through StageScored to
// StageClassified.
type VerifyStep struct {
	engine *verify.Engine
}

// NewVerifyStep creates the scoring step.
func NewVerifyStep(engine *verify.Engine) *VerifyStep {
	return &VerifyStep{engine: engine}
}

// Name returns the step name.
func (s *VerifyStep) Name() string {
	return "verify"
}

// Do runs the six checks and classifies the component.
func (s *VerifyStep) Do(_ context.Context, analysis *model.Analysis) error {
	analysis.Result = s.engine.Verify(
		analysis.Marking,
		analysis.Spec,
		analysis.Quality,
		analysis.NoTextDetected,
	)
	if err := analysis.Advance(model.StageScored); err != nil {
		return err
	}
	return analysis.Advance(model.StageClassified)
}

// RecordStep persists the verification result to the history database.
//
// Design decision: recording is best-effort and asynchronous. The
// result has already been produced and belongs to the caller, so the
// write happens in a background goroutine and a failure is logged but
// never fails the analysis. Wait flushes outstanding writes before the
// store is closed.
type RecordStep struct {
	store *database.Store

	logger *slog.Logger

	wg sync.WaitGroup
}

// RecordStepOption configures a RecordStep.
type RecordStepOption func(*RecordStep)

// WithRecordLogger sets a custom logger for the record step.
func WithRecordLogger(logger *slog.Logger) RecordStepOption {
	return func(s *RecordStep) {
		s.logger = logger
	}
}

// NewRecordStep creates the history recording step.
func NewRecordStep(store *database.Store, opts ...RecordStepOption) *RecordStep {
	s := &RecordStep{
		store:  store,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *RecordStep) Name() string {
	return "record"
}

// Do starts the history write and returns without waiting on it.
// Cancelled analyses write nothing. The write runs under a context
// detached from the analysis so a caller moving on cannot lose a
// record that was already earned.
func (s *RecordStep) Do(ctx context.Context, analysis *model.Analysis) error {
	if analysis.Result == nil || analysis.Cancelled {
		return nil
	}

	wctx := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.store.SaveVerification(wctx, analysis.ImageRef, analysis.Result); err != nil {
			s.logger.Warn("failed to record verification",
				"image", analysis.ImageRef,
				"error", err,
			)
		}
	}()
	return nil
}

// Wait blocks until every write started so far has finished.
func (s *RecordStep) Wait() {
	s.wg.Wait()
}
