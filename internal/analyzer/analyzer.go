package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/markscan/markscan/internal/config"
	"github.com/markscan/markscan/internal/database"
	"github.com/markscan/markscan/internal/datasheet"
	"github.com/markscan/markscan/internal/fusion"
	"github.com/markscan/markscan/internal/model"
	"github.com/markscan/markscan/internal/ocr"
	"github.com/markscan/markscan/internal/parser"
	"github.com/markscan/markscan/internal/pipeline"
	"github.com/markscan/markscan/internal/verify"
)

// ErrNoUsableBackend is returned when the configured backend list yields no
// constructible OCR backend (e.g. only "http" configured without an endpoint).
var ErrNoUsableBackend = errors.New("no usable OCR backend configured")

// Analyzer runs the complete analysis pipeline for one image at a time.
// It is safe for concurrent use: every Analyze call builds a fresh
// pipeline over the shared, read-only components.
type Analyzer struct {
	cfg      *config.Config
	store    *database.Store
	runner   *ocr.Runner
	fuser    *fusion.Fuser
	parser   *parser.Parser
	resolver *datasheet.Resolver
	engine   *verify.Engine
	recorder *pipeline.RecordStep
	logger   *slog.Logger
}

// Option configures an Analyzer.
type Option func(*options)

type options struct {
	logger *slog.Logger
	clock  func() time.Time
}

// WithLogger sets the logger for the analyzer and every component it builds.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock overrides the verification engine's clock. Used in tests to pin
// date-code age computation.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}

// New assembles an Analyzer from the configuration.
// The store holds the specification cache and the verification history;
// the client is used for every datasheet source and the HTTP OCR backend.
// The configuration must already be validated.
func New(cfg *config.Config, store *database.Store, client *http.Client, opts ...Option) (*Analyzer, error) {
	o := &options{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	backends, err := buildBackends(cfg, client, o.logger)
	if err != nil {
		return nil, err
	}

	sources := datasheet.NewSources(cfg, client, o.logger)
	resolver := datasheet.NewResolver(store, sources, cfg.CacheTTL,
		datasheet.WithSourceTimeout(cfg.SourceTimeout),
		datasheet.WithLogger(o.logger),
	)

	engineOpts := []verify.Option{verify.WithLogger(o.logger)}
	if o.clock != nil {
		engineOpts = append(engineOpts, verify.WithClock(o.clock))
	}

	return &Analyzer{
		cfg: cfg,
		store: store,
		runner: ocr.NewRunner(backends,
			ocr.WithTimeout(cfg.BackendTimeout),
			ocr.WithLogger(o.logger),
		),
		fuser:    fusion.New(cfg.Backends, cfg.Tables),
		parser:   parser.New(cfg.Tables),
		resolver: resolver,
		engine:   verify.New(cfg, engineOpts...),
		recorder: pipeline.NewRecordStep(store, pipeline.WithRecordLogger(o.logger)),
		logger:   o.logger,
	}, nil
}

// buildBackends constructs the OCR backends named in the configuration,
// preserving order. Unknown names are skipped with a warning; the "http"
// backend is skipped when no endpoint is configured.
func buildBackends(cfg *config.Config, client *http.Client, logger *slog.Logger) ([]ocr.Backend, error) {
	backends := make([]ocr.Backend, 0, len(cfg.Backends))
	for _, name := range cfg.Backends {
		switch name {
		case "tesseract":
			backends = append(backends, ocr.NewTesseractBackend())
		case "http":
			if cfg.OCREndpoint == "" {
				logger.Warn("http OCR backend configured without an endpoint, skipping")
				continue
			}
			backends = append(backends, ocr.NewHTTPBackend(cfg.OCREndpoint,
				ocr.WithHTTPClient(client),
			))
		default:
			logger.Warn("skipping unknown OCR backend", "backend", name)
		}
	}
	if len(backends) == 0 {
		return nil, ErrNoUsableBackend
	}
	return backends, nil
}

// NewPipeline builds a fresh six-step pipeline over the shared components.
// Each analysis gets its own pipeline instance so that batch processing can
// run several concurrently. The record step is shared so Flush can await
// every history write the analyzer ever started.
func (a *Analyzer) NewPipeline() *pipeline.Pipeline {
	p := pipeline.New(pipeline.WithLogger(a.logger))
	p.AddSteps(
		pipeline.NewOCRStep(a.runner, pipeline.WithOCRLogger(a.logger)),
		pipeline.NewFuseStep(a.fuser),
		pipeline.NewParseStep(a.parser),
		pipeline.NewResolveStep(a.resolver, pipeline.WithResolveLogger(a.logger)),
		pipeline.NewVerifyStep(a.engine),
		a.recorder,
	)
	return p
}

// Flush waits for outstanding background history writes. Call it before
// closing the store.
func (a *Analyzer) Flush() {
	a.recorder.Wait()
}

// Analyze runs the full pipeline on one image and returns the verification
// result. The quality vector is supplied by the caller; marking analysis
// consumes image quality, it does not measure it.
func (a *Analyzer) Analyze(ctx context.Context, imageRef string, quality model.QualityVector) (*model.VerificationResult, error) {
	analysis := model.NewAnalysis(imageRef, quality)
	if err := a.NewPipeline().Execute(ctx, analysis); err != nil {
		return nil, fmt.Errorf("analysis of %s failed: %w", imageRef, err)
	}
	return analysis.Result, nil
}

// AnalyzeBatch runs the pipeline concurrently over several images and
// returns one analysis per image in input order. Individual failures leave
// a partial analysis in place rather than aborting the batch.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, images []string, quality func(imageRef string) model.QualityVector) ([]*model.Analysis, error) {
	bp := pipeline.NewBatchProcessor(a.NewPipeline,
		pipeline.WithConcurrency(a.cfg.BatchSize),
		pipeline.WithBatchLogger(a.logger),
		pipeline.WithQualityProvider(quality),
	)
	return bp.ProcessBatch(ctx, images)
}
