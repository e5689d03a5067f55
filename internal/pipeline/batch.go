package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/markscan/markscan/internal/model"
)

// BatchProcessor handles concurrent analysis of multiple images.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding
// batch functionality to Pipeline because:
// 1. It keeps the Pipeline focused on single-analysis execution
// 2. It allows different batch strategies (e.g., rate limiting, retries)
// 3. It provides cleaner separation of concerns
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each analysis.
	// A factory ensures each analysis gets a fresh pipeline instance.
	pipelineFactory func() *Pipeline

	// quality supplies the externally provided quality vector per image.
	quality func(imageRef string) model.QualityVector

	// concurrency is the maximum number of concurrent analyses.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent analyses.
// Default is 4 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithQualityProvider sets the per-image quality vector source.
// Without one, every analysis gets a zero vector.
func WithQualityProvider(quality func(imageRef string) model.QualityVector) BatchOption {
	return func(b *BatchProcessor) {
		b.quality = quality
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called for each analysis to create a
// fresh pipeline instance. This ensures that pipeline state doesn't leak
// between analyses and allows for per-analysis customization if needed.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		quality:         func(string) model.QualityVector { return model.QualityVector{} },
		concurrency:     4,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch analyzes multiple images concurrently and returns all
// analyses collected, in input order, even for images that failed. The
// error return indicates whether the batch was cancelled.
//
// It is a convenience wrapper over ProcessBatchWithCallback that
// collects the streamed analyses and logs each outcome.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, images []string) ([]*model.Analysis, error) {
	results := make([]*model.Analysis, len(images))
	var mu sync.Mutex

	err := bp.ProcessBatchWithCallback(ctx, images, func(analysis *model.Analysis, index int) {
		mu.Lock()
		results[index] = analysis
		mu.Unlock()

		if analysis.Result != nil {
			bp.logger.Info("analysis completed",
				"image", analysis.ImageRef,
				"classification", analysis.Result.ClassificationText,
				"confidence", analysis.Result.Confidence,
			)
		}
	})
	return results, err
}

// ProcessBatchWithCallback analyzes multiple images and calls the
// callback for each completed analysis, in completion order. A failed
// analysis is still delivered; it documents how far it got.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each image gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously.
//
// The callback receives the analysis and the index of the image in the
// original slice. The callback is called from the goroutine that
// completed the analysis, so it should be thread-safe if it accesses
// shared state.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	images []string,
	callback func(analysis *model.Analysis, index int),
) error {
	bp.logger.Info("starting batch analysis",
		"total_images", len(images),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, image := range images {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("analyzing image",
				"image", image,
				"index", i+1,
				"total", len(images),
			)

			analysis := model.NewAnalysis(image, bp.quality(image))

			p := bp.pipelineFactory()
			if err := p.Execute(ctx, analysis); err != nil {
				bp.logger.Warn("analysis failed",
					"image", image,
					"error", err,
				)
				// Other images still get their turn; only cancellation
				// propagates through the errgroup context.
			}

			callback(analysis, i)

			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch analysis complete",
		"total_images", len(images),
		"elapsed", time.Since(startTime),
	)

	return err
}
