package ocr

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/markscan/markscan/internal/model"
)

// Backend is the uniform OCR capability interface.
// One adapter exists per underlying engine; implementations must respect
// context cancellation and deadlines.
type Backend interface {
	// Detect recognizes text on the pre-enhanced image and returns one
	// candidate reading. A backend that finds no text returns an empty
	// candidate and no error.
	Detect(ctx context.Context, image []byte) (model.OCRCandidate, error)

	// Name returns the backend's name as used in the priority order.
	Name() string
}

// Runner invokes all configured backends concurrently.
type Runner struct {
	// backends in configured priority order. The output candidate slice
	// preserves this order so fusion tie-breaking stays deterministic.
	backends []Backend

	// timeout bounds each backend invocation.
	timeout time.Duration

	// logger for structured logging.
	logger *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithTimeout sets the per-backend timeout.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets a custom logger for the runner.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner over the given backends.
func NewRunner(backends []Backend, opts ...RunnerOption) *Runner {
	r := &Runner{
		backends: backends,
		timeout:  20 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// DetectAll runs every backend concurrently and returns exactly one
// candidate per backend, in configured order. Individual backend failures
// and timeouts are recovered locally: the failed backend's slot holds an
// empty candidate with zero confidence.
func (r *Runner) DetectAll(ctx context.Context, image []byte) []model.OCRCandidate {
	candidates := make([]model.OCRCandidate, len(r.backends))

	g, gctx := errgroup.WithContext(ctx)
	for i, backend := range r.backends {
		g.Go(func() error {
			bctx, cancel := context.WithTimeout(gctx, r.timeout)
			defer cancel()

			start := time.Now()
			candidate, err := backend.Detect(bctx, image)
			if err != nil {
				r.logger.Debug("backend failed",
					"backend", backend.Name(),
					"elapsed", time.Since(start),
					"error", err,
				)
				candidates[i] = model.OCRCandidate{Backend: backend.Name()}
				return nil // per-backend failure never fails the analysis
			}
			candidate.Backend = backend.Name()
			candidates[i] = candidate
			return nil
		})
	}

	// Errors are swallowed per backend; Wait only synchronizes.
	_ = g.Wait()
	return candidates
}
