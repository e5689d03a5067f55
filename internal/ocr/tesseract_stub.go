//go:build !tesseract

package ocr

import (
	"context"
	"errors"

	"github.com/markscan/markscan/internal/model"
)

// TesseractBackend is the stub compiled without the tesseract build tag.
// It always reports the backend as unavailable; the runner turns that into
// an empty candidate so analyses still run on the remaining backends.
type TesseractBackend struct{}

// NewTesseractBackend creates the stub adapter.
func NewTesseractBackend(_ ...string) *TesseractBackend {
	return &TesseractBackend{}
}

// Name returns the backend name used in the priority order.
func (b *TesseractBackend) Name() string {
	return "tesseract"
}

// Detect reports that the build lacks Tesseract support.
func (b *TesseractBackend) Detect(_ context.Context, _ []byte) (model.OCRCandidate, error) {
	return model.OCRCandidate{}, errors.New("tesseract build tag is not enabled")
}
