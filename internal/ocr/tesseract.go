//go:build tesseract

package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/markscan/markscan/internal/model"
)

// TesseractBackend recognizes marking text with a local Tesseract engine
// via gosseract. It reports word-level bounding boxes so the parser can
// cluster tokens into lines by position.
type TesseractBackend struct {
	// languages passed to Tesseract, e.g. "eng".
	languages []string
}

// NewTesseractBackend creates the Tesseract-backed OCR adapter.
func NewTesseractBackend(languages ...string) *TesseractBackend {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &TesseractBackend{languages: languages}
}

// Name returns the backend name used in the priority order.
func (b *TesseractBackend) Name() string {
	return "tesseract"
}

// Detect runs Tesseract on the image.
// A fresh client per call keeps the adapter safe for concurrent use;
// gosseract clients are not goroutine-safe.
func (b *TesseractBackend) Detect(ctx context.Context, image []byte) (model.OCRCandidate, error) {
	if err := ctx.Err(); err != nil {
		return model.OCRCandidate{}, err
	}

	client := gosseract.NewClient()
	defer func() { _ = client.Close() }()

	if err := client.SetLanguage(b.languages...); err != nil {
		return model.OCRCandidate{}, fmt.Errorf("set language: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return model.OCRCandidate{}, fmt.Errorf("set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return model.OCRCandidate{}, fmt.Errorf("bounding boxes: %w", err)
	}

	var (
		tokens   []model.Token
		words    []string
		confSum  float64
		confSeen int
	)
	for _, box := range boxes {
		word := strings.TrimSpace(box.Word)
		if word == "" {
			continue
		}
		tokens = append(tokens, model.Token{
			Text:   word,
			X:      float64(box.Box.Min.X),
			Y:      float64(box.Box.Min.Y),
			Height: float64(box.Box.Dy()),
		})
		words = append(words, word)
		confSum += box.Confidence
		confSeen++
	}

	if len(words) == 0 {
		return model.OCRCandidate{}, nil
	}

	// Tesseract confidences are 0-100; candidates carry [0,1].
	confidence := 0.0
	if confSeen > 0 {
		confidence = confSum / float64(confSeen) / 100
	}

	return model.OCRCandidate{
		Text:       strings.Join(words, " "),
		Confidence: confidence,
		Tokens:     tokens,
	}, nil
}
