package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/markscan/markscan/internal/model"
)

// maxResponseSize limits an OCR service response body. Recognition output
// for a marking is tiny; anything larger indicates a misbehaving service.
const maxResponseSize = 1 << 20

// HTTPBackend recognizes text through a remote OCR service speaking a
// minimal JSON protocol: the image is POSTed as the request body and the
// service answers with the recognized text, its confidence, and optional
// word geometry.
type HTTPBackend struct {
	// name distinguishes multiple HTTP backends in the priority order.
	name string

	// endpoint is the service URL.
	endpoint string

	// client is the HTTP client used for requests. Callers inject a client
	// with their preferred timeout and transport settings.
	client *http.Client
}

// HTTPBackendOption configures an HTTPBackend.
type HTTPBackendOption func(*HTTPBackend)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) HTTPBackendOption {
	return func(b *HTTPBackend) {
		b.client = client
	}
}

// WithName overrides the backend name. Default is "http".
func WithName(name string) HTTPBackendOption {
	return func(b *HTTPBackend) {
		b.name = name
	}
}

// NewHTTPBackend creates an adapter for a remote OCR service.
func NewHTTPBackend(endpoint string, opts ...HTTPBackendOption) *HTTPBackend {
	b := &HTTPBackend{
		name:     "http",
		endpoint: endpoint,
		client:   http.DefaultClient,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the backend name used in the priority order.
func (b *HTTPBackend) Name() string {
	return b.name
}

// httpResponse is the service's JSON answer.
type httpResponse struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Words      []struct {
		Text   string  `json:"text"`
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Height float64 `json:"height"`
	} `json:"words,omitempty"`
}

// Detect posts the image to the service and decodes the reading.
func (b *HTTPBackend) Detect(ctx context.Context, image []byte) (model.OCRCandidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(image))
	if err != nil {
		return model.OCRCandidate{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := b.client.Do(req)
	if err != nil {
		return model.OCRCandidate{}, fmt.Errorf("ocr service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return model.OCRCandidate{}, fmt.Errorf("ocr service: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return model.OCRCandidate{}, fmt.Errorf("read response: %w", err)
	}

	var decoded httpResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return model.OCRCandidate{}, fmt.Errorf("decode response: %w", err)
	}

	candidate := model.OCRCandidate{
		Text:       decoded.Text,
		Confidence: clamp01(decoded.Confidence),
	}
	for _, w := range decoded.Words {
		candidate.Tokens = append(candidate.Tokens, model.Token{
			Text:   w.Text,
			X:      w.X,
			Y:      w.Y,
			Height: w.Height,
		})
	}
	return candidate, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
