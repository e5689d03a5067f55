// Package ocr defines the OCR backend capability and its adapters.
//
// Backends are consumed as capabilities behind a single Backend interface;
// the core never branches on a concrete backend beyond the configured
// priority order. The Runner invokes every configured backend concurrently
// with a per-backend timeout: a backend that fails or times out contributes
// an empty candidate instead of blocking the analysis.
//
// The Tesseract adapter requires cgo and the tesseract build tag; without
// the tag a stub is compiled that reports the backend as unavailable.
package ocr
