// Package log provides logging for marking analysis, built on top of the
// standard slog package.
//
// This package extends slog to provide:
//   - Automatic redaction of datasheet source credentials (API keys, tokens)
//   - Truncation of oversized recognized-text attributes so a noisy OCR read
//     of a full component label cannot flood the log stream
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// # Redaction
//
// The Handler redacts attribute values that match sensitive key names or
// credential-shaped values:
//   - HTTP headers (Authorization, X-Api-Key)
//   - Source endpoint API keys embedded in query strings
//   - Secret values detected by pattern matching (bearer tokens, long
//     alphanumeric keys)
//
// Even in verbose mode, credentials are masked to prevent accidental
// exposure in logs that may be attached to verification reports.
//
// # Truncation
//
// OCR output routinely exceeds what a log line can usefully carry. String
// attributes under recognized-text keys ("text", "raw_text", "fused_text",
// "lines") are truncated to MaxTextAttr runes with an ellipsis marker.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("source queried",
//	    "api_key", "dk_9f3a...",   // redacted
//	    "raw_text", longOCRDump,   // truncated
//	)
//
//	slog.SetDefault(logger)
package log
