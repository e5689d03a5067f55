package log

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// sensitiveKeys contains attribute keys that should always be redacted.
// These keys commonly carry datasheet source credentials.
var sensitiveKeys = map[string]bool{
	// HTTP headers
	"authorization":       true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"proxy-authorization": true,

	// Authentication
	"password":      true,
	"passwd":        true,
	"secret":        true,
	"token":         true,
	"api_key":       true,
	"apikey":        true,
	"api-key":       true,
	"access_token":  true,
	"refresh_token": true,
	"secret_key":    true,
	"secretkey":     true,

	// Credentials
	"credential":  true,
	"credentials": true,
	"auth":        true,
}

// textKeys contains attribute keys that carry recognized marking text.
// Values under these keys are truncated rather than redacted.
var textKeys = map[string]bool{
	"text":       true,
	"raw_text":   true,
	"fused_text": true,
	"lines":      true,
	"candidate":  true,
}

// credentialQueryParams are query-string parameters whose values are
// stripped from logged source URLs.
var credentialQueryParams = map[string]bool{
	"apikey":  true,
	"api_key": true,
	"token":   true,
	"key":     true,
}

// sensitivePatterns contains regex patterns that indicate credential-shaped
// values. Values matching these patterns are redacted regardless of key name.
var sensitivePatterns = []*regexp.Regexp{
	// JWT tokens
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),

	// Bearer tokens
	regexp.MustCompile(`(?i)^bearer\s+.+`),

	// Basic auth
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),

	// Long alphanumeric strings (common API key format)
	regexp.MustCompile(`^[a-zA-Z0-9]{40,}$`),
}

// MaskValue is the string used to replace redacted values.
const MaskValue = "***REDACTED***"

// MaxTextAttr is the maximum rune length a recognized-text attribute keeps
// in log output before truncation.
const MaxTextAttr = 120

// truncationMarker is appended to truncated text attributes.
const truncationMarker = "..[truncated]"

// Handler wraps an slog.Handler to redact credentials and truncate
// oversized recognized-text attributes. It intercepts log records and
// rewrites matching attribute values before passing them to the underlying
// handler.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Every package that accepts *slog.Logger gets the protection for free
type Handler struct {
	// handler is the underlying slog handler that receives rewritten records.
	handler slog.Handler
}

// NewHandler creates a new Handler wrapping the given handler.
// If handler is nil, the returned Handler uses slog.Default().Handler().
func NewHandler(handler slog.Handler) *Handler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &Handler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle rewrites all attributes in the record and passes the result to
// the underlying handler.
func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	rewritten := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(a slog.Attr) bool {
		rewritten.AddAttrs(h.rewriteAttr(a))
		return true
	})
	return h.handler.Handle(ctx, rewritten)
}

// WithAttrs returns a new Handler whose underlying handler has the given
// attributes, rewritten first.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	rewritten := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		rewritten[i] = h.rewriteAttr(a)
	}
	return &Handler{handler: h.handler.WithAttrs(rewritten)}
}

// WithGroup returns a new Handler with the given group appended to the
// underlying handler's existing groups.
func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{handler: h.handler.WithGroup(name)}
}

// rewriteAttr applies redaction and truncation to a single attribute,
// recursing into groups.
func (h *Handler) rewriteAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		groupAttrs := a.Value.Group()
		rewritten := make([]slog.Attr, len(groupAttrs))
		for i, groupAttr := range groupAttrs {
			rewritten[i] = h.rewriteAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(rewritten...)}
	}

	keyLower := strings.ToLower(a.Key)
	if sensitiveKeys[keyLower] || containsSensitiveKeyword(keyLower) {
		return slog.String(a.Key, MaskValue)
	}

	if a.Value.Kind() != slog.KindString {
		return a
	}
	strVal := a.Value.String()

	if isSensitiveValue(strVal) {
		return slog.String(a.Key, MaskValue)
	}

	if keyLower == "url" || keyLower == "endpoint" || keyLower == "source_url" {
		return slog.String(a.Key, sanitizeURL(strVal))
	}

	if textKeys[keyLower] {
		return slog.String(a.Key, truncateText(strVal))
	}

	return a
}

// containsSensitiveKeyword checks if the key contains sensitive keywords.
// Note: The bare "key" keyword is intentionally excluded as it causes false
// positives (e.g., "cache_key", "primary_key"). Specific key-related names
// like "api_key" and "secret_key" are covered by the sensitiveKeys map.
func containsSensitiveKeyword(key string) bool {
	sensitiveKeywords := []string{
		"password", "passwd", "secret", "token", "auth", "credential",
	}

	for _, keyword := range sensitiveKeywords {
		if strings.Contains(key, keyword) {
			return true
		}
	}
	return false
}

// isSensitiveValue checks if a value matches credential patterns.
func isSensitiveValue(value string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

// sanitizeURL masks credential-bearing query parameters in a source URL.
// Unparseable values pass through unchanged.
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	changed := false
	for param := range q {
		if credentialQueryParams[strings.ToLower(param)] {
			q.Set(param, MaskValue)
			changed = true
		}
	}
	if u.User != nil {
		u.User = url.User(MaskValue)
		changed = true
	}
	if !changed {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// truncateText caps a recognized-text value at MaxTextAttr runes.
func truncateText(value string) string {
	runes := []rune(value)
	if len(runes) <= MaxTextAttr {
		return value
	}
	return string(runes[:MaxTextAttr]) + truncationMarker
}

// NewLogger creates a new slog.Logger with credential redaction and text
// truncation, writing human-readable output.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(NewHandler(slog.NewTextHandler(w, opts)))
}

// NewJSONLogger creates a new slog.Logger with the same protections as
// NewLogger but emitting JSON. Useful for structured log aggregation.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(NewHandler(slog.NewJSONHandler(w, opts)))
}
