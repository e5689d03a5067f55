package datasheet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/markscan/markscan/internal/model"
)

// Source looks up a marking specification for a part number.
// Implementations wrap one class of datasheet site (manufacturer,
// aggregator, distributor, generic search) behind a uniform interface
// so the resolver can iterate them generically.
type Source interface {
	// Name returns the source class name, e.g. "manufacturer".
	Name() string

	// Lookup queries the source for the given normalized part number.
	// It returns ErrNotFound when the source answered but holds no
	// document for the part. Any other error is a transport or protocol
	// failure; the resolver treats both as non-fatal.
	Lookup(ctx context.Context, partNumber string) (*model.OfficialSpecification, error)
}

// partPlaceholder is replaced with the escaped part number when a source
// endpoint is given as a URL template.
const partPlaceholder = "{part}"

// defaultEndpoints maps source class names to their built-in query URLs.
// Each can be overridden per class through the configuration file, which
// is how tests point a class at an httptest server.
var defaultEndpoints = map[string]string{
	"manufacturer": "https://www.datasheetarchive.com/" + partPlaceholder + "-datasheet.html",
	"aggregator":   "https://www.alldatasheet.com/view.jsp?Searchword=" + partPlaceholder,
	"distributor":  "https://octopart.com/search?q=" + partPlaceholder,
	"search":       "https://html.duckduckgo.com/html/?q=" + partPlaceholder + "+datasheet+marking",
}

// HTTPSource queries one datasheet site class over HTTP.
// It accepts both JSON responses (structured datasheet APIs) and HTML
// pages, which are parsed for marking specification tables.
//
// Design decision: We require an external client because:
//  1. Timeout and proxy configuration belong to the caller
//  2. Consistent with the OCR HTTP backend
//  3. Allows for different configurations in tests
type HTTPSource struct {
	// name is the source class name.
	name string

	// endpoint is the query URL, optionally containing {part}.
	endpoint string

	// client performs the HTTP requests.
	client *http.Client

	// userAgent is sent with every request.
	userAgent string

	// maxBodySize limits the response body size to read.
	maxBodySize int64
}

// HTTPSourceOption configures an HTTPSource.
type HTTPSourceOption func(*HTTPSource)

// WithUserAgent sets the User-Agent header sent with source requests.
func WithUserAgent(ua string) HTTPSourceOption {
	return func(s *HTTPSource) {
		s.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) HTTPSourceOption {
	return func(s *HTTPSource) {
		s.maxBodySize = size
	}
}

// NewHTTPSource creates a source for one site class. The endpoint may
// contain a {part} placeholder; otherwise the part number is appended
// as a "part" query parameter.
func NewHTTPSource(name, endpoint string, client *http.Client, opts ...HTTPSourceOption) *HTTPSource {
	s := &HTTPSource{
		name:        name,
		endpoint:    endpoint,
		client:      client,
		userAgent:   "markscan/1.0",
		maxBodySize: 5 * 1024 * 1024, // 5MB
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the source class name.
func (s *HTTPSource) Name() string {
	return s.name
}

// Lookup queries the source endpoint for the part number.
func (s *HTTPSource) Lookup(ctx context.Context, partNumber string) (*model.OfficialSpecification, error) {
	queryURL, err := s.buildURL(partNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to build query URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json,text/html;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("source query failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	spec, err := s.decode(resp.Header.Get("Content-Type"), body)
	if err != nil {
		return nil, err
	}
	if spec.SourceURL == "" {
		spec.SourceURL = queryURL
	}

	return spec, nil
}

// buildURL substitutes the part number into the endpoint.
func (s *HTTPSource) buildURL(partNumber string) (string, error) {
	if strings.Contains(s.endpoint, partPlaceholder) {
		return strings.ReplaceAll(s.endpoint, partPlaceholder, url.QueryEscape(partNumber)), nil
	}

	u, err := url.Parse(s.endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("part", partNumber)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// decode interprets the response body according to its content type.
// Structured APIs return JSON; datasheet sites return HTML which is
// scraped for a specification table.
func (s *HTTPSource) decode(contentType string, body []byte) (*model.OfficialSpecification, error) {
	if strings.Contains(contentType, "application/json") {
		var spec model.OfficialSpecification
		if err := json.Unmarshal(body, &spec); err != nil {
			return nil, fmt.Errorf("failed to decode JSON specification: %w", err)
		}
		if spec.PartNumber == "" {
			return nil, ErrNotFound
		}
		return &spec, nil
	}

	return ParseDocument(strings.NewReader(string(body)))
}
