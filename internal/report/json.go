package report

import (
	"encoding/json"
	"io"

	"github.com/markscan/markscan/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because:
// 1. It's part of the standard library (no extra dependencies)
// 2. It's sufficient for our needs
// 3. It provides consistent behavior across Go versions
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is embedded in the report envelope when non-empty.
	version string

	// fullAnalysis includes the complete analysis (candidates, fused result,
	// resolved specification) rather than result and marking only.
	fullAnalysis bool
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// WithVersion embeds the tool version in the report envelope.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// WithFullAnalysis includes OCR candidates, the fused reading, and the
// resolved specification alongside the verification result.
func WithFullAnalysis() JSONWriterOption {
	return func(w *JSONWriter) {
		w.fullAnalysis = true
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// jsonEnvelope wraps one analysis for output with contextual metadata.
//
// Design decision: We wrap the result rather than modifying the model types
// because this allows output-specific fields (tool version, image reference)
// without polluting the core data structures.
type jsonEnvelope struct {
	// Version is the tool version that generated this report.
	Version string `json:"version,omitempty"`

	// ImageRef identifies the analyzed image.
	ImageRef string `json:"image_ref"`

	// Marking is the structured marking, when parsing completed.
	Marking *model.StructuredMarking `json:"marking,omitempty"`

	// Result is the verification result.
	Result *model.VerificationResult `json:"result"`

	// Analysis is the complete analysis aggregate, present only when
	// full output was requested.
	Analysis *model.Analysis `json:"analysis,omitempty"`
}

// jsonBatchEnvelope wraps a batch of analyses with a verdict tally.
type jsonBatchEnvelope struct {
	Version string          `json:"version,omitempty"`
	Reports []*jsonEnvelope `json:"reports"`
	Summary batchTally      `json:"summary"`
}

// batchTally counts verdicts across a batch.
type batchTally struct {
	Total       int `json:"total"`
	Authentic   int `json:"authentic"`
	Suspect     int `json:"suspect"`
	Counterfeit int `json:"counterfeit"`
	Incomplete  int `json:"incomplete,omitempty"`
}

// Write outputs one analysis in JSON format.
func (w *JSONWriter) Write(analysis *model.Analysis) (int, error) {
	return w.writeJSON(w.envelope(analysis))
}

// WriteBatch outputs the batch wrapped with a verdict tally.
func (w *JSONWriter) WriteBatch(analyses []*model.Analysis) (int, error) {
	batch := &jsonBatchEnvelope{
		Version: w.version,
		Reports: make([]*jsonEnvelope, 0, len(analyses)),
	}

	for _, a := range analyses {
		env := w.envelope(a)
		env.Version = "" // carried once at the batch level
		batch.Reports = append(batch.Reports, env)

		batch.Summary.Total++
		if a.Result == nil {
			batch.Summary.Incomplete++
			continue
		}
		switch a.Result.Classification {
		case model.ClassificationAuthentic:
			batch.Summary.Authentic++
		case model.ClassificationSuspect:
			batch.Summary.Suspect++
		case model.ClassificationCounterfeit:
			batch.Summary.Counterfeit++
		}
	}

	return w.writeJSON(batch)
}

// envelope builds the output wrapper for one analysis.
func (w *JSONWriter) envelope(analysis *model.Analysis) *jsonEnvelope {
	env := &jsonEnvelope{
		Version:  w.version,
		ImageRef: analysis.ImageRef,
		Marking:  analysis.Marking,
		Result:   analysis.Result,
	}
	if w.fullAnalysis {
		env.Analysis = analysis
		env.Marking = nil // already carried inside the analysis
	}
	return env
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
