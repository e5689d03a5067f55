package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/markscan/markscan/internal/model"
)

// TextWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting and a verdict banner.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type TextWriter struct {
	baseWriter

	// showChecks controls whether the per-check breakdown is shown.
	showChecks bool

	// verbose enables additional detail in the output.
	verbose bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithShowChecks configures the writer to show the per-check breakdown.
func WithShowChecks(show bool) TextWriterOption {
	return func(w *TextWriter) {
		w.showChecks = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) TextWriterOption {
	return func(w *TextWriter) {
		w.verbose = verbose
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{
		baseWriter: newBaseWriter(output),
		showChecks: true,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs one analysis in human-readable format.
func (w *TextWriter) Write(analysis *model.Analysis) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, analysis)
	w.writeMarking(&sb, analysis)
	if w.showChecks {
		w.writeChecks(&sb, analysis.Result)
	}
	w.writeAnomalies(&sb, analysis.Result)
	w.writeVerdict(&sb, analysis.Result)

	return w.output.Write([]byte(sb.String()))
}

// WriteBatch outputs every analysis followed by an aggregate summary.
func (w *TextWriter) WriteBatch(analyses []*model.Analysis) (int, error) {
	var total int
	for _, a := range analyses {
		n, err := w.Write(a)
		total += n
		if err != nil {
			return total, err
		}
	}

	var sb strings.Builder
	w.writeBatchSummary(&sb, analyses)
	n, err := w.output.Write([]byte(sb.String()))
	total += n
	return total, err
}

// writeHeader writes the report header with analysis information.
func (w *TextWriter) writeHeader(sb *strings.Builder, analysis *model.Analysis) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                   COMPONENT MARKING VERIFICATION\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Image:      %s\n", analysis.ImageRef))
	if analysis.Result != nil {
		sb.WriteString(fmt.Sprintf("Analyzed:   %s\n", analysis.Result.AnalyzedAt.Format("2006-01-02 15:04:05 MST")))
	}

	switch {
	case analysis.Cancelled:
		sb.WriteString("Status:     CANCELLED (partial results)\n")
	case analysis.Result == nil:
		sb.WriteString("Status:     INCOMPLETE\n")
	case analysis.Result.NoTextDetected:
		sb.WriteString("Status:     Complete (no text detected on package)\n")
	case analysis.Result.SpecUnavailable:
		sb.WriteString("Status:     Complete (official specification unavailable)\n")
	default:
		sb.WriteString("Status:     Complete\n")
	}

	sb.WriteString("\n")
}

// writeMarking writes the extracted marking fields section.
func (w *TextWriter) writeMarking(sb *strings.Builder, analysis *model.Analysis) {
	if analysis.Marking == nil {
		return
	}
	m := analysis.Marking

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("EXTRACTED MARKING\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Part Number:   %s\n", fieldText(m.PartNumber)))
	sb.WriteString(fmt.Sprintf("  Manufacturer:  %s\n", fieldText(m.Manufacturer)))
	sb.WriteString(fmt.Sprintf("  Date Code:     %s\n", fieldText(m.DateCode)))
	sb.WriteString(fmt.Sprintf("  Lot Code:      %s\n", fieldText(m.LotCode)))
	sb.WriteString(fmt.Sprintf("  Country:       %s\n", fieldText(m.CountryCode)))

	if w.verbose && len(m.RawLines) > 0 {
		sb.WriteString("\n  Raw lines:\n")
		for i, line := range m.RawLines {
			sb.WriteString(fmt.Sprintf("    %d: %s\n", i+1, line))
		}
	}
	sb.WriteString("\n")
}

// writeChecks writes the per-check breakdown section.
func (w *TextWriter) writeChecks(sb *strings.Builder, result *model.VerificationResult) {
	if result == nil {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("CHECKS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, check := range result.Checks {
		marker := "FAIL"
		if check.Passed {
			marker = "PASS"
		}
		if check.Neutral {
			marker = "  - "
		}
		sb.WriteString(fmt.Sprintf("  [%s] %-15s score %.2f  weight %.2f\n",
			marker, displayName(check.Name), check.Score, check.Weight))
		if w.verbose && check.Detail != "" {
			sb.WriteString(fmt.Sprintf("         %s\n", check.Detail))
		}
	}
	sb.WriteString("\n")
}

// writeAnomalies writes the anomaly list.
func (w *TextWriter) writeAnomalies(sb *strings.Builder, result *model.VerificationResult) {
	if result == nil || len(result.Anomalies) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("ANOMALIES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, anomaly := range result.Anomalies {
		sb.WriteString(fmt.Sprintf("  * %s\n", anomaly))
	}
	sb.WriteString("\n")
}

// writeVerdict writes the verdict banner and recommendation.
func (w *TextWriter) writeVerdict(sb *strings.Builder, result *model.VerificationResult) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	if result == nil {
		sb.WriteString("VERDICT: (none)\n")
		sb.WriteString(strings.Repeat("=", 70))
		sb.WriteString("\n")
		return
	}

	sb.WriteString(fmt.Sprintf("VERDICT: %s  (confidence %d/100)\n",
		result.ClassificationText, result.Confidence))
	if result.OverrideFired {
		sb.WriteString("         Missing date code forced the verdict.\n")
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Recommendation: %s\n", result.Recommendation))
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// writeBatchSummary writes the verdict tally after a batch.
func (w *TextWriter) writeBatchSummary(sb *strings.Builder, analyses []*model.Analysis) {
	var authentic, suspect, counterfeit, incomplete int
	for _, a := range analyses {
		if a.Result == nil {
			incomplete++
			continue
		}
		switch a.Result.Classification {
		case model.ClassificationAuthentic:
			authentic++
		case model.ClassificationSuspect:
			suspect++
		case model.ClassificationCounterfeit:
			counterfeit++
		}
	}

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("BATCH SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("  Images analyzed: %d\n", len(analyses)))
	sb.WriteString(fmt.Sprintf("  AUTHENTIC:       %d\n", authentic))
	sb.WriteString(fmt.Sprintf("  SUSPECT:         %d\n", suspect))
	sb.WriteString(fmt.Sprintf("  COUNTERFEIT:     %d\n", counterfeit))
	if incomplete > 0 {
		sb.WriteString(fmt.Sprintf("  INCOMPLETE:      %d\n", incomplete))
	}
	sb.WriteString("\n")
}
