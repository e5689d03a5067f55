package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/markscan/markscan/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs one analysis in Markdown format.
func (w *MarkdownWriter) Write(analysis *model.Analysis) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, analysis)
	w.writeAlert(md, analysis.Result)
	w.writeMarking(md, analysis.Marking)
	w.writeChecks(md, analysis.Result)
	w.writeAnomalies(md, analysis.Result)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteBatch outputs every analysis followed by an aggregate summary with
// a verdict distribution chart.
func (w *MarkdownWriter) WriteBatch(analyses []*model.Analysis) (int, error) {
	var total int
	for _, a := range analyses {
		n, err := w.Write(a)
		total += n
		if err != nil {
			return total, err
		}
	}

	md := markdown.NewMarkdown(w.output)
	w.writeBatchSummary(md, analyses)
	n, err := len(md.String()), md.Build()
	total += n
	return total, err
}

// writeHeader writes the report header with analysis information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, analysis *model.Analysis) {
	md.H1("Marking Verification Report")
	md.PlainText("")

	rows := [][]string{
		{"Image", "`" + analysis.ImageRef + "`"},
		{"Status", statusText(analysis)},
	}
	if analysis.Result != nil {
		rows = append(rows,
			[]string{"Analyzed", analysis.Result.AnalyzedAt.Format("2006-01-02 15:04:05 MST")},
			[]string{"Verdict", verdictText(analysis.Result)},
			[]string{"Confidence", strconv.Itoa(analysis.Result.Confidence) + "/100"},
		)
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// statusText returns the status cell text for the analysis state.
func statusText(analysis *model.Analysis) string {
	switch {
	case analysis.Cancelled:
		return "⚠️ Cancelled (partial results)"
	case analysis.Result == nil:
		return "⚠️ Incomplete"
	case analysis.Result.NoTextDetected:
		return "✅ Complete (no text detected)"
	case analysis.Result.SpecUnavailable:
		return "✅ Complete (specification unavailable)"
	default:
		return "✅ Complete"
	}
}

// verdictText returns the verdict cell text with a color indicator.
func verdictText(result *model.VerificationResult) string {
	switch result.Classification {
	case model.ClassificationAuthentic:
		return "🟢 " + result.ClassificationText
	case model.ClassificationSuspect:
		return "🟡 " + result.ClassificationText
	case model.ClassificationCounterfeit:
		return "🔴 " + result.ClassificationText
	default:
		return result.ClassificationText
	}
}

// writeAlert writes an appropriate alert based on the verdict.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, result *model.VerificationResult) {
	if result == nil {
		md.Warning("The analysis did not complete. No verdict was produced.")
		md.PlainText("")
		return
	}

	switch result.Classification {
	case model.ClassificationCounterfeit:
		if result.OverrideFired {
			md.Caution("No date code was detected on the package. " +
				"A missing date code is a primary counterfeit indicator; the part is classified COUNTERFEIT regardless of other checks.")
		} else {
			md.Cautionf(
				"Marking contradicts the official specification (confidence %d/100). Reject the lot.",
				result.Confidence,
			)
		}
	case model.ClassificationSuspect:
		md.Warningf(
			"Marking shows inconsistencies (confidence %d/100). Quarantine the lot pending further testing.",
			result.Confidence,
		)
	default:
		md.Tipf(
			"Marking is consistent with the official specification (confidence %d/100).",
			result.Confidence,
		)
	}
	md.PlainText("")
}

// writeMarking writes the extracted marking fields section.
func (w *MarkdownWriter) writeMarking(md *markdown.Markdown, marking *model.StructuredMarking) {
	if marking == nil {
		return
	}

	md.H2("Extracted Marking")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Field", "Value"},
		Rows: [][]string{
			{"Part Number", fieldText(marking.PartNumber)},
			{"Manufacturer", fieldText(marking.Manufacturer)},
			{"Date Code", fieldText(marking.DateCode)},
			{"Lot Code", fieldText(marking.LotCode)},
			{"Country", fieldText(marking.CountryCode)},
		},
	})
	md.PlainText("")
}

// writeChecks writes the per-check breakdown table.
func (w *MarkdownWriter) writeChecks(md *markdown.Markdown, result *model.VerificationResult) {
	if result == nil {
		return
	}

	md.H2("Checks")
	md.PlainText("")

	rows := make([][]string, len(result.Checks))
	for i, check := range result.Checks {
		outcome := "❌ Fail"
		if check.Passed {
			outcome = "✅ Pass"
		}
		if check.Neutral {
			outcome = "➖ Neutral"
		}
		rows[i] = []string{
			displayName(check.Name),
			fmt.Sprintf("%.2f", check.Score),
			fmt.Sprintf("%.2f", check.Weight),
			outcome,
			check.Detail,
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Check", "Score", "Weight", "Outcome", "Detail"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeAnomalies writes the anomaly list.
func (w *MarkdownWriter) writeAnomalies(md *markdown.Markdown, result *model.VerificationResult) {
	if result == nil || len(result.Anomalies) == 0 {
		return
	}

	md.H2("Anomalies")
	md.PlainText("")
	md.BulletList(result.Anomalies...)
	md.PlainText("")
}

// writeBatchSummary writes the verdict tally and distribution chart.
func (w *MarkdownWriter) writeBatchSummary(md *markdown.Markdown, analyses []*model.Analysis) {
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

	md.H1("Batch Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Verdict", "Count"},
		Rows: [][]string{
			{"🟢 Authentic", strconv.Itoa(authentic)},
			{"🟡 Suspect", strconv.Itoa(suspect)},
			{"🔴 Counterfeit", strconv.Itoa(counterfeit)},
			{"⚠️ Incomplete", strconv.Itoa(incomplete)},
			{"**Total**", "**" + strconv.Itoa(len(analyses)) + "**"},
		},
	})
	md.PlainText("")

	if authentic+suspect+counterfeit > 0 {
		w.writePieChart(md, authentic, suspect, counterfeit)
	}
}

// writePieChart writes a mermaid pie chart for the verdict distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, authentic, suspect, counterfeit int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Verdict Distribution"),
		piechart.WithShowData(true),
	)

	if authentic > 0 {
		chart.LabelAndIntValue("Authentic", uint64(authentic))
	}
	if suspect > 0 {
		chart.LabelAndIntValue("Suspect", uint64(suspect))
	}
	if counterfeit > 0 {
		chart.LabelAndIntValue("Counterfeit", uint64(counterfeit))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by markscan*")
	md.PlainText("")
}
