package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/markscan/markscan/internal/model"
)

// createTestAnalysis creates an analysis with sample data for testing.
func createTestAnalysis() *model.Analysis {
	analysis := model.NewAnalysis("chip.png", model.QualityVector{
		Sharpness: 0.9, Contrast: 0.85, EdgeDensity: 0.8, Noise: 0.1,
	})
	analysis.Marking = &model.StructuredMarking{
		RawLines:     []string{"CY8C29666-24PVXI", "0732 B05", "PHILIPPINES"},
		PartNumber:   model.Field{Value: "CY8C29666-24PVXI", Origin: model.OriginAsRead},
		Manufacturer: model.Field{Value: "CYPRESS", Origin: model.OriginAsRead},
		DateCode:     model.Field{Value: "0732", Origin: model.OriginCorrected},
		LotCode:      model.Field{Value: "B05", Origin: model.OriginAsRead},
		CountryCode:  model.Field{Value: "PHILIPPINES", Origin: model.OriginAsRead},
	}
	analysis.Result = &model.VerificationResult{
		PartNumber:         "CY8C29666-24PVXI",
		Confidence:         92,
		Classification:     model.ClassificationAuthentic,
		ClassificationText: "AUTHENTIC",
		Checks: []model.VerificationCheck{
			{Name: model.CheckPartNumber, Weight: 0.30, Score: 1.0, Passed: true},
			{Name: model.CheckManufacturer, Weight: 0.20, Score: 1.0, Passed: true},
			{Name: model.CheckDateCode, Weight: 0.15, Score: 1.0, Passed: true, Detail: "decoded year 2007"},
			{Name: model.CheckCountry, Weight: 0.10, Score: 1.0, Passed: true},
			{Name: model.CheckPrintQuality, Weight: 0.15, Score: 0.86, Passed: true},
			{Name: model.CheckMarkingFormat, Weight: 0.10, Score: 0.67, Passed: true},
		},
		ChecksPassed:   []string{model.CheckPartNumber, model.CheckManufacturer, model.CheckDateCode, model.CheckCountry, model.CheckPrintQuality, model.CheckMarkingFormat},
		Recommendation: model.RecommendationFor(model.ClassificationAuthentic),
		AnalyzedAt:     time.Date(2026, time.June, 1, 10, 30, 0, 0, time.UTC),
	}
	return analysis
}

// createCounterfeitAnalysis creates an analysis where the override fired.
func createCounterfeitAnalysis() *model.Analysis {
	analysis := createTestAnalysis()
	analysis.ImageRef = "remarked.png"
	analysis.Marking.DateCode = model.Field{}
	analysis.Result = &model.VerificationResult{
		PartNumber:         "CY8C29666-24PVXI",
		Confidence:         61,
		Classification:     model.ClassificationCounterfeit,
		ClassificationText: "COUNTERFEIT",
		Checks: []model.VerificationCheck{
			{Name: model.CheckPartNumber, Weight: 0.30, Score: 1.0, Passed: true},
			{Name: model.CheckDateCode, Weight: 0.15, Score: 0, Passed: false, Detail: "date code absent"},
		},
		ChecksFailed:   []string{model.CheckDateCode},
		Anomalies:      []string{"date_code: date code absent from marking"},
		Recommendation: model.RecommendationFor(model.ClassificationCounterfeit),
		OverrideFired:  true,
		AnalyzedAt:     time.Date(2026, time.June, 1, 10, 31, 0, 0, time.UTC),
	}
	return analysis
}

// TestTextWriter tests the human-readable report writer.
func TestTextWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and verdict", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewTextWriter(&buf)

		_, err := w.Write(createTestAnalysis())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "COMPONENT MARKING VERIFICATION") {
			t.Error("expected output to contain header")
		}
		if !strings.Contains(output, "chip.png") {
			t.Error("expected output to contain image reference")
		}
		if !strings.Contains(output, "VERDICT: AUTHENTIC") {
			t.Error("expected output to contain verdict")
		}
		if !strings.Contains(output, "confidence 92/100") {
			t.Error("expected output to contain confidence")
		}
	})

	t.Run("writes marking fields with provenance", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewTextWriter(&buf)

		_, err := w.Write(createTestAnalysis())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "CY8C29666-24PVXI") {
			t.Error("expected output to contain part number")
		}
		if !strings.Contains(output, "0732 (corrected)") {
			t.Error("expected corrected date code annotation")
		}
	})

	t.Run("writes check breakdown", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewTextWriter(&buf)

		_, err := w.Write(createTestAnalysis())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "CHECKS") {
			t.Error("expected checks section")
		}
		if !strings.Contains(output, "Print Quality") {
			t.Error("expected display-form check name")
		}
		if !strings.Contains(output, "[PASS]") {
			t.Error("expected pass markers")
		}
	})

	t.Run("hides checks when disabled", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewTextWriter(&buf, WithShowChecks(false))

		_, err := w.Write(createTestAnalysis())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if strings.Contains(buf.String(), "CHECKS") {
			t.Error("expected checks section to be hidden")
		}
	})

	t.Run("verbose shows raw lines and details", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewTextWriter(&buf, WithVerbose(true))

		_, err := w.Write(createTestAnalysis())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Raw lines:") {
			t.Error("expected raw lines in verbose output")
		}
		if !strings.Contains(output, "decoded year 2007") {
			t.Error("expected check detail in verbose output")
		}
	})

	t.Run("counterfeit verdict notes the override", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewTextWriter(&buf)

		_, err := w.Write(createCounterfeitAnalysis())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "VERDICT: COUNTERFEIT") {
			t.Error("expected counterfeit verdict")
		}
		if !strings.Contains(output, "Missing date code forced the verdict") {
			t.Error("expected override note")
		}
		if !strings.Contains(output, "ANOMALIES") {
			t.Error("expected anomalies section")
		}
		if !strings.Contains(output, "(not detected)") {
			t.Error("expected absent date code rendering")
		}
	})

	t.Run("batch output includes summary tally", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewTextWriter(&buf)

		analyses := []*model.Analysis{createTestAnalysis(), createCounterfeitAnalysis()}
		_, err := w.WriteBatch(analyses)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "BATCH SUMMARY") {
			t.Error("expected batch summary")
		}
		if !strings.Contains(output, "AUTHENTIC:       1") {
			t.Errorf("expected authentic tally, got:\n%s", output)
		}
		if !strings.Contains(output, "COUNTERFEIT:     1") {
			t.Errorf("expected counterfeit tally, got:\n%s", output)
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("produces valid JSON with result", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithVersion("1.2.3"))

		_, err := w.Write(createTestAnalysis())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded struct {
			Version  string `json:"version"`
			ImageRef string `json:"image_ref"`
			Result   struct {
				Confidence         int    `json:"confidence"`
				ClassificationText string `json:"classification_text"`
			} `json:"result"`
		}
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON output: %v", err)
		}
		if decoded.Version != "1.2.3" {
			t.Errorf("version = %q, want 1.2.3", decoded.Version)
		}
		if decoded.ImageRef != "chip.png" {
			t.Errorf("image_ref = %q", decoded.ImageRef)
		}
		if decoded.Result.Confidence != 92 || decoded.Result.ClassificationText != "AUTHENTIC" {
			t.Errorf("unexpected result payload: %+v", decoded.Result)
		}
	})

	t.Run("pretty print indents", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())

		_, err := w.Write(createTestAnalysis())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "\n  ") {
			t.Error("expected indented output")
		}
	})

	t.Run("full analysis embeds candidates and spec", func(t *testing.T) {
		t.Parallel()

		analysis := createTestAnalysis()
		analysis.Candidates = []model.OCRCandidate{{Backend: "tesseract", Confidence: 0.8}}

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithFullAnalysis())

		_, err := w.Write(analysis)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded map[string]json.RawMessage
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON output: %v", err)
		}
		if _, ok := decoded["analysis"]; !ok {
			t.Error("expected embedded analysis")
		}
		if _, ok := decoded["marking"]; ok {
			t.Error("marking should be carried inside the analysis only")
		}
	})

	t.Run("batch output carries a tally", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		analyses := []*model.Analysis{createTestAnalysis(), createCounterfeitAnalysis()}
		_, err := w.WriteBatch(analyses)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded struct {
			Reports []json.RawMessage `json:"reports"`
			Summary struct {
				Total       int `json:"total"`
				Authentic   int `json:"authentic"`
				Counterfeit int `json:"counterfeit"`
			} `json:"summary"`
		}
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON output: %v", err)
		}
		if len(decoded.Reports) != 2 {
			t.Errorf("reports = %d, want 2", len(decoded.Reports))
		}
		if decoded.Summary.Total != 2 || decoded.Summary.Authentic != 1 || decoded.Summary.Counterfeit != 1 {
			t.Errorf("unexpected summary: %+v", decoded.Summary)
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header table and check table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		_, err := w.Write(createTestAnalysis())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "# Marking Verification Report") {
			t.Error("expected markdown title")
		}
		if !strings.Contains(output, "`chip.png`") {
			t.Error("expected image reference in header table")
		}
		if !strings.Contains(output, "Part Number") {
			t.Error("expected marking table")
		}
		if !strings.Contains(output, "Print Quality") {
			t.Error("expected check table with display names")
		}
	})

	t.Run("counterfeit report carries a caution alert", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		_, err := w.Write(createCounterfeitAnalysis())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[!CAUTION]") {
			t.Error("expected caution alert")
		}
		if !strings.Contains(output, "COUNTERFEIT") {
			t.Error("expected verdict text")
		}
		if !strings.Contains(output, "## Anomalies") {
			t.Error("expected anomalies section")
		}
	})

	t.Run("batch summary includes verdict chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		analyses := []*model.Analysis{createTestAnalysis(), createCounterfeitAnalysis()}
		_, err := w.WriteBatch(analyses)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "# Batch Summary") {
			t.Error("expected batch summary heading")
		}
		if !strings.Contains(output, "mermaid") {
			t.Error("expected mermaid verdict chart")
		}
	})
}

// failingWriter always returns an error, for MultiWriter error propagation.
type failingWriter struct{}

func (failingWriter) Write(*model.Analysis) (int, error) {
	return 0, errors.New("write failed")
}

func (failingWriter) WriteBatch([]*model.Analysis) (int, error) {
	return 0, errors.New("write failed")
}

// TestMultiWriter tests fan-out to multiple writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var text, jsonBuf bytes.Buffer
		w := NewMultiWriter(NewTextWriter(&text), NewJSONWriter(&jsonBuf))

		_, err := w.Write(createTestAnalysis())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if text.Len() == 0 {
			t.Error("text writer received nothing")
		}
		if jsonBuf.Len() == 0 {
			t.Error("json writer received nothing")
		}
	})

	t.Run("stops at first error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMultiWriter(failingWriter{}, NewTextWriter(&buf))

		_, err := w.Write(createTestAnalysis())
		if err == nil {
			t.Fatal("expected error")
		}
		if buf.Len() != 0 {
			t.Error("second writer should not have been reached")
		}
	})
}

// TestDisplayName tests canonical-to-display conversion.
func TestDisplayName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"print_quality", "Print Quality"},
		{"PHILIPPINES", "Philippines"},
		{"marking_format", "Marking Format"},
		{"date_code", "Date Code"},
	}

	for _, tt := range tests {
		if got := displayName(tt.in); got != tt.want {
			t.Errorf("displayName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
