package model

import "testing"

// TestClassificationString tests classification formatting.
func TestClassificationString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		c    Classification
		want string
	}{
		{ClassificationAuthentic, "AUTHENTIC"},
		{ClassificationSuspect, "SUSPECT"},
		{ClassificationCounterfeit, "COUNTERFEIT"},
		{Classification(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("Classification(%d).String() = %q, want %q", tt.c, got, tt.want)
		}
	}
}

// TestRecommendationFor tests that every classification has a fixed
// recommendation and unknown values get a fallback.
func TestRecommendationFor(t *testing.T) {
	t.Parallel()

	for _, c := range []Classification{ClassificationAuthentic, ClassificationSuspect, ClassificationCounterfeit} {
		if RecommendationFor(c) == "" {
			t.Errorf("empty recommendation for %s", c)
		}
	}
	if RecommendationFor(Classification(42)) == "" {
		t.Error("expected fallback recommendation for unknown classification")
	}
}

// TestFieldOrigin tests field provenance behavior.
func TestFieldOrigin(t *testing.T) {
	t.Parallel()

	t.Run("absent field is not present", func(t *testing.T) {
		t.Parallel()

		var f Field
		if f.Present() {
			t.Error("zero field should be absent")
		}
		if f.Origin.String() != "absent" {
			t.Errorf("expected origin 'absent', got %q", f.Origin.String())
		}
	})

	t.Run("corrected field is present", func(t *testing.T) {
		t.Parallel()

		f := Field{Value: "2007", Origin: OriginCorrected}
		if !f.Present() {
			t.Error("corrected field should be present")
		}
		if f.Origin.String() != "corrected" {
			t.Errorf("expected origin 'corrected', got %q", f.Origin.String())
		}
	})
}

// TestQualityVectorComposite tests reduction of the quality vector.
func TestQualityVectorComposite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		q    QualityVector
		want float64
	}{
		{"perfect image", QualityVector{Sharpness: 1, Contrast: 1, Noise: 0, EdgeDensity: 1}, 1.0},
		{"worst image", QualityVector{Sharpness: 0, Contrast: 0, Noise: 1, EdgeDensity: 0}, 0.0},
		{"balanced image", QualityVector{Sharpness: 0.5, Contrast: 0.5, Noise: 0.5, EdgeDensity: 0.5}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := tt.q.Composite()
			if got < tt.want-1e-9 || got > tt.want+1e-9 {
				t.Errorf("Composite() = %f, want %f", got, tt.want)
			}
		})
	}
}

// TestOfficialSpecificationAllowsCountry tests country membership.
func TestOfficialSpecificationAllowsCountry(t *testing.T) {
	t.Parallel()

	spec := &OfficialSpecification{ValidCountries: []string{"PHILIPPINES", "MALAYSIA"}}

	if !spec.AllowsCountry("PHILIPPINES") {
		t.Error("expected PHILIPPINES to be allowed")
	}
	if spec.AllowsCountry("CHINA") {
		t.Error("expected CHINA to be rejected")
	}

	open := &OfficialSpecification{}
	if !open.AllowsCountry("ANYWHERE") {
		t.Error("empty country list should allow any country")
	}
}

// TestStructuredMarkingFieldCount tests present-field counting.
func TestStructuredMarkingFieldCount(t *testing.T) {
	t.Parallel()

	m := &StructuredMarking{
		PartNumber: Field{Value: "CY8C29666-24PVXI", Origin: OriginAsRead},
		DateCode:   Field{Value: "2007", Origin: OriginCorrected},
	}
	if got := m.FieldCount(); got != 2 {
		t.Errorf("FieldCount() = %d, want 2", got)
	}
}
