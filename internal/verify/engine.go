package verify

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/markscan/markscan/internal/config"
	"github.com/markscan/markscan/internal/model"
)

// Classification thresholds on the [0,100] confidence scale.
const (
	// authenticThreshold is the minimum confidence for Authentic.
	authenticThreshold = 70

	// suspectThreshold is the minimum confidence for Suspect; below it
	// the part is Counterfeit.
	suspectThreshold = 40

	// authenticPassRate is the minimum fraction of individually-passed
	// checks required for Authentic, on top of the confidence threshold.
	authenticPassRate = 0.7

	// neutralScore is assigned to specification-dependent checks when no
	// specification could be resolved.
	neutralScore = 0.5
)

// Engine scores structured markings. It holds no per-analysis state and
// is safe for concurrent use.
type Engine struct {
	// weights are the six validated check weights.
	weights config.CheckWeights

	// passThreshold is the per-check score treated as a pass.
	passThreshold float64

	// maxAge is the maximum plausible component age in years.
	maxAge int

	// tables provides manufacturer aliases for the alias-aware match.
	tables *config.Tables

	// now supplies the current time for the date-code age test.
	now func() time.Time

	// logger records scoring decisions.
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used by the date-code age test.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates a verification engine from a validated configuration.
// The caller is responsible for having run cfg.Validate(); the engine
// assumes the weights sum to 1.0.
func New(cfg *config.Config, opts ...Option) *Engine {
	e := &Engine{
		weights:       cfg.Weights,
		passThreshold: cfg.PassThreshold,
		maxAge:        cfg.MaxDateCodeAge,
		tables:        cfg.Tables,
		now:           time.Now,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Verify scores the marking against the specification and classifies the
// component. A nil spec means the resolver exhausted every source; the
// result then carries SpecUnavailable and specification-dependent checks
// score neutrally. Verify always returns a result, never an error.
func (e *Engine) Verify(marking *model.StructuredMarking, spec *model.OfficialSpecification, quality model.QualityVector, noText bool) *model.VerificationResult {
	specUnavailable := spec == nil

	checks := []model.VerificationCheck{
		e.checkPartNumber(marking, spec),
		e.checkManufacturer(marking, spec),
		e.checkDateCode(marking),
		e.checkCountry(marking, spec),
		e.checkPrintQuality(quality),
		e.checkMarkingFormat(marking, spec),
	}

	result := &model.VerificationResult{
		PartNumber:      marking.PartNumber.Value,
		Checks:          checks,
		SpecUnavailable: specUnavailable,
		NoTextDetected:  noText,
		AnalyzedAt:      e.now().UTC(),
	}

	var weighted float64
	for i := range checks {
		c := &checks[i]
		c.Passed = c.Score >= e.passThreshold
		weighted += c.Weight * c.Score

		if c.Passed {
			result.ChecksPassed = append(result.ChecksPassed, c.Name)
		} else {
			result.ChecksFailed = append(result.ChecksFailed, c.Name)
			result.Anomalies = append(result.Anomalies, fmt.Sprintf("%s: %s", c.Name, c.Detail))
		}
		if c.Neutral && c.Passed {
			// Neutral checks are explained even when the neutral score
			// clears the pass threshold.
			result.Anomalies = append(result.Anomalies, fmt.Sprintf("%s: %s", c.Name, c.Detail))
		}
	}

	result.Confidence = int(math.Round(weighted * 100))
	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 100 {
		result.Confidence = 100
	}

	// The critical override is evaluated before the thresholds: a marking
	// with no date code at all is counterfeit no matter how the weighted
	// sum came out. The confidence stays reported for diagnostics.
	if !marking.DateCode.Present() {
		result.OverrideFired = true
		result.Classification = model.ClassificationCounterfeit
		result.Anomalies = append(result.Anomalies,
			"date code absent from marking: every legitimately marked component carries a date code")
	} else {
		result.Classification = e.classify(result.Confidence, checks)
	}

	result.ClassificationText = result.Classification.String()
	result.Recommendation = model.RecommendationFor(result.Classification)

	e.logger.Debug("verification complete",
		"part", result.PartNumber,
		"confidence", result.Confidence,
		"classification", result.ClassificationText,
		"override", result.OverrideFired,
		"spec_unavailable", result.SpecUnavailable,
	)

	return result
}

// classify applies the confidence thresholds and the pass-rate gate.
func (e *Engine) classify(confidence int, checks []model.VerificationCheck) model.Classification {
	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}
	passRate := float64(passed) / float64(len(checks))

	switch {
	case confidence >= authenticThreshold && passRate >= authenticPassRate:
		return model.ClassificationAuthentic
	case confidence >= suspectThreshold:
		return model.ClassificationSuspect
	default:
		return model.ClassificationCounterfeit
	}
}

// canonicalManufacturer resolves a name or alias to its canonical
// manufacturer name. Unknown names are returned unchanged.
func (e *Engine) canonicalManufacturer(name string) string {
	if _, ok := e.tables.Manufacturers[name]; ok {
		return name
	}
	for canonical, entry := range e.tables.Manufacturers {
		for _, alias := range entry.Aliases {
			if alias == name {
				return canonical
			}
		}
	}
	return name
}
