package classifier

import (
	"fmt"

	"github.com/alimgiray/botscope/internal/models"
	"github.com/alimgiray/botscope/pkg/config"
)

// StopMetric selects what the confidence threshold is compared against
type StopMetric string

const (
	// StopOnConfidence compares the rescaled distance from 0.5
	StopOnConfidence StopMetric = "confidence"
	// StopOnProbability compares the raw probability of either class
	StopOnProbability StopMetric = "probability"
)

// Options is the per-contributor stopping policy
type Options struct {
	MinEvents       int
	MinConfidence   float64
	MaxQueries      int
	IncludeFeatures bool
	StopMetric      StopMetric
}

// DefaultOptions returns the conservative defaults: stop early only when
// maximally certain
func DefaultOptions() Options {
	return Options{
		MinEvents:     5,
		MinConfidence: 1.0,
		MaxQueries:    3,
		StopMetric:    StopOnConfidence,
	}
}

// OptionsFromConfig builds options from the classifier configuration section
func OptionsFromConfig(c config.ClassifierConfig) Options {
	return Options{
		MinEvents:       c.MinEvents,
		MinConfidence:   c.MinConfidence,
		MaxQueries:      c.MaxQueries,
		IncludeFeatures: c.IncludeFeatures,
		StopMetric:      StopMetric(c.StopMetric),
	}
}

// Validate checks the option ranges
func (o Options) Validate() error {
	if o.MinEvents < 1 {
		return fmt.Errorf("min events must be at least 1, got %d", o.MinEvents)
	}
	if o.MinConfidence < 0 || o.MinConfidence > 1 {
		return fmt.Errorf("min confidence must be within [0, 1], got %v", o.MinConfidence)
	}
	if o.MaxQueries < 1 {
		return fmt.Errorf("max queries must be at least 1, got %d", o.MaxQueries)
	}
	switch o.StopMetric {
	case StopOnConfidence, StopOnProbability:
	default:
		return fmt.Errorf("unknown stop metric %q", o.StopMetric)
	}
	return nil
}

// confident reports whether a prediction is certain enough to stop querying
func (o Options) confident(p models.PredictionResult) bool {
	if o.StopMetric == StopOnProbability {
		return p.Probability >= o.MinConfidence || p.Probability <= 1-o.MinConfidence
	}
	return p.Confidence >= o.MinConfidence
}
