// Package predictor maps feature vectors to bot probabilities using a
// pre-trained tree ensemble.
package predictor

import (
	"math"

	"github.com/alimgiray/botscope/internal/models"
)

// Predictor maps a feature vector to a prediction. Implementations must be
// safe for concurrent use.
type Predictor interface {
	Predict(v models.FeatureVector) models.PredictionResult
}

// Model is a loaded, immutable tree ensemble
type Model struct {
	artifact Artifact
}

// Name returns the artifact name and version
func (m *Model) Name() string {
	if m.artifact.Version == "" {
		return m.artifact.Name
	}
	return m.artifact.Name + "@" + m.artifact.Version
}

// Probability returns the probability of the Bot class
func (m *Model) Probability(v models.FeatureVector) float64 {
	var sum float64
	for _, tree := range m.artifact.Trees {
		sum += tree.evaluate(&v)
	}

	switch m.artifact.Aggregation {
	case AggregationBoosted:
		return 1 / (1 + math.Exp(-(m.artifact.BaseScore + sum)))
	default:
		return sum / float64(len(m.artifact.Trees))
	}
}

// Predict returns the probability together with its label and confidence
func (m *Model) Predict(v models.FeatureVector) models.PredictionResult {
	return Evaluate(m.Probability(v))
}
