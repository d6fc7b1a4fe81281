package predictor

import (
	"fmt"
	"math"

	"github.com/alimgiray/botscope/internal/models"
)

// Evaluate derives the label and confidence of a Bot probability.
// A probability outside [0, 1] means the model is broken and panics.
func Evaluate(probability float64) models.PredictionResult {
	if math.IsNaN(probability) || probability < 0 || probability > 1 {
		panic(fmt.Sprintf("predictor: probability %v outside [0, 1]", probability))
	}

	label := models.LabelHuman
	if probability >= 0.5 {
		label = models.LabelBot
	}

	return models.PredictionResult{
		Probability: probability,
		Label:       label,
		Confidence:  math.RoundToEven(math.Abs(probability-0.5)*2*1000) / 1000,
	}
}
