package models

// Label is the binary class produced by the predictor
type Label string

const (
	LabelHuman Label = "Human"
	LabelBot   Label = "Bot"
)

// PredictionResult is the predictor output for one feature vector
type PredictionResult struct {
	Probability float64 `json:"probability"`
	Label       Label   `json:"label"`
	Confidence  float64 `json:"confidence"`
}
