package predictor

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/alimgiray/botscope/internal/models"
)

// ErrModelLoad is returned when a model artifact cannot be used. It is fatal
// for the process: no contributor can be classified without a model.
var ErrModelLoad = errors.New("model load failure")

// Aggregation selects how tree outputs are combined into a probability
type Aggregation string

const (
	// AggregationForest averages leaf probabilities
	AggregationForest Aggregation = "forest"
	// AggregationBoosted applies the logistic function to the summed leaf scores
	AggregationBoosted Aggregation = "boosted"
)

// Node is one node of a decision tree. Internal nodes send x[Feature] < Threshold
// to Left and everything else to Right.
type Node struct {
	Leaf      bool    `json:"leaf,omitempty"`
	Value     float64 `json:"value,omitempty"`
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
}

// Tree is a decision tree stored as a node array rooted at index 0
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Artifact is the serialized form of a trained classifier
type Artifact struct {
	Name         string      `json:"name"`
	Version      string      `json:"version"`
	Aggregation  Aggregation `json:"aggregation"`
	BaseScore    float64     `json:"base_score"`
	FeatureNames []string    `json:"feature_names"`
	Trees        []Tree      `json:"trees"`
}

// LoadFile reads and validates a model artifact from path
func LoadFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}
	return Load(data)
}

// Load decodes and validates a model artifact
func Load(data []byte) (*Model, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: invalid artifact: %v", ErrModelLoad, err)
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}
	return &Model{artifact: a}, nil
}

// Validate checks that the artifact matches the feature layout and that every
// tree is well formed
func (a *Artifact) Validate() error {
	if len(a.FeatureNames) != models.FeatureCount {
		return fmt.Errorf("model expects %d features, extractor produces %d", len(a.FeatureNames), models.FeatureCount)
	}
	for i, name := range a.FeatureNames {
		if name != models.FeatureNames[i] {
			return fmt.Errorf("feature slot %d is %q in the model but %q in the extractor", i, name, models.FeatureNames[i])
		}
	}

	switch a.Aggregation {
	case AggregationForest, AggregationBoosted:
	default:
		return fmt.Errorf("unknown aggregation %q", a.Aggregation)
	}

	if len(a.Trees) == 0 {
		return errors.New("model has no trees")
	}
	for t, tree := range a.Trees {
		if err := tree.validate(a.Aggregation); err != nil {
			return fmt.Errorf("tree %d: %w", t, err)
		}
	}
	return nil
}

// validate requires children to come after their parent so evaluation always terminates
func (t Tree) validate(agg Aggregation) error {
	if len(t.Nodes) == 0 {
		return errors.New("empty tree")
	}
	for i, n := range t.Nodes {
		if n.Leaf {
			if agg == AggregationForest && (n.Value < 0 || n.Value > 1) {
				return fmt.Errorf("node %d: forest leaf value %v outside [0, 1]", i, n.Value)
			}
			continue
		}
		if n.Feature < 0 || n.Feature >= models.FeatureCount {
			return fmt.Errorf("node %d: feature index %d out of range", i, n.Feature)
		}
		for _, child := range []int{n.Left, n.Right} {
			if child <= i || child >= len(t.Nodes) {
				return fmt.Errorf("node %d: invalid child %d", i, child)
			}
		}
	}
	return nil
}

func (t Tree) evaluate(v *models.FeatureVector) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if v[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}
