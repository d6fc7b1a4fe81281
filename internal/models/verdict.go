package models

import (
	"time"

	"github.com/google/uuid"
)

// VerdictType is the terminal classification of a contributor
type VerdictType string

const (
	VerdictInvalid      VerdictType = "Invalid"
	VerdictOrganization VerdictType = "Organization"
	VerdictBot          VerdictType = "Bot"
	VerdictUnknown      VerdictType = "Unknown"
	VerdictHuman        VerdictType = "Human"
)

// VerdictFromLabel converts a predictor label into a verdict
func VerdictFromLabel(l Label) VerdictType {
	if l == LabelBot {
		return VerdictBot
	}
	return VerdictHuman
}

// Verdict is the immutable outcome of classifying one contributor.
// Confidence and Features are nil when not applicable or not requested.
type Verdict struct {
	Type       VerdictType    `json:"type"`
	Confidence *float64       `json:"confidence,omitempty"`
	Features   *FeatureVector `json:"features,omitempty"`
}

// ClassificationResult is what a run returns for one contributor: either a
// verdict or the failure that prevented one
type ClassificationResult struct {
	Login       string        `json:"contributor"`
	Verdict     *Verdict      `json:"verdict,omitempty"`
	QueriesUsed int           `json:"queries_used"`
	Err         error         `json:"-"`
	Duration    time.Duration `json:"-"`
}

// Failed reports whether the run ended without a verdict
func (r *ClassificationResult) Failed() bool {
	return r.Err != nil || r.Verdict == nil
}

// ErrorMessage returns the failure text, if any
func (r *ClassificationResult) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Classification is a persisted classification outcome
type Classification struct {
	ID           string         `json:"id"`
	BatchID      *string        `json:"batch_id,omitempty"`
	Login        string         `json:"contributor"`
	Verdict      *VerdictType   `json:"type,omitempty"`
	Confidence   *float64       `json:"confidence,omitempty"`
	QueriesUsed  int            `json:"queries_used"`
	Features     *FeatureVector `json:"features,omitempty"`
	ErrorMessage *string        `json:"error,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// NewClassification builds the persisted record of a run result
func NewClassification(batchID *string, r *ClassificationResult) *Classification {
	c := &Classification{
		ID:          uuid.New().String(),
		BatchID:     batchID,
		Login:       r.Login,
		QueriesUsed: r.QueriesUsed,
		CreatedAt:   time.Now().UTC(),
	}
	if r.Verdict != nil {
		t := r.Verdict.Type
		c.Verdict = &t
		c.Confidence = r.Verdict.Confidence
		c.Features = r.Verdict.Features
	}
	if r.Err != nil {
		msg := r.Err.Error()
		c.ErrorMessage = &msg
	}
	return c
}
