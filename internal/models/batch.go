package models

import (
	"time"

	"github.com/google/uuid"
)

// BatchStatus represents the status of a classification batch
type BatchStatus string

const (
	BatchStatusPending    BatchStatus = "pending"
	BatchStatusInProgress BatchStatus = "in-progress"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusCancelled  BatchStatus = "cancelled"
	BatchStatusFailed     BatchStatus = "failed"
)

// Batch represents one classification run over a list of contributors
type Batch struct {
	ID           string      `json:"id"`
	Status       BatchStatus `json:"status"`
	Total        int         `json:"total"`
	Completed    int         `json:"completed"`
	Failed       int         `json:"failed"`
	ErrorMessage *string     `json:"error_message,omitempty"`
	StartedAt    *time.Time  `json:"started_at,omitempty"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// NewBatch creates a new Batch with a generated UUID
func NewBatch(total int) *Batch {
	now := time.Now()
	return &Batch{
		ID:        uuid.New().String(),
		Status:    BatchStatusPending,
		Total:     total,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkStarted marks the batch as started
func (b *Batch) MarkStarted() {
	now := time.Now()
	b.Status = BatchStatusInProgress
	b.StartedAt = &now
	b.UpdatedAt = now
}

// Record counts one finished contributor
func (b *Batch) Record(failed bool) {
	if failed {
		b.Failed++
	} else {
		b.Completed++
	}
	b.UpdatedAt = time.Now()
}

// MarkFinished closes the batch. A cancelled context wins over completion.
func (b *Batch) MarkFinished(cancelled bool) {
	now := time.Now()
	b.Status = BatchStatusCompleted
	if cancelled {
		b.Status = BatchStatusCancelled
	}
	b.CompletedAt = &now
	b.UpdatedAt = now
}

// MarkFailed marks the batch as failed
func (b *Batch) MarkFailed(message string) {
	now := time.Now()
	b.Status = BatchStatusFailed
	b.ErrorMessage = &message
	b.CompletedAt = &now
	b.UpdatedAt = now
}

// IsFinished checks if the batch reached a final status
func (b *Batch) IsFinished() bool {
	return b.Status == BatchStatusCompleted || b.Status == BatchStatusCancelled || b.Status == BatchStatusFailed
}
