package workers

import (
	"context"
	"sync/atomic"

	"github.com/alimgiray/botscope/internal/models"
)

// Classifier runs the classification of a single contributor
type Classifier interface {
	Classify(ctx context.Context, login string) *models.ClassificationResult
}

// Worker interface defines the contract for all workers
type Worker interface {
	// Start consumes tasks until the queue is drained or ctx is cancelled
	Start(ctx context.Context) error

	// Stop gracefully stops the worker after its current task
	Stop() error

	// GetWorkerID returns the unique identifier for this worker
	GetWorkerID() string
}

// Task is one contributor of a batch, identified by its input position
type Task struct {
	Index int
	Login string
}

// Outcome is the result of a task
type Outcome struct {
	Index  int
	Result *models.ClassificationResult
}

// BaseWorker provides common functionality for all workers
type BaseWorker struct {
	WorkerID string
	StopChan chan struct{}
	running  atomic.Bool
	stopped  atomic.Bool
}

// NewBaseWorker creates a new base worker
func NewBaseWorker(workerID string) *BaseWorker {
	return &BaseWorker{
		WorkerID: workerID,
		StopChan: make(chan struct{}),
	}
}

// GetWorkerID returns the worker's unique identifier
func (w *BaseWorker) GetWorkerID() string {
	return w.WorkerID
}

// Stop gracefully stops the worker
func (w *BaseWorker) Stop() error {
	if w.stopped.CompareAndSwap(false, true) {
		close(w.StopChan)
	}
	return nil
}

// IsRunning checks if the worker is currently running
func (w *BaseWorker) IsRunning() bool {
	return w.running.Load()
}
