package workers

import (
	"context"

	"github.com/alimgiray/botscope/pkg/logger"
)

// ClassifyWorker classifies contributors taken from a shared task queue
type ClassifyWorker struct {
	*BaseWorker
	classifier Classifier
	tasks      <-chan Task
	outcomes   chan<- Outcome
}

// NewClassifyWorker creates a new classify worker
func NewClassifyWorker(workerID string, classifier Classifier, tasks <-chan Task, outcomes chan<- Outcome) *ClassifyWorker {
	return &ClassifyWorker{
		BaseWorker: NewBaseWorker(workerID),
		classifier: classifier,
		tasks:      tasks,
		outcomes:   outcomes,
	}
}

// Start begins the classify worker process
func (w *ClassifyWorker) Start(ctx context.Context) error {
	w.running.Store(true)
	defer w.running.Store(false)
	logger.WithField("worker", w.WorkerID).Debug("classify worker started")

	for {
		select {
		case <-ctx.Done():
			logger.WithField("worker", w.WorkerID).Debug("classify worker stopping due to context cancellation")
			return ctx.Err()
		case <-w.StopChan:
			logger.WithField("worker", w.WorkerID).Debug("classify worker stopping")
			return nil
		case task, ok := <-w.tasks:
			if !ok {
				return nil
			}
			w.process(ctx, task)
		}
	}
}

// process classifies one contributor. Runs interrupted by cancellation
// produce no outcome. A finished run is always delivered: the manager drains
// outcomes until every worker has returned.
func (w *ClassifyWorker) process(ctx context.Context, task Task) {
	result := w.classifier.Classify(ctx, task.Login)
	if result.Verdict == nil && ctx.Err() != nil {
		logger.WithField("login", task.Login).Debug("classification abandoned")
		return
	}

	w.outcomes <- Outcome{Index: task.Index, Result: result}
}
