package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alimgiray/botscope/internal/models"
	"github.com/alimgiray/botscope/pkg/logger"
)

// ErrStopped is returned by Run when StopAll interrupted the batch
var ErrStopped = errors.New("batch stopped")

// ResultFunc receives each contributor's result as soon as it is known.
// Calls are serialized.
type ResultFunc func(index int, result *models.ClassificationResult)

// BatchManager runs a batch of contributors on a pool of classify workers
type BatchManager struct {
	classifier Classifier
	size       int

	mu      sync.Mutex
	workers []Worker
	stopped bool
}

// NewBatchManager creates a manager running up to size workers per batch
func NewBatchManager(classifier Classifier, size int) *BatchManager {
	if size < 1 {
		size = 1
	}
	return &BatchManager{
		classifier: classifier,
		size:       size,
	}
}

// Run classifies logins and returns their results in input order. A
// contributor whose run was interrupted by cancellation or StopAll has a nil
// entry; in that case the returned error says why.
func (m *BatchManager) Run(ctx context.Context, logins []string, onResult ResultFunc) ([]*models.ClassificationResult, error) {
	results := make([]*models.ClassificationResult, len(logins))
	if len(logins) == 0 {
		return results, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	tasks := make(chan Task)
	outcomes := make(chan Outcome)

	size := m.size
	if size > len(logins) {
		size = len(logins)
	}

	logger.Infof("Starting %d classify workers for %d contributors", size, len(logins))

	var wg sync.WaitGroup
	m.mu.Lock()
	m.stopped = false
	m.workers = make([]Worker, 0, size)
	for i := 0; i < size; i++ {
		worker := NewClassifyWorker(fmt.Sprintf("classify-%d", i+1), m.classifier, tasks, outcomes)
		m.workers = append(m.workers, worker)
		m.startWorker(runCtx, &wg, worker)
	}
	m.mu.Unlock()

	go func() {
		defer close(tasks)
		for i, login := range logins {
			select {
			case tasks <- Task{Index: i, Login: login}:
			case <-runCtx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	received := 0
	for o := range outcomes {
		results[o.Index] = o.Result
		received++
		if onResult != nil {
			onResult(o.Index, o.Result)
		}
	}

	if err := ctx.Err(); err != nil {
		return results, err
	}
	m.mu.Lock()
	stopped := m.stopped
	m.mu.Unlock()
	if stopped && received < len(logins) {
		return results, ErrStopped
	}
	return results, nil
}

// StopAll gracefully stops the workers of the running batch. Contributors in
// flight finish; the rest are not scheduled.
func (m *BatchManager) StopAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopped = true
	for _, worker := range m.workers {
		if err := worker.Stop(); err != nil {
			logger.Errorf("Error stopping worker %s: %v", worker.GetWorkerID(), err)
		}
	}
	return nil
}

// startWorker starts a single worker in a goroutine
func (m *BatchManager) startWorker(ctx context.Context, wg *sync.WaitGroup, worker Worker) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := worker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Errorf("Worker %s stopped with error: %v", worker.GetWorkerID(), err)
		}
	}()
}

// GetWorkerStatus returns the running state of the current batch's workers
func (m *BatchManager) GetWorkerStatus() map[string]bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := make(map[string]bool, len(m.workers))
	for _, worker := range m.workers {
		if w, ok := worker.(*ClassifyWorker); ok {
			status[worker.GetWorkerID()] = w.IsRunning()
		} else {
			status[worker.GetWorkerID()] = false
		}
	}
	return status
}
