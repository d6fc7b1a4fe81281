package workers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alimgiray/botscope/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClassifier struct {
	delay    time.Duration
	inFlight int32
	maxSeen  int32
	calls    int32
}

func (f *fakeClassifier) Classify(ctx context.Context, login string) *models.ClassificationResult {
	atomic.AddInt32(&f.calls, 1)
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		seen := atomic.LoadInt32(&f.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&f.maxSeen, seen, n) {
			break
		}
	}

	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return &models.ClassificationResult{Login: login, Err: ctx.Err()}
	}
	return &models.ClassificationResult{
		Login:       login,
		Verdict:     &models.Verdict{Type: models.VerdictHuman},
		QueriesUsed: 2,
	}
}

func logins(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("user%d", i)
	}
	return out
}

func TestBatchManagerKeepsInputOrder(t *testing.T) {
	classifier := &fakeClassifier{delay: time.Millisecond}
	manager := NewBatchManager(classifier, 4)

	var mu sync.Mutex
	delivered := make(map[int]string)
	input := logins(20)

	results, err := manager.Run(context.Background(), input, func(index int, result *models.ClassificationResult) {
		mu.Lock()
		defer mu.Unlock()
		delivered[index] = result.Login
	})

	require.NoError(t, err)
	require.Len(t, results, len(input))
	for i, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, input[i], r.Login)
		assert.Equal(t, input[i], delivered[i])
	}
	assert.Equal(t, int32(20), atomic.LoadInt32(&classifier.calls))
}

func TestBatchManagerBoundsConcurrency(t *testing.T) {
	classifier := &fakeClassifier{delay: 5 * time.Millisecond}
	manager := NewBatchManager(classifier, 3)

	_, err := manager.Run(context.Background(), logins(12), nil)

	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&classifier.maxSeen), int32(3))
}

func TestBatchManagerDuplicateLogins(t *testing.T) {
	manager := NewBatchManager(&fakeClassifier{}, 2)

	results, err := manager.Run(context.Background(), []string{"octocat", "octocat"}, nil)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "octocat", results[0].Login)
	assert.Equal(t, "octocat", results[1].Login)
}

func TestBatchManagerEmptyBatch(t *testing.T) {
	manager := NewBatchManager(&fakeClassifier{}, 2)

	results, err := manager.Run(context.Background(), nil, nil)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBatchManagerCancellation(t *testing.T) {
	classifier := &fakeClassifier{delay: time.Hour}
	manager := NewBatchManager(classifier, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var delivered int32
	results, err := manager.Run(ctx, logins(5), func(index int, result *models.ClassificationResult) {
		atomic.AddInt32(&delivered, 1)
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.Len(t, results, 5)
	for _, r := range results {
		assert.Nil(t, r)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&delivered))
}

func TestBaseWorkerStopIsIdempotent(t *testing.T) {
	w := NewBaseWorker("classify-1")

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())

	select {
	case <-w.StopChan:
	default:
		t.Fatal("stop channel should be closed")
	}
	assert.False(t, w.IsRunning())
}

// cancellingClassifier finishes its run and cancels the batch before returning
type cancellingClassifier struct {
	cancel context.CancelFunc
}

func (c *cancellingClassifier) Classify(ctx context.Context, login string) *models.ClassificationResult {
	c.cancel()
	return &models.ClassificationResult{
		Login:       login,
		Verdict:     &models.Verdict{Type: models.VerdictBot},
		QueriesUsed: 2,
	}
}

func TestBatchManagerKeepsFinishedRunOnCancellation(t *testing.T) {
	for i := 0; i < 20; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		manager := NewBatchManager(&cancellingClassifier{cancel: cancel}, 1)

		results, err := manager.Run(ctx, []string{"dependabot"}, nil)

		assert.ErrorIs(t, err, context.Canceled)
		require.Len(t, results, 1)
		require.NotNil(t, results[0])
		assert.Equal(t, models.VerdictBot, results[0].Verdict.Type)
		cancel()
	}
}
