package classifier

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryBudgetCap(t *testing.T) {
	budget := NewQueryBudget(0, 1, 3)

	for i := 0; i < 3; i++ {
		require.NoError(t, budget.Acquire(context.Background()))
	}
	assert.ErrorIs(t, budget.Acquire(context.Background()), ErrBudgetExhausted)
	assert.Equal(t, 3, budget.Used())
	assert.Equal(t, 0, budget.Remaining())
}

func TestQueryBudgetUncapped(t *testing.T) {
	budget := NewQueryBudget(0, 0, 0)

	for i := 0; i < 100; i++ {
		require.NoError(t, budget.Acquire(context.Background()))
	}
	assert.Equal(t, 100, budget.Used())
	assert.Equal(t, -1, budget.Remaining())
}

func TestQueryBudgetRefundsOnCancel(t *testing.T) {
	budget := NewQueryBudget(1, 1, 5)
	require.NoError(t, budget.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := budget.Acquire(ctx)
	assert.Error(t, err)
	assert.Equal(t, 1, budget.Used())
	assert.Equal(t, 4, budget.Remaining())
}

func TestQueryBudgetSharedCap(t *testing.T) {
	budget := NewQueryBudget(0, 1, 50)

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				if budget.Acquire(context.Background()) == nil {
					mu.Lock()
					admitted++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, admitted)
	assert.Equal(t, 50, budget.Used())
}

func TestOptionsValidate(t *testing.T) {
	testCases := []struct {
		name    string
		modify  func(o *Options)
		wantErr bool
	}{
		{"defaults", func(o *Options) {}, false},
		{"zero min events", func(o *Options) { o.MinEvents = 0 }, true},
		{"confidence above one", func(o *Options) { o.MinConfidence = 1.5 }, true},
		{"negative confidence", func(o *Options) { o.MinConfidence = -0.1 }, true},
		{"zero max queries", func(o *Options) { o.MaxQueries = 0 }, true},
		{"probability metric", func(o *Options) { o.StopMetric = StopOnProbability }, false},
		{"unknown metric", func(o *Options) { o.StopMetric = "entropy" }, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOptions()
			tc.modify(&opts)
			err := opts.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
