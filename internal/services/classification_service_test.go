package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alimgiray/botscope/internal/classifier"
	"github.com/alimgiray/botscope/internal/metrics"
	"github.com/alimgiray/botscope/internal/models"
	"github.com/alimgiray/botscope/internal/predictor"
	"github.com/alimgiray/botscope/internal/repositories"
	"github.com/alimgiray/botscope/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGitHub knows a fixed set of accounts, each with one page of pushes
type stubGitHub struct {
	accounts map[string]models.AccountType
	failing  map[string]bool
}

func (s *stubGitHub) Resolve(ctx context.Context, login string) (models.AccountMetadata, error) {
	if s.failing[login] {
		return models.AccountMetadata{}, errors.New("connection refused")
	}
	t, ok := s.accounts[login]
	return models.AccountMetadata{Login: login, Exists: ok, Type: t}, nil
}

func (s *stubGitHub) FetchNextBatch(ctx context.Context, login string, cursor int) (models.EventBatch, error) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	events := make([]models.RawEvent, 8)
	for i := range events {
		events[i] = models.RawEvent{
			Type:       "PushEvent",
			ActorLogin: login,
			RepoID:     1,
			RepoName:   "octo/app",
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
		}
	}
	return models.EventBatch{Events: events, NextCursor: 2, Exhausted: true}, nil
}

type constantPredictor float64

func (p constantPredictor) Predict(v models.FeatureVector) models.PredictionResult {
	return predictor.Evaluate(float64(p))
}

func newTestClassificationService(t *testing.T, persist bool) *ClassificationService {
	t.Helper()
	stub := &stubGitHub{
		accounts: map[string]models.AccountType{
			"octocat": models.AccountTypeUser,
			"github":  models.AccountTypeOrganization,
		},
		failing: map[string]bool{"flaky": true},
	}
	o, err := classifier.NewOrchestrator(stub, stub, constantPredictor(0.1), nil, classifier.DefaultOptions())
	require.NoError(t, err)

	collector, err := metrics.NewCollector()
	require.NoError(t, err)

	if !persist {
		return NewClassificationService(o, 2, nil, nil, collector)
	}

	db, err := database.Open(filepath.Join(t.TempDir(), "botscope.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewClassificationService(o, 2,
		repositories.NewBatchRepository(db),
		repositories.NewClassificationRepository(db),
		collector,
	)
}

func TestCleanLogins(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "a"}, CleanLogins([]string{" a ", "", "b", "\t", "a\n"}))
	assert.Empty(t, CleanLogins(nil))
}

func TestClassificationServiceRun(t *testing.T) {
	s := newTestClassificationService(t, true)

	var mu sync.Mutex
	seen := 0
	batch, results, err := s.Run(context.Background(), []string{"octocat", "github", "nobody", "flaky", " "}, true, func(index int, result *models.ClassificationResult) {
		mu.Lock()
		seen++
		mu.Unlock()
	})

	require.NoError(t, err)
	assert.Equal(t, 4, seen)
	assert.Equal(t, models.BatchStatusCompleted, batch.Status)
	assert.Equal(t, 4, batch.Total)
	assert.Equal(t, 3, batch.Completed)
	assert.Equal(t, 1, batch.Failed)

	require.Len(t, results, 4)
	assert.Equal(t, models.VerdictHuman, results[0].Verdict.Type)
	assert.NotNil(t, results[0].Verdict.Features)
	assert.Equal(t, models.VerdictOrganization, results[1].Verdict.Type)
	assert.Equal(t, models.VerdictInvalid, results[2].Verdict.Type)
	assert.True(t, results[3].Failed())
	assert.True(t, classifier.IsTransportFailure(results[3].Err))

	stored, err := s.GetLatest("octocat")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.VerdictHuman, *stored.Verdict)
	assert.NotNil(t, stored.Features)

	storedBatch, classifications, err := s.GetBatch(batch.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BatchStatusCompleted, storedBatch.Status)
	assert.Equal(t, 3, storedBatch.Completed)
	assert.Len(t, classifications, 4)
}

func TestClassificationServiceWithoutPersistence(t *testing.T) {
	s := newTestClassificationService(t, false)

	batch, results, err := s.Run(context.Background(), []string{"octocat"}, false, nil)

	require.NoError(t, err)
	assert.Equal(t, models.BatchStatusCompleted, batch.Status)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].Verdict.Features)

	_, err = s.GetLatest("octocat")
	assert.ErrorIs(t, err, ErrPersistenceDisabled)
	_, _, err = s.GetBatch(batch.ID)
	assert.ErrorIs(t, err, ErrPersistenceDisabled)
}

func TestClassificationServiceRejectsEmptyInput(t *testing.T) {
	s := newTestClassificationService(t, false)

	_, _, err := s.Run(context.Background(), []string{"", "  "}, false, nil)

	assert.Error(t, err)
}

func TestClassificationServiceCancelled(t *testing.T) {
	s := newTestClassificationService(t, true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch, results, err := s.Run(ctx, []string{"octocat", "github"}, false, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, models.BatchStatusCancelled, batch.Status)
	for _, r := range results {
		assert.Nil(t, r)
	}
}
