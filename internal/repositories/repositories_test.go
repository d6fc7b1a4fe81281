package repositories

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alimgiray/botscope/internal/models"
	"github.com/alimgiray/botscope/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "botscope.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestBatchRepositoryLifecycle(t *testing.T) {
	repo := NewBatchRepository(openTestDB(t))

	batch := models.NewBatch(3)
	require.NoError(t, repo.Create(batch))

	batch.MarkStarted()
	batch.Record(false)
	batch.Record(true)
	batch.MarkFinished(false)
	require.NoError(t, repo.Update(batch))

	stored, err := repo.GetByID(batch.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BatchStatusCompleted, stored.Status)
	assert.Equal(t, 3, stored.Total)
	assert.Equal(t, 1, stored.Completed)
	assert.Equal(t, 1, stored.Failed)
	assert.NotNil(t, stored.StartedAt)
	assert.NotNil(t, stored.CompletedAt)
	assert.Nil(t, stored.ErrorMessage)

	recent, err := repo.GetRecent(10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, batch.ID, recent[0].ID)
}

func TestBatchRepositoryMissingBatch(t *testing.T) {
	repo := NewBatchRepository(openTestDB(t))

	_, err := repo.GetByID("does-not-exist")

	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestClassificationRepositoryRoundTrip(t *testing.T) {
	db := openTestDB(t)
	batches := NewBatchRepository(db)
	repo := NewClassificationRepository(db)

	batch := models.NewBatch(2)
	require.NoError(t, batches.Create(batch))

	var features models.FeatureVector
	features[0] = 42
	confidence := 0.9
	bot := models.NewClassification(&batch.ID, &models.ClassificationResult{
		Login:       "octocat",
		Verdict:     &models.Verdict{Type: models.VerdictBot, Confidence: &confidence, Features: &features},
		QueriesUsed: 2,
	})
	require.NoError(t, repo.Create(bot))

	failed := models.NewClassification(&batch.ID, &models.ClassificationResult{
		Login:       "flaky",
		QueriesUsed: 1,
		Err:         errors.New("transport failure: boom"),
	})
	require.NoError(t, repo.Create(failed))

	stored, err := repo.GetLatestByLogin("OctoCat")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.NotNil(t, stored.Verdict)
	assert.Equal(t, models.VerdictBot, *stored.Verdict)
	require.NotNil(t, stored.Confidence)
	assert.Equal(t, 0.9, *stored.Confidence)
	require.NotNil(t, stored.Features)
	assert.Equal(t, 42.0, stored.Features.Get("NA"))
	assert.Equal(t, 2, stored.QueriesUsed)

	byBatch, err := repo.GetByBatchID(batch.ID)
	require.NoError(t, err)
	require.Len(t, byBatch, 2)
	assert.Nil(t, byBatch[1].Verdict)
	require.NotNil(t, byBatch[1].ErrorMessage)
	assert.Equal(t, "transport failure: boom", *byBatch[1].ErrorMessage)
}

func TestClassificationRepositoryLatestWins(t *testing.T) {
	repo := NewClassificationRepository(openTestDB(t))

	older := models.NewClassification(nil, &models.ClassificationResult{
		Login:   "octocat",
		Verdict: &models.Verdict{Type: models.VerdictUnknown},
	})
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, repo.Create(older))

	newer := models.NewClassification(nil, &models.ClassificationResult{
		Login:   "octocat",
		Verdict: &models.Verdict{Type: models.VerdictHuman},
	})
	require.NoError(t, repo.Create(newer))

	stored, err := repo.GetLatestByLogin("octocat")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, newer.ID, stored.ID)
	assert.Nil(t, stored.BatchID)

	missing, err := repo.GetLatestByLogin("nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestClassificationRepositoryStaleLogins(t *testing.T) {
	repo := NewClassificationRepository(openTestDB(t))
	now := time.Now().UTC()

	store := func(login string, age time.Duration) {
		c := models.NewClassification(nil, &models.ClassificationResult{
			Login:   login,
			Verdict: &models.Verdict{Type: models.VerdictHuman},
		})
		c.CreatedAt = now.Add(-age)
		require.NoError(t, repo.Create(c))
	}

	store("old", 72*time.Hour)
	store("older", 96*time.Hour)
	store("refreshed", 72*time.Hour)
	store("refreshed", time.Hour)
	store("fresh", time.Minute)

	stale, err := repo.GetStaleLogins(now.Add(-24*time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"older", "old"}, stale)

	limited, err := repo.GetStaleLogins(now.Add(-24*time.Hour), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"older"}, limited)
}
