package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alimgiray/botscope/internal/classifier"
	"github.com/alimgiray/botscope/internal/metrics"
	"github.com/alimgiray/botscope/internal/models"
	"github.com/alimgiray/botscope/internal/predictor"
	"github.com/alimgiray/botscope/internal/repositories"
	"github.com/alimgiray/botscope/internal/services"
	"github.com/alimgiray/botscope/pkg/database"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct{}

func (stubSource) Resolve(ctx context.Context, login string) (models.AccountMetadata, error) {
	switch login {
	case "octocat":
		return models.AccountMetadata{Login: login, Exists: true, Type: models.AccountTypeUser}, nil
	case "github":
		return models.AccountMetadata{Login: login, Exists: true, Type: models.AccountTypeOrganization}, nil
	}
	return models.AccountMetadata{Login: login}, nil
}

func (stubSource) FetchNextBatch(ctx context.Context, login string, cursor int) (models.EventBatch, error) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	events := make([]models.RawEvent, 6)
	for i := range events {
		events[i] = models.RawEvent{Type: "WatchEvent", ActorLogin: login, RepoID: int64(i), RepoName: "octo/app", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
	}
	return models.EventBatch{Events: events, NextCursor: 2, Exhausted: true}, nil
}

type botPredictor struct{}

func (botPredictor) Predict(v models.FeatureVector) models.PredictionResult {
	return predictor.Evaluate(0.95)
}

func newTestRouter(t *testing.T, token string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(filepath.Join(t.TempDir(), "botscope.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	o, err := classifier.NewOrchestrator(stubSource{}, stubSource{}, botPredictor{}, nil, classifier.DefaultOptions())
	require.NoError(t, err)

	collector, err := metrics.NewCollector()
	require.NoError(t, err)

	service := services.NewClassificationService(o, 2,
		repositories.NewBatchRepository(db),
		repositories.NewClassificationRepository(db),
		collector,
	)

	return NewRouter(NewClassificationHandler(service, 3), NewHealthHandler("test@1"), collector, token)
}

func doJSON(router *gin.Engine, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type classifyResponse struct {
	Batch   models.Batch     `json:"batch"`
	Results []ResultResponse `json:"results"`
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, "")

	w := doJSON(router, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"model":"test@1"`)
}

func TestClassifyAndLookup(t *testing.T) {
	router := newTestRouter(t, "")

	w := doJSON(router, http.MethodPost, "/api/classifications", ClassifyRequest{
		Logins:          []string{"octocat", "github", "nobody"},
		IncludeFeatures: true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp classifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.BatchStatusCompleted, resp.Batch.Status)
	require.Len(t, resp.Results, 3)

	assert.Equal(t, "octocat", resp.Results[0].Contributor)
	require.NotNil(t, resp.Results[0].Type)
	assert.Equal(t, models.VerdictBot, *resp.Results[0].Type)
	require.NotNil(t, resp.Results[0].Confidence)
	assert.Equal(t, 0.9, *resp.Results[0].Confidence)
	require.NotNil(t, resp.Results[0].Features)
	assert.Equal(t, 6.0, resp.Results[0].Features.Get("NA"))
	assert.Equal(t, models.VerdictOrganization, *resp.Results[1].Type)
	assert.Equal(t, models.VerdictInvalid, *resp.Results[2].Type)

	w = doJSON(router, http.MethodGet, "/api/classifications/octocat", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stored models.Classification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stored))
	assert.Equal(t, models.VerdictBot, *stored.Verdict)

	w = doJSON(router, http.MethodGet, "/api/batches/"+resp.Batch.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"completed"`)

	w = doJSON(router, http.MethodGet, "/metrics", nil)
	assert.Contains(t, w.Body.String(), `botscope_classifier_verdicts_total{type="Bot"} 1`)
}

func TestClassifyRejectsBadRequests(t *testing.T) {
	router := newTestRouter(t, "")

	testCases := []struct {
		name string
		body interface{}
	}{
		{"missing logins", map[string]interface{}{}},
		{"blank logins", ClassifyRequest{Logins: []string{" ", ""}}},
		{"too many logins", ClassifyRequest{Logins: []string{"a", "b", "c", "d"}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(router, http.MethodPost, "/api/classifications", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestLookupMissing(t *testing.T) {
	router := newTestRouter(t, "")

	assert.Equal(t, http.StatusNotFound, doJSON(router, http.MethodGet, "/api/classifications/nobody", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(router, http.MethodGet, "/api/batches/unknown", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(router, http.MethodGet, "/nowhere", nil).Code)
}

func TestAPIToken(t *testing.T) {
	router := newTestRouter(t, "secret")

	assert.Equal(t, http.StatusUnauthorized, doJSON(router, http.MethodGet, "/api/classifications/octocat", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(router, http.MethodGet, "/api/classifications/octocat", nil, "Authorization", "Bearer secret").Code)
	assert.Equal(t, http.StatusOK, doJSON(router, http.MethodGet, "/health", nil).Code)
}
