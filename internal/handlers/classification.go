package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/alimgiray/botscope/internal/models"
	"github.com/alimgiray/botscope/internal/services"
	"github.com/gin-gonic/gin"
)

type ClassificationHandler struct {
	classificationService *services.ClassificationService
	maxBatchSize          int
}

func NewClassificationHandler(classificationService *services.ClassificationService, maxBatchSize int) *ClassificationHandler {
	return &ClassificationHandler{
		classificationService: classificationService,
		maxBatchSize:          maxBatchSize,
	}
}

// ClassifyRequest is the body of a classification request
type ClassifyRequest struct {
	Logins          []string `json:"logins" binding:"required"`
	IncludeFeatures bool     `json:"include_features"`
}

// ResultResponse is one contributor's outcome
type ResultResponse struct {
	Contributor string                `json:"contributor"`
	Type        *models.VerdictType   `json:"type,omitempty"`
	Confidence  *float64              `json:"confidence,omitempty"`
	QueriesUsed int                   `json:"queries_used"`
	Features    *models.FeatureVector `json:"features,omitempty"`
	Error       string                `json:"error,omitempty"`
}

func newResultResponse(r *models.ClassificationResult) ResultResponse {
	resp := ResultResponse{
		Contributor: r.Login,
		QueriesUsed: r.QueriesUsed,
		Error:       r.ErrorMessage(),
	}
	if r.Verdict != nil {
		t := r.Verdict.Type
		resp.Type = &t
		resp.Confidence = r.Verdict.Confidence
		resp.Features = r.Verdict.Features
	}
	return resp
}

// Classify runs a batch for the requested logins and returns every outcome
func (h *ClassificationHandler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	logins := services.CleanLogins(req.Logins)
	if len(logins) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one login is required"})
		return
	}
	if h.maxBatchSize > 0 && len(logins) > h.maxBatchSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("At most %d logins per request", h.maxBatchSize)})
		return
	}

	batch, results, err := h.classificationService.Run(c.Request.Context(), logins, req.IncludeFeatures, nil)
	if batch == nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start classification: " + err.Error()})
		return
	}

	responses := make([]ResultResponse, 0, len(results))
	for _, r := range results {
		if r != nil {
			responses = append(responses, newResultResponse(r))
		}
	}

	status := http.StatusOK
	if err != nil {
		c.Error(err)
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"batch":   batch,
		"results": responses,
	})
}

// GetLatest returns the most recent stored outcome for a login
func (h *ClassificationHandler) GetLatest(c *gin.Context) {
	login := c.Param("login")

	classification, err := h.classificationService.GetLatest(login)
	if err != nil {
		h.storeError(c, err)
		return
	}
	if classification == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No classification found for " + login})
		return
	}

	c.JSON(http.StatusOK, classification)
}

// GetBatch returns a batch's status and stored outcomes
func (h *ClassificationHandler) GetBatch(c *gin.Context) {
	id := c.Param("id")

	batch, classifications, err := h.classificationService.GetBatch(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Batch not found"})
			return
		}
		h.storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"batch":           batch,
		"classifications": classifications,
	})
}

func (h *ClassificationHandler) storeError(c *gin.Context, err error) {
	c.Error(err)
	if errors.Is(err, services.ErrPersistenceDisabled) {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Classification history is not stored"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read classifications"})
}
