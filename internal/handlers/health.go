package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports liveness and the loaded model
type HealthHandler struct {
	model   string
	started time.Time
}

func NewHealthHandler(model string) *HealthHandler {
	return &HealthHandler{model: model, started: time.Now()}
}

// Health returns the service status
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"model":  h.model,
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}
