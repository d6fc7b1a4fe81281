package handlers

import (
	"github.com/alimgiray/botscope/internal/metrics"
	"github.com/alimgiray/botscope/internal/middleware"
	"github.com/gin-gonic/gin"
)

// NewRouter wires the API routes. collector may be nil.
func NewRouter(classificationHandler *ClassificationHandler, healthHandler *HealthHandler, collector *metrics.Collector, apiToken string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())
	if collector != nil {
		router.Use(collector.GinMiddleware())
		router.GET("/metrics", gin.WrapH(collector.Handler()))
	}

	router.GET("/health", healthHandler.Health)

	api := router.Group("/api")
	api.Use(middleware.TokenRequired(apiToken))
	{
		api.POST("/classifications", classificationHandler.Classify)
		api.GET("/classifications/:login", classificationHandler.GetLatest)
		api.GET("/batches/:id", classificationHandler.GetBatch)
	}

	router.NoRoute(NewNotFoundHandler().NotFound)

	return router
}
