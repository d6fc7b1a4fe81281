package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alimgiray/botscope/internal/classifier"
	"github.com/alimgiray/botscope/internal/handlers"
	"github.com/alimgiray/botscope/internal/metrics"
	"github.com/alimgiray/botscope/internal/predictor"
	"github.com/alimgiray/botscope/internal/repositories"
	"github.com/alimgiray/botscope/internal/services"
	"github.com/alimgiray/botscope/pkg/config"
	"github.com/alimgiray/botscope/pkg/database"
	"github.com/alimgiray/botscope/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	logger.Init()

	// Load configuration
	if err := config.Load(); err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	cfg := config.AppConfig
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}
	gin.SetMode(cfg.Server.Mode)

	// The model is required for every classification
	model, err := predictor.LoadFile(cfg.Model.Path)
	if err != nil {
		logger.Fatalf("Failed to load model %s: %v", cfg.Model.Path, err)
	}
	logger.Infof("Loaded model %s", model.Name())

	// Initialize database
	if err := database.Init(cfg.Database.Path); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	github, err := services.NewGitHubService(cfg.GitHub)
	if err != nil {
		logger.Fatalf("Failed to create GitHub client: %v", err)
	}
	if cfg.GitHub.Token == "" {
		logger.GetLogger().Warn("GITHUB_TOKEN is not set, GitHub allows 60 requests per hour")
	}

	budget := classifier.NewQueryBudget(cfg.Budget.RatePerHour, cfg.Budget.Burst, cfg.Budget.Limit)
	orchestrator, err := classifier.NewOrchestrator(github, github, model, budget, classifier.OptionsFromConfig(cfg.Classifier))
	if err != nil {
		logger.Fatalf("Invalid classifier options: %v", err)
	}

	collector, err := metrics.NewCollector()
	if err != nil {
		logger.Fatalf("Failed to register metrics: %v", err)
	}

	classificationRepo := repositories.NewClassificationRepository(database.DB)
	classificationService := services.NewClassificationService(
		orchestrator,
		cfg.Workers.Classify,
		repositories.NewBatchRepository(database.DB),
		classificationRepo,
		collector,
	)

	// Re-classify stale contributors in the background
	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	services.NewSchedulerService(classificationRepo, classificationService, cfg.Refresh).StartScheduler(schedulerCtx)

	router := handlers.NewRouter(
		handlers.NewClassificationHandler(classificationService, cfg.Server.MaxBatchSize),
		handlers.NewHealthHandler(model.Name()),
		collector,
		cfg.Server.APIToken,
	)

	// Setup server
	server := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     router,
		ReadTimeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		logger.Infof("Server starting on :%s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopScheduler()
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.WriteTimeout)*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}
	logger.Info("Server stopped")
}
