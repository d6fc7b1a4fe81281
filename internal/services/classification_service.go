package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alimgiray/botscope/internal/classifier"
	"github.com/alimgiray/botscope/internal/metrics"
	"github.com/alimgiray/botscope/internal/models"
	"github.com/alimgiray/botscope/internal/repositories"
	"github.com/alimgiray/botscope/internal/workers"
	"github.com/alimgiray/botscope/pkg/logger"
	"github.com/sirupsen/logrus"
)

// ErrPersistenceDisabled is returned by lookups when no database is configured
var ErrPersistenceDisabled = errors.New("persistence is disabled")

// ClassificationService runs classification batches and keeps their outcomes
type ClassificationService struct {
	orchestrator       *classifier.Orchestrator
	workers            int
	batchRepo          *repositories.BatchRepository
	classificationRepo *repositories.ClassificationRepository
	metrics            *metrics.Collector
}

// NewClassificationService creates a new classification service. The
// repositories and the collector are optional.
func NewClassificationService(
	orchestrator *classifier.Orchestrator,
	workers int,
	batchRepo *repositories.BatchRepository,
	classificationRepo *repositories.ClassificationRepository,
	collector *metrics.Collector,
) *ClassificationService {
	return &ClassificationService{
		orchestrator:       orchestrator,
		workers:            workers,
		batchRepo:          batchRepo,
		classificationRepo: classificationRepo,
		metrics:            collector,
	}
}

// CleanLogins trims logins and drops empty entries, keeping order and duplicates
func CleanLogins(logins []string) []string {
	cleaned := make([]string, 0, len(logins))
	for _, login := range logins {
		if login = strings.TrimSpace(login); login != "" {
			cleaned = append(cleaned, login)
		}
	}
	return cleaned
}

// Run classifies logins as one batch. onResult, if set, sees each outcome as
// soon as it is known. Results come back in input order; when ctx is
// cancelled the unfinished contributors have nil entries.
func (s *ClassificationService) Run(ctx context.Context, logins []string, includeFeatures bool, onResult workers.ResultFunc) (*models.Batch, []*models.ClassificationResult, error) {
	logins = CleanLogins(logins)
	if len(logins) == 0 {
		return nil, nil, fmt.Errorf("no contributors to classify")
	}

	batch := models.NewBatch(len(logins))
	if s.batchRepo != nil {
		if err := s.batchRepo.Create(batch); err != nil {
			return nil, nil, fmt.Errorf("failed to create batch: %w", err)
		}
	}

	batch.MarkStarted()
	s.saveBatch(batch)

	log := logger.WithFields(logrus.Fields{"batch_id": batch.ID, "contributors": len(logins)})
	log.Info("Batch started")

	o := s.orchestrator
	if includeFeatures != o.Options().IncludeFeatures {
		o = o.WithIncludeFeatures(includeFeatures)
	}
	manager := workers.NewBatchManager(o, s.workers)

	results, err := manager.Run(ctx, logins, func(index int, result *models.ClassificationResult) {
		s.record(batch, result)
		if onResult != nil {
			onResult(index, result)
		}
	})

	batch.MarkFinished(err != nil)
	s.saveBatch(batch)

	log.WithFields(logrus.Fields{
		"status":    batch.Status,
		"completed": batch.Completed,
		"failed":    batch.Failed,
	}).Info("Batch finished")

	return batch, results, err
}

func (s *ClassificationService) record(batch *models.Batch, result *models.ClassificationResult) {
	batch.Record(result.Failed())

	if s.metrics != nil {
		s.metrics.ObserveResult(result)
	}

	if s.classificationRepo != nil {
		if err := s.classificationRepo.Create(models.NewClassification(&batch.ID, result)); err != nil {
			logger.WithField("login", result.Login).WithError(err).Error("Failed to store classification")
		}
	}
	s.saveBatch(batch)
}

func (s *ClassificationService) saveBatch(batch *models.Batch) {
	if s.batchRepo == nil {
		return
	}
	if err := s.batchRepo.Update(batch); err != nil {
		logger.WithField("batch_id", batch.ID).WithError(err).Error("Failed to update batch")
	}
}

// GetLatest returns the most recent stored outcome for login, or nil
func (s *ClassificationService) GetLatest(login string) (*models.Classification, error) {
	if s.classificationRepo == nil {
		return nil, ErrPersistenceDisabled
	}
	return s.classificationRepo.GetLatestByLogin(strings.TrimSpace(login))
}

// GetBatch returns a stored batch with its outcomes
func (s *ClassificationService) GetBatch(id string) (*models.Batch, []*models.Classification, error) {
	if s.batchRepo == nil || s.classificationRepo == nil {
		return nil, nil, ErrPersistenceDisabled
	}
	batch, err := s.batchRepo.GetByID(id)
	if err != nil {
		return nil, nil, err
	}
	classifications, err := s.classificationRepo.GetByBatchID(id)
	if err != nil {
		return nil, nil, err
	}
	return batch, classifications, nil
}
