package services

import (
	"context"
	"time"

	"github.com/alimgiray/botscope/internal/repositories"
	"github.com/alimgiray/botscope/pkg/config"
	"github.com/alimgiray/botscope/pkg/logger"
	"github.com/sirupsen/logrus"
)

// SchedulerService re-classifies stored contributors whose latest outcome
// has gone stale
type SchedulerService struct {
	classificationRepo    *repositories.ClassificationRepository
	classificationService *ClassificationService
	cfg                   config.RefreshConfig
	now                   func() time.Time
}

func NewSchedulerService(
	classificationRepo *repositories.ClassificationRepository,
	classificationService *ClassificationService,
	cfg config.RefreshConfig,
) *SchedulerService {
	return &SchedulerService{
		classificationRepo:    classificationRepo,
		classificationService: classificationService,
		cfg:                   cfg,
		now:                   time.Now,
	}
}

// StartScheduler runs a refresh every interval until ctx is done. It does
// nothing when the interval is zero.
func (s *SchedulerService) StartScheduler(ctx context.Context) {
	if s.cfg.Interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.RefreshStale(ctx); err != nil && ctx.Err() == nil {
					logger.WithError(err).Error("Scheduled refresh failed")
				}
			}
		}
	}()
}

// RefreshStale classifies up to BatchSize contributors whose latest outcome
// is older than MaxAge and returns how many were picked up
func (s *SchedulerService) RefreshStale(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.cfg.MaxAge)
	logins, err := s.classificationRepo.GetStaleLogins(cutoff, s.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(logins) == 0 {
		logger.GetLogger().Debug("No stale classifications to refresh")
		return 0, nil
	}

	batch, _, err := s.classificationService.Run(ctx, logins, false, nil)
	if err != nil {
		return len(logins), err
	}

	logger.WithFields(logrus.Fields{
		"batch_id":     batch.ID,
		"contributors": len(logins),
	}).Info("Refreshed stale classifications")
	return len(logins), nil
}
