package scheduler

import (
	"time"

	"github.com/avyhea/avyhea-backend/internal/app/repository"
	"github.com/avyhea/avyhea-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// staleCartAge is how long a cart may sit untouched before cleanup
// removes it. Adding or updating an item resets the clock.
const staleCartAge = 30 * 24 * time.Hour

// CleanupScheduler drops abandoned carts and expired password reset
// tokens on a daily schedule.
type CleanupScheduler struct {
	cron      *cron.Cron
	cartRepo  repository.CartRepository
	resetRepo repository.PasswordResetRepository
}

func NewCleanupScheduler(cartRepo repository.CartRepository, resetRepo repository.PasswordResetRepository) *CleanupScheduler {
	return &CleanupScheduler{
		cron:      cron.New(),
		cartRepo:  cartRepo,
		resetRepo: resetRepo,
	}
}

func (s *CleanupScheduler) Start() error {
	// Every day at 4 AM, remove carts untouched for 30 days and
	// reset tokens past their expiry
	_, err := s.cron.AddFunc("0 4 * * *", func() {
		logger.Info("Starting scheduled cleanup", nil)

		cutoff := time.Now().Add(-staleCartAge)
		carts, err := s.cartRepo.DeleteStale(cutoff)
		if err != nil {
			logger.Error("Failed to clean up stale carts", err)
		}

		resets, err := s.resetRepo.DeleteExpired()
		if err != nil {
			logger.Error("Failed to clean up expired password resets", err)
		}

		logger.Info("Cleanup finished", map[string]interface{}{
			"carts_deleted":  carts,
			"resets_deleted": resets,
		})
	})

	if err != nil {
		logger.Error("Failed to add cron job for cleanup", err)
		return err
	}

	s.cron.Start()
	logger.Info("Cleanup scheduler started (daily at 4:00 AM)", nil)

	return nil
}

func (s *CleanupScheduler) Stop() {
	logger.Info("Stopping cleanup scheduler...", nil)
	s.cron.Stop()
	logger.Info("Cleanup scheduler stopped", nil)
}
