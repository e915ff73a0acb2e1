package services

import (
	"log"
	"time"

	"logiclooper/database"
	"logiclooper/models"
)

// scoreRetentionDays matches the oldest date the sync endpoint accepts,
// so the sweep never removes a row a client could still resubmit.
const scoreRetentionDays = 400

// CleanupService handles background cleanup tasks
type CleanupService struct {
	interval time.Duration
	stop     chan struct{}
}

var cleanupService *CleanupService

// InitCleanupService initializes the singleton cleanup service.
func InitCleanupService() {
	cleanupService = &CleanupService{
		interval: time.Hour,
		stop:     make(chan struct{}),
	}
}

// GetCleanupService returns the initialized cleanup service.
func GetCleanupService() *CleanupService {
	return cleanupService
}

// Start starts the background cleanup loop.
func (s *CleanupService) Start() {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runOnce()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop stops the cleanup loop.
func (s *CleanupService) Stop() {
	close(s.stop)
}

func (s *CleanupService) runOnce() {
	if removed := GetReplayGuard().Expire(); removed > 0 {
		log.Printf("Expired %d replay-guard entries", removed)
	}
	if err := s.SweepOldScores(); err != nil {
		log.Printf("Score retention sweep failed: %v", err)
	}
}

// SweepOldScores deletes daily scores older than the retention window.
func (s *CleanupService) SweepOldScores() error {
	db := database.GetDB()
	if db == nil {
		return nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -scoreRetentionDays).Format("2006-01-02")
	result := db.Where("date < ?", cutoff).Delete(&models.DailyScore{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		log.Printf("✅ Swept %d daily scores older than %s", result.RowsAffected, cutoff)
	}
	return nil
}
