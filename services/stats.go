package services

import (
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"logiclooper/models"
)

// RecalculateUserStats rebuilds the user's aggregates from the full
// daily_scores history. Always a full recompute: incremental patching
// would drift under out-of-order or backfilled submissions.
func RecalculateUserStats(db *gorm.DB, userID string) error {
	var scores []models.DailyScore
	if err := db.Where("user_id = ?", userID).Order("date ASC").Find(&scores).Error; err != nil {
		return err
	}

	stats := models.UserStats{UserID: userID}
	solvedDates := make(map[string]bool, len(scores))
	totalTime := 0
	for _, s := range scores {
		stats.TotalPoints += s.Score
		stats.TotalSolved++
		totalTime += s.TimeTaken
		if s.Score >= 100 {
			stats.PerfectDays++
		}
		solvedDates[s.Date] = true
		if s.Date > stats.LastPlayed {
			stats.LastPlayed = s.Date
		}
	}
	if stats.TotalSolved > 0 {
		stats.AvgSolveTime = totalTime / stats.TotalSolved
	}
	stats.StreakCount = currentStreak(solvedDates, time.Now().UTC())

	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_points", "total_solved", "streak_count",
			"avg_solve_time", "perfect_days", "last_played", "updated_at",
		}),
	}).Create(&stats).Error; err != nil {
		return err
	}

	// Mirror the headline numbers onto the user row for cheap reads.
	if err := db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"total_points": stats.TotalPoints,
		"streak_count": stats.StreakCount,
	}).Error; err != nil {
		log.Printf("Failed to mirror stats onto user %s: %v", userID, err)
	}
	return nil
}

// currentStreak counts consecutive solved dates walking backward from
// today. The walk starts at today, so a run that stopped yesterday
// reports zero until the user solves again.
func currentStreak(solvedDates map[string]bool, now time.Time) int {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	streak := 0
	for solvedDates[day.Format("2006-01-02")] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}
