// models/user_stats.go
package models

import "time"

// UserStats is the fully recomputed aggregate over a user's daily scores.
// Never incremented in place: the stats service rebuilds every field from
// the daily_scores table after each ingestion.
type UserStats struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	UserID       string `gorm:"not null;uniqueIndex" json:"user_id"`
	TotalPoints  int    `gorm:"default:0" json:"total_points"`
	TotalSolved  int    `gorm:"default:0" json:"total_solved"`
	StreakCount  int    `gorm:"default:0" json:"streak_count"`
	AvgSolveTime int    `gorm:"default:0" json:"avg_solve_time"` // milliseconds
	PerfectDays  int    `gorm:"default:0" json:"perfect_days"`   // score >= 100
	LastPlayed   string `json:"last_played"`                     // YYYY-MM-DD, latest scored date

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (UserStats) TableName() string {
	return "user_stats"
}
