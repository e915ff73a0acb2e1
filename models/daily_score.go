// models/daily_score.go
package models

import "time"

// DailyScore is one user's best accepted result for one puzzle date.
// Exactly one row per (user, date); the sync merge updates in place when
// a better result arrives.
type DailyScore struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	UserID     string `gorm:"not null;uniqueIndex:idx_user_date" json:"user_id"`
	Date       string `gorm:"not null;uniqueIndex:idx_user_date;index" json:"date"` // YYYY-MM-DD
	Score      int    `gorm:"not null" json:"score"`
	TimeTaken  int    `gorm:"not null" json:"time_taken"` // milliseconds
	TimedBonus int    `gorm:"default:0" json:"timed_bonus"`
	PuzzleID   string `json:"puzzle_id"`
	Solved     bool   `gorm:"default:true" json:"solved"`
	Synced     bool   `gorm:"default:true" json:"synced"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (DailyScore) TableName() string {
	return "daily_scores"
}

// BetterThan reports whether this result should replace existing. Higher
// score wins; on equal score the faster solve wins. A nil existing row
// always loses.
func (d *DailyScore) BetterThan(existing *DailyScore) bool {
	if existing == nil {
		return true
	}
	if d.Score != existing.Score {
		return d.Score > existing.Score
	}
	return d.TimeTaken < existing.TimeTaken
}
