// models/achievement.go
package models

import "time"

// UserAchievement records one unlocked achievement per user. AchievementID
// is the catalog slug (first_solve, milestone_7, ...); unlocks are
// create-once, re-uploads are ignored.
type UserAchievement struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        string    `gorm:"not null;uniqueIndex:idx_user_achievement" json:"user_id"`
	AchievementID string    `gorm:"not null;uniqueIndex:idx_user_achievement" json:"achievement_id"`
	Name          string    `json:"name"`
	UnlockedAt    time.Time `json:"unlocked_at"`

	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (UserAchievement) TableName() string {
	return "user_achievements"
}
