// models/user.go
package models

import (
	"time"
)

type User struct {
	ID       string  `gorm:"primaryKey" json:"id"`
	Email    *string `gorm:"uniqueIndex" json:"email,omitempty"`
	Phone    *string `gorm:"uniqueIndex" json:"phone,omitempty"`
	Name     string  `json:"name"`
	Password string  `gorm:"not null" json:"-"`
	AuthType string  `gorm:"default:guest" json:"auth_type"` // guest, phone
	IsGuest  bool    `gorm:"default:true" json:"is_guest"`

	// Denormalized headline stats, kept current by the stats recompute.
	TotalPoints int        `gorm:"default:0" json:"total_points"`
	StreakCount int        `gorm:"default:0" json:"streak_count"`
	LastPlayed  *time.Time `json:"last_played,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	LastLogin time.Time `json:"last_login"`

	// Relationships
	DailyScores  []DailyScore      `gorm:"foreignKey:UserID" json:"daily_scores,omitempty"`
	Achievements []UserAchievement `gorm:"foreignKey:UserID" json:"achievements,omitempty"`
}

func (User) TableName() string {
	return "users"
}
