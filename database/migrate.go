// database/migrate.go - Database Migration Runner
package database

import (
	"log"

	"logiclooper/models"
)

// RunMigrations runs all database migrations
func RunMigrations() {
	db := GetDB()
	log.Println("🔄 Running database migrations...")

	if err := db.AutoMigrate(
		&models.User{},
		&models.DailyScore{},
		&models.UserAchievement{},
		&models.UserStats{},
	); err != nil {
		log.Fatalf("❌ Failed to run migrations: %v", err)
	}

	createIndexes()

	log.Println("✅ All migrations completed successfully")
}

// createIndexes creates query indexes beyond what the model tags declare
func createIndexes() {
	db := GetDB()
	log.Println("Creating indexes...")

	// User indexes
	db.Exec("CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_users_guest ON users(is_guest)")

	// Daily score indexes; the leaderboard reads by date ordered on score
	db.Exec("CREATE INDEX IF NOT EXISTS idx_daily_scores_user ON daily_scores(user_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_daily_scores_date_score ON daily_scores(date, score DESC, time_taken ASC)")

	// Achievement indexes
	db.Exec("CREATE INDEX IF NOT EXISTS idx_user_achievements_user ON user_achievements(user_id)")

	// Stats indexes
	db.Exec("CREATE INDEX IF NOT EXISTS idx_user_stats_user ON user_stats(user_id)")

	log.Println("✅ Indexes created successfully")
}
