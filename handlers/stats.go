package handlers

import (
	"github.com/gofiber/fiber/v2"

	"logiclooper/database"
	"logiclooper/middleware"
	"logiclooper/models"
	"logiclooper/utils"
)

// UserStats returns the caller's persisted aggregates. A user who has
// never synced a score gets zeros, not a 404.
func UserStats(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return utils.SendError(c, 401, utils.CodeUnauthorized, "User not authenticated")
	}

	db := database.GetDB()

	var stats models.UserStats
	if err := db.Where("user_id = ?", userID).First(&stats).Error; err != nil {
		stats = models.UserStats{UserID: userID}
	}

	var achievements []models.UserAchievement
	if err := db.Where("user_id = ?", userID).Order("unlocked_at ASC").Find(&achievements).Error; err != nil {
		return utils.SendError(c, 500, utils.CodeInternalError, "Failed to load achievements")
	}

	return utils.SendSuccess(c, fiber.Map{
		"stats": fiber.Map{
			"totalPoints":  stats.TotalPoints,
			"totalSolved":  stats.TotalSolved,
			"streakCount":  stats.StreakCount,
			"avgSolveTime": stats.AvgSolveTime,
			"perfectDays":  stats.PerfectDays,
			"lastPlayed":   stats.LastPlayed,
		},
		"achievements": achievements,
	})
}
