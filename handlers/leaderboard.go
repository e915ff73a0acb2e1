// handlers/leaderboard.go

package handlers

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"

	"logiclooper/database"
	"logiclooper/models"
	"logiclooper/services"
	"logiclooper/utils"
)

const leaderboardSize = 100

type leaderboardRow struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
	TimeTaken   int    `json:"timeTaken"`
}

// DailyLeaderboard returns the top results for one puzzle date, served
// through the best-effort cache. A cache failure never fails the request.
func DailyLeaderboard(c *fiber.Ctx) error {
	date := c.Query("date")
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}

	parsed, err := time.Parse("2006-01-02", date)
	if err != nil || parsed.Format("2006-01-02") != date {
		return utils.SendError(c, 400, utils.CodeBadRequest, "Invalid date format, expected YYYY-MM-DD")
	}
	now := time.Now().UTC()
	if parsed.Before(now.AddDate(0, 0, -365)) || parsed.After(now.AddDate(0, 0, 1)) {
		return utils.SendError(c, 400, utils.CodeBadRequest, "Date outside the accepted window")
	}

	cache := services.GetLeaderboardCache()
	if payload := cache.Get(c.Context(), date); payload != nil {
		var rows []leaderboardRow
		if err := json.Unmarshal(payload, &rows); err == nil {
			return utils.SendSuccess(c, fiber.Map{"date": date, "leaderboard": rows})
		}
	}

	db := database.GetDB()
	var scores []models.DailyScore
	if err := db.Preload("User").
		Where("date = ?", date).
		Order("score DESC, time_taken ASC").
		Limit(leaderboardSize).
		Find(&scores).Error; err != nil {
		return utils.SendError(c, 500, utils.CodeInternalError, "Failed to load leaderboard")
	}

	rows := make([]leaderboardRow, 0, len(scores))
	for i, s := range scores {
		name := s.User.Name
		if name == "" {
			name = "Player"
		}
		rows = append(rows, leaderboardRow{
			Rank:        i + 1,
			UserID:      s.UserID,
			DisplayName: name,
			Score:       s.Score,
			TimeTaken:   s.TimeTaken,
		})
	}

	if payload, err := json.Marshal(rows); err == nil {
		cache.Set(c.Context(), date, payload)
	}

	return utils.SendSuccess(c, fiber.Map{"date": date, "leaderboard": rows})
}
