// handlers/sync.go

package handlers

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"logiclooper/database"
	"logiclooper/middleware"
	"logiclooper/models"
	"logiclooper/services"
	"logiclooper/syncproof"
	"logiclooper/utils"
)

const (
	maxScoreBatch       = 60
	maxAchievementBatch = 120

	minScore     = 10
	maxScore     = 120
	minTimeTaken = 1000
	maxTimeTaken = 7200000
	maxBonus     = 25

	oldestAcceptedDays = 400
)

// Wire shapes decode numbers as float64 so a fractional score can be
// rejected instead of silently truncated.
type scoreEntryWire struct {
	Date       string   `json:"date"`
	Score      *float64 `json:"score"`
	TimeTaken  *float64 `json:"timeTaken"`
	TimedBonus *float64 `json:"timedBonus"`
	Proof      string   `json:"proof"`
}

type syncScoresRequest struct {
	Entries []scoreEntryWire `json:"entries"`
}

type achievementWire struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	UnlockedAt string `json:"unlockedAt"`
}

type syncAchievementsRequest struct {
	Achievements []achievementWire `json:"achievements"`
}

type validatedEntry struct {
	Date       string
	Score      int
	TimeTaken  int
	TimedBonus int
	Proof      string
}

var achievementIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,100}$`)

// SyncDailyScores ingests a batch of daily results from one device.
// Validation is all-or-nothing: one bad entry rejects the whole batch so
// the client's queue semantics stay simple. Proof and replay checks are
// per entry and silent, they shape the counters, not the status code.
func SyncDailyScores(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return utils.SendError(c, 401, utils.CodeUnauthorized, "User not authenticated")
	}
	token := bearerToken(c)
	if token == "" {
		return utils.SendError(c, 401, utils.CodeUnauthorized, "Missing bearer token")
	}

	var req syncScoresRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, 400, utils.CodeBadRequest, "Invalid request body")
	}
	if len(req.Entries) == 0 {
		return utils.SendSuccess(c, fiber.Map{
			"synced": 0, "created": 0, "updated": 0,
			"skippedWorseOrDuplicate": 0, "rejectedReplay": 0,
		})
	}
	if len(req.Entries) > maxScoreBatch {
		return utils.SendError(c, 413, utils.CodePayloadTooLarge, "Too many entries in one batch")
	}

	now := time.Now().UTC()
	entries := make([]validatedEntry, 0, len(req.Entries))
	for _, wire := range req.Entries {
		entry, msg := validateScoreEntry(wire, now)
		if msg != "" {
			return utils.SendError(c, 400, utils.CodeBadRequest, msg)
		}
		entries = append(entries, entry)
	}

	// Proof is the authorization gate. An entry without a valid proof for
	// this token is dropped without a trace in counters, and drops before
	// dedupe so a forged best entry cannot shadow an honest worse one on
	// the same date.
	proven := entries[:0]
	for _, entry := range entries {
		if syncproof.Verify(syncproof.DailyScoreEntry{
			Date:       entry.Date,
			Score:      entry.Score,
			TimeTaken:  entry.TimeTaken,
			TimedBonus: entry.TimedBonus,
		}, token, entry.Proof) {
			proven = append(proven, entry)
		}
	}

	// Collapse same-date entries to the single best one before touching
	// the database.
	bestByDate := make(map[string]validatedEntry)
	for _, entry := range proven {
		existing, ok := bestByDate[entry.Date]
		if !ok || betterEntry(entry.Score, entry.TimeTaken, existing.Score, existing.TimeTaken) {
			bestByDate[entry.Date] = entry
		}
	}

	db := database.GetDB()
	guard := services.GetReplayGuard()
	cache := services.GetLeaderboardCache()

	synced, created, updated, skipped, replayed := 0, 0, 0, 0, 0
	merged := false
	for _, entry := range bestByDate {
		if guard.Seen(userID, entry.Proof) {
			replayed++
			continue
		}
		guard.Remember(userID, entry.Proof)

		incoming := models.DailyScore{
			UserID:     userID,
			Date:       entry.Date,
			Score:      entry.Score,
			TimeTaken:  entry.TimeTaken,
			TimedBonus: entry.TimedBonus,
			PuzzleID:   "puzzle-" + entry.Date,
			Solved:     true,
			Synced:     true,
		}

		var existing models.DailyScore
		findErr := db.Where("user_id = ? AND date = ?", userID, entry.Date).First(&existing).Error
		if findErr != nil {
			if cerr := db.Create(&incoming).Error; cerr != nil {
				return utils.SendError(c, 500, utils.CodeInternalError, "Failed to store score")
			}
			created++
		} else if incoming.BetterThan(&existing) {
			if uerr := db.Model(&existing).Updates(map[string]interface{}{
				"score":       incoming.Score,
				"time_taken":  incoming.TimeTaken,
				"timed_bonus": incoming.TimedBonus,
			}).Error; uerr != nil {
				return utils.SendError(c, 500, utils.CodeInternalError, "Failed to store score")
			}
			updated++
		} else {
			skipped++
			continue
		}
		synced++
		merged = true
		cache.Invalidate(entry.Date)
	}

	if merged {
		if err := services.RecalculateUserStats(db, userID); err != nil {
			return utils.SendError(c, 500, utils.CodeInternalError, "Failed to update stats")
		}
		// Nudge the user's other devices to pull the merged state.
		services.GetSyncSignalHub().Broadcast(userID, nil)
	}

	return utils.SendSuccess(c, fiber.Map{
		"synced":                  synced,
		"created":                 created,
		"updated":                 updated,
		"skippedWorseOrDuplicate": skipped,
		"rejectedReplay":          replayed,
	})
}

// SyncAchievements ingests unlocked achievements. Unlocks are upserts per
// (user, achievement id); re-uploads are counted but change nothing.
func SyncAchievements(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return utils.SendError(c, 401, utils.CodeUnauthorized, "User not authenticated")
	}

	var req syncAchievementsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, 400, utils.CodeBadRequest, "Invalid request body")
	}
	if len(req.Achievements) > maxAchievementBatch {
		return utils.SendError(c, 413, utils.CodePayloadTooLarge, "Too many achievements in one batch")
	}

	now := time.Now().UTC()
	type validated struct {
		id         string
		name       string
		unlockedAt time.Time
	}
	items := make([]validated, 0, len(req.Achievements))
	for _, wire := range req.Achievements {
		if !achievementIDPattern.MatchString(wire.ID) {
			return utils.SendError(c, 400, utils.CodeBadRequest, "Invalid achievement id")
		}
		if len(wire.Name) == 0 || len(wire.Name) > 120 {
			return utils.SendError(c, 400, utils.CodeBadRequest, "Achievement name must be 1 to 120 characters")
		}
		unlockedAt, perr := parseUnlockedAt(wire.UnlockedAt)
		if perr != nil {
			return utils.SendError(c, 400, utils.CodeBadRequest, "Invalid unlockedAt timestamp")
		}
		if unlockedAt.After(now.Add(5 * time.Minute)) {
			return utils.SendError(c, 400, utils.CodeBadRequest, "unlockedAt is in the future")
		}
		items = append(items, validated{id: wire.ID, name: wire.Name, unlockedAt: unlockedAt})
	}

	db := database.GetDB()
	synced := 0
	for _, item := range items {
		var existing models.UserAchievement
		findErr := db.Where("user_id = ? AND achievement_id = ?", userID, item.id).First(&existing).Error
		if findErr == nil {
			synced++
			continue
		}
		record := models.UserAchievement{
			UserID:        userID,
			AchievementID: item.id,
			Name:          item.name,
			UnlockedAt:    item.unlockedAt,
		}
		if cerr := db.Create(&record).Error; cerr != nil {
			return utils.SendError(c, 500, utils.CodeInternalError, "Failed to store achievement")
		}
		synced++
	}

	if err := services.RecalculateUserStats(db, userID); err != nil {
		return utils.SendError(c, 500, utils.CodeInternalError, "Failed to update stats")
	}

	return utils.SendSuccess(c, fiber.Map{"synced": synced})
}

func bearerToken(c *fiber.Ctx) string {
	parts := strings.Split(c.Get("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

func validateScoreEntry(wire scoreEntryWire, now time.Time) (validatedEntry, string) {
	var entry validatedEntry

	parsed, err := time.Parse("2006-01-02", wire.Date)
	if err != nil || parsed.Format("2006-01-02") != wire.Date {
		return entry, "Invalid date format, expected YYYY-MM-DD"
	}
	oldest := now.AddDate(0, 0, -oldestAcceptedDays)
	newest := now.AddDate(0, 0, 1)
	if parsed.Before(time.Date(oldest.Year(), oldest.Month(), oldest.Day(), 0, 0, 0, 0, time.UTC)) ||
		parsed.After(newest) {
		return entry, "Date outside the accepted window"
	}

	score, ok := asInt(wire.Score)
	if !ok || score < minScore || score > maxScore {
		return entry, "Score must be an integer between 10 and 120"
	}
	timeTaken, ok := asInt(wire.TimeTaken)
	if !ok || timeTaken < minTimeTaken || timeTaken > maxTimeTaken {
		return entry, "timeTaken must be an integer between 1000 and 7200000"
	}
	bonus := 0
	if wire.TimedBonus != nil {
		bonus, ok = asInt(wire.TimedBonus)
		if !ok || bonus < 0 || bonus > maxBonus {
			return entry, "timedBonus must be an integer between 0 and 25"
		}
	}

	// Plausibility: a high score with a slow solve contradicts the
	// scoring formula, so the pair cannot both be honest.
	if score >= 100 && timeTaken > 240000 {
		return entry, "Score is implausible for the reported time"
	}
	if score >= 110 && timeTaken > 90000 {
		return entry, "Score is implausible for the reported time"
	}
	if score > maxInt(minScore, maxScore-timeTaken/1000+bonus) {
		return entry, "Score exceeds what the reported time allows"
	}

	entry = validatedEntry{
		Date:       wire.Date,
		Score:      score,
		TimeTaken:  timeTaken,
		TimedBonus: bonus,
		Proof:      wire.Proof,
	}
	return entry, ""
}

func parseUnlockedAt(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", raw)
}

func asInt(v *float64) (int, bool) {
	if v == nil {
		return 0, false
	}
	if *v != math.Trunc(*v) {
		return 0, false
	}
	return int(*v), true
}

func betterEntry(score, timeTaken, existingScore, existingTime int) bool {
	if score != existingScore {
		return score > existingScore
	}
	return timeTaken < existingTime
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
