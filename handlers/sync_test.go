package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"logiclooper/database"
	"logiclooper/middleware"
	"logiclooper/models"
	"logiclooper/services"
	"logiclooper/syncproof"
)

var handlerDBSeq int

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	handlerDBSeq++
	dsn := fmt.Sprintf("file:handlers_%d?mode=memory&cache=shared", handlerDBSeq)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.DailyScore{},
		&models.UserAchievement{},
		&models.UserStats{},
	))
	database.SetDB(db)
	t.Cleanup(func() { database.SetDB(nil) })

	services.InitReplayGuard(services.DefaultReplayTTL)
	services.InitLeaderboardCache()
	services.InitSyncSignalHub()

	app := fiber.New()
	api := app.Group("/api")
	api.Post("/auth/guest", GuestLogin)
	api.Post("/sync/daily-scores", middleware.AuthMiddleware, SyncDailyScores)
	api.Post("/sync/achievements", middleware.AuthMiddleware, SyncAchievements)
	api.Get("/leaderboard/daily", DailyLeaderboard)
	api.Get("/users/stats", middleware.AuthMiddleware, UserStats)
	return app
}

func createTestUser(t *testing.T, name string) (models.User, string) {
	t.Helper()
	user := models.User{
		ID:        uuid.New().String(),
		Name:      name,
		AuthType:  "guest",
		IsGuest:   true,
		CreatedAt: time.Now(),
	}
	require.NoError(t, database.GetDB().Create(&user).Error)

	token, err := generateToken(user)
	require.NoError(t, err)
	return user, token
}

func postJSON(t *testing.T, app *fiber.App, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	return resp, decoded
}

func provenEntry(token, date string, score, timeTaken, bonus int) map[string]any {
	proof := syncproof.BuildDailyScoreProof(syncproof.DailyScoreEntry{
		Date: date, Score: score, TimeTaken: timeTaken, TimedBonus: bonus,
	}, token)
	return map[string]any{
		"date": date, "score": score, "timeTaken": timeTaken,
		"timedBonus": bonus, "proof": proof,
	}
}

func recentDate(daysAgo int) string {
	return time.Now().UTC().AddDate(0, 0, -daysAgo).Format("2006-01-02")
}

func TestSyncDailyScoresCreatesAndRecomputes(t *testing.T) {
	app := newTestApp(t)
	user, token := createTestUser(t, "Ada")

	resp, body := postJSON(t, app, "/api/sync/daily-scores", token, map[string]any{
		"entries": []map[string]any{
			provenEntry(token, recentDate(1), 95, 20000, 0),
			provenEntry(token, recentDate(0), 80, 45000, 5),
		},
	})
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, float64(2), body["synced"])
	assert.Equal(t, float64(2), body["created"])
	assert.Equal(t, float64(0), body["rejectedReplay"])

	var stats models.UserStats
	require.NoError(t, database.GetDB().Where("user_id = ?", user.ID).First(&stats).Error)
	assert.Equal(t, 175, stats.TotalPoints)
	assert.Equal(t, 2, stats.TotalSolved)
	assert.Equal(t, 2, stats.StreakCount)
	assert.Equal(t, recentDate(0), stats.LastPlayed)
}

func TestSyncDailyScoresStreakRequiresToday(t *testing.T) {
	app := newTestApp(t)
	user, token := createTestUser(t, "Ada")

	// A run that stopped yesterday is not a current streak.
	_, body := postJSON(t, app, "/api/sync/daily-scores", token, map[string]any{
		"entries": []map[string]any{
			provenEntry(token, recentDate(2), 90, 25000, 0),
			provenEntry(token, recentDate(1), 95, 20000, 0),
		},
	})
	assert.Equal(t, float64(2), body["synced"])

	var stats models.UserStats
	require.NoError(t, database.GetDB().Where("user_id = ?", user.ID).First(&stats).Error)
	assert.Equal(t, 0, stats.StreakCount)
}

func TestSyncDailyScoresAllOrNothingValidation(t *testing.T) {
	app := newTestApp(t)
	user, token := createTestUser(t, "Ada")

	resp, body := postJSON(t, app, "/api/sync/daily-scores", token, map[string]any{
		"entries": []map[string]any{
			provenEntry(token, recentDate(1), 95, 20000, 0),
			{"date": "02/14/2026", "score": 80, "timeTaken": 45000, "proof": "x"},
		},
	})
	require.Equal(t, 400, resp.StatusCode)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "BAD_REQUEST", errObj["code"])

	// The valid entry must not have been persisted either.
	var count int64
	database.GetDB().Model(&models.DailyScore{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Zero(t, count)
}

func TestSyncDailyScoresRejectsFractionalScore(t *testing.T) {
	app := newTestApp(t)
	_, token := createTestUser(t, "Ada")

	resp, _ := postJSON(t, app, "/api/sync/daily-scores", token, map[string]any{
		"entries": []map[string]any{
			{"date": recentDate(1), "score": 90.5, "timeTaken": 20000, "proof": "x"},
		},
	})
	assert.Equal(t, 400, resp.StatusCode)
}

func TestSyncDailyScoresPlausibilityBounds(t *testing.T) {
	app := newTestApp(t)
	_, token := createTestUser(t, "Ada")

	cases := []struct {
		name      string
		score     int
		timeTaken int
		bonus     int
	}{
		{"high score too slow", 105, 300000, 25},
		{"near perfect too slow", 112, 120000, 25},
		{"score exceeds time allowance", 100, 60000, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, _ := postJSON(t, app, "/api/sync/daily-scores", token, map[string]any{
				"entries": []map[string]any{
					provenEntry(token, recentDate(1), tc.score, tc.timeTaken, tc.bonus),
				},
			})
			assert.Equal(t, 400, resp.StatusCode)
		})
	}
}

func TestSyncDailyScoresOversizedBatch(t *testing.T) {
	app := newTestApp(t)
	_, token := createTestUser(t, "Ada")

	entries := make([]map[string]any, 61)
	for i := range entries {
		entries[i] = provenEntry(token, recentDate(i+1), 60, 60000, 0)
	}
	resp, body := postJSON(t, app, "/api/sync/daily-scores", token, map[string]any{"entries": entries})
	require.Equal(t, 413, resp.StatusCode)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", errObj["code"])
}

func TestSyncDailyScoresDropsBadProofSilently(t *testing.T) {
	app := newTestApp(t)
	user, token := createTestUser(t, "Ada")

	entry := provenEntry(token, recentDate(1), 95, 20000, 0)
	entry["proof"] = "deadbeef"
	resp, body := postJSON(t, app, "/api/sync/daily-scores", token, map[string]any{
		"entries": []map[string]any{entry},
	})
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, float64(0), body["synced"])
	assert.Equal(t, float64(0), body["rejectedReplay"], "bad proof is dropped, not counted as replay")

	var count int64
	database.GetDB().Model(&models.DailyScore{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Zero(t, count)
}

func TestSyncDailyScoresReplayCounted(t *testing.T) {
	app := newTestApp(t)
	_, token := createTestUser(t, "Ada")

	payload := map[string]any{
		"entries": []map[string]any{provenEntry(token, recentDate(1), 95, 20000, 0)},
	}
	resp, body := postJSON(t, app, "/api/sync/daily-scores", token, payload)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, float64(1), body["synced"])

	resp, body = postJSON(t, app, "/api/sync/daily-scores", token, payload)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, float64(0), body["synced"])
	assert.Equal(t, float64(1), body["rejectedReplay"])
}

func TestSyncDailyScoresBestOfMerge(t *testing.T) {
	app := newTestApp(t)
	user, token := createTestUser(t, "Ada")
	date := recentDate(2)

	_, body := postJSON(t, app, "/api/sync/daily-scores", token, map[string]any{
		"entries": []map[string]any{provenEntry(token, date, 80, 35000, 0)},
	})
	assert.Equal(t, float64(1), body["created"])

	// Worse score skips.
	_, body = postJSON(t, app, "/api/sync/daily-scores", token, map[string]any{
		"entries": []map[string]any{provenEntry(token, date, 70, 30000, 0)},
	})
	assert.Equal(t, float64(1), body["skippedWorseOrDuplicate"])

	// Equal score, faster time updates.
	_, body = postJSON(t, app, "/api/sync/daily-scores", token, map[string]any{
		"entries": []map[string]any{provenEntry(token, date, 80, 30000, 0)},
	})
	assert.Equal(t, float64(1), body["updated"])

	// An exact (score, time) tie is not an improvement. The bonus differs
	// so the entry is not a replay of the previous submission.
	_, body = postJSON(t, app, "/api/sync/daily-scores", token, map[string]any{
		"entries": []map[string]any{provenEntry(token, date, 80, 30000, 1)},
	})
	assert.Equal(t, float64(1), body["skippedWorseOrDuplicate"])
	assert.Equal(t, float64(0), body["rejectedReplay"])

	var score models.DailyScore
	require.NoError(t, database.GetDB().Where("user_id = ? AND date = ?", user.ID, date).First(&score).Error)
	assert.Equal(t, 80, score.Score)
	assert.Equal(t, 30000, score.TimeTaken)
	assert.Equal(t, 0, score.TimedBonus)
}

func TestSyncDailyScoresInBatchDedupe(t *testing.T) {
	app := newTestApp(t)
	user, token := createTestUser(t, "Ada")
	date := recentDate(3)

	_, body := postJSON(t, app, "/api/sync/daily-scores", token, map[string]any{
		"entries": []map[string]any{
			provenEntry(token, date, 70, 40000, 0),
			provenEntry(token, date, 90, 25000, 0),
			provenEntry(token, date, 80, 20000, 0),
		},
	})
	// Only the best same-date entry touches the database.
	assert.Equal(t, float64(1), body["synced"])
	assert.Equal(t, float64(1), body["created"])

	var score models.DailyScore
	require.NoError(t, database.GetDB().Where("user_id = ? AND date = ?", user.ID, date).First(&score).Error)
	assert.Equal(t, 90, score.Score)
}

func TestSyncDailyScoresBadProofDoesNotShadowValidEntry(t *testing.T) {
	app := newTestApp(t)
	user, token := createTestUser(t, "Ada")
	date := recentDate(4)

	// The best same-date entry carries a forged proof; the honest worse
	// entry must still merge instead of losing the dedupe to the forgery.
	forged := provenEntry(token, date, 90, 25000, 0)
	forged["proof"] = "deadbeef"
	_, body := postJSON(t, app, "/api/sync/daily-scores", token, map[string]any{
		"entries": []map[string]any{
			forged,
			provenEntry(token, date, 70, 40000, 0),
		},
	})
	assert.Equal(t, float64(1), body["synced"])
	assert.Equal(t, float64(1), body["created"])

	var score models.DailyScore
	require.NoError(t, database.GetDB().Where("user_id = ? AND date = ?", user.ID, date).First(&score).Error)
	assert.Equal(t, 70, score.Score)
}

func TestSyncAchievementsUpsertIdempotent(t *testing.T) {
	app := newTestApp(t)
	user, token := createTestUser(t, "Ada")

	payload := map[string]any{
		"achievements": []map[string]any{
			{"id": "first_solve", "name": "First Solve", "unlockedAt": time.Now().UTC().Format(time.RFC3339)},
		},
	}
	resp, body := postJSON(t, app, "/api/sync/achievements", token, payload)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, float64(1), body["synced"])

	resp, body = postJSON(t, app, "/api/sync/achievements", token, payload)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, float64(1), body["synced"])

	var count int64
	database.GetDB().Model(&models.UserAchievement{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSyncAchievementsValidation(t *testing.T) {
	app := newTestApp(t)
	_, token := createTestUser(t, "Ada")

	cases := []struct {
		name string
		item map[string]any
	}{
		{"bad id", map[string]any{"id": "no spaces!", "name": "X", "unlockedAt": time.Now().UTC().Format(time.RFC3339)}},
		{"empty name", map[string]any{"id": "first_solve", "name": "", "unlockedAt": time.Now().UTC().Format(time.RFC3339)}},
		{"future unlock", map[string]any{"id": "first_solve", "name": "X", "unlockedAt": time.Now().UTC().Add(time.Hour).Format(time.RFC3339)}},
		{"unparsable time", map[string]any{"id": "first_solve", "name": "X", "unlockedAt": "yesterday"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, _ := postJSON(t, app, "/api/sync/achievements", token, map[string]any{
				"achievements": []map[string]any{tc.item},
			})
			assert.Equal(t, 400, resp.StatusCode)
		})
	}
}

func TestSyncRequiresAuth(t *testing.T) {
	app := newTestApp(t)

	resp, body := postJSON(t, app, "/api/sync/daily-scores", "", map[string]any{"entries": []map[string]any{}})
	require.Equal(t, 401, resp.StatusCode)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "UNAUTHORIZED", errObj["code"])
}
