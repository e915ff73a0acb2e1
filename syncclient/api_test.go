package syncclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSyncDailyScores(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/sync/daily-scores", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))

		var body struct {
			Entries []ScoreEntry `json:"entries"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Entries, 2)
		assert.Equal(t, "2026-02-10", body.Entries[0].Date)
		assert.NotEmpty(t, body.Entries[0].Proof)

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"synced":  2,
			"created": 1,
			"updated": 1,
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	result, err := client.SyncDailyScores(context.Background(), "tok-123", []ScoreEntry{
		{Date: "2026-02-10", Score: 95, TimeTaken: 80_000, Proof: "abc123"},
		{Date: "2026-02-11", Score: 70, TimeTaken: 200_000, Proof: "def456"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Synced)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Updated)
}

func TestClientSurfacesErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   map[string]any{"code": "BAD_REQUEST", "message": "batch too large"},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.SyncDailyScores(context.Background(), "tok", []ScoreEntry{{Date: "2026-02-10"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BAD_REQUEST")
	assert.Contains(t, err.Error(), "batch too large")
}

func TestClientSyncAchievements(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sync/achievements", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"success": true, "synced": 1})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	n, err := client.SyncAchievements(context.Background(), "tok", []AchievementUpload{
		{ID: "first_solve", Name: "First Solve"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
