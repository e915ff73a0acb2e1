// syncclient is the device-side half of the sync protocol: the HTTP API
// client, the queue flush policy, and the background-signal listener.
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ScoreEntry is one daily result on the wire, proof attached.
type ScoreEntry struct {
	Date       string `json:"date"`
	Score      int    `json:"score"`
	TimeTaken  int    `json:"timeTaken"`
	TimedBonus int    `json:"timedBonus"`
	Proof      string `json:"proof"`
}

// AchievementUpload is one unlocked achievement on the wire.
type AchievementUpload struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	UnlockedAt string `json:"unlockedAt"`
}

// SyncResult is the server's merge report for a score batch.
type SyncResult struct {
	Synced                  int `json:"synced"`
	Created                 int `json:"created"`
	Updated                 int `json:"updated"`
	SkippedWorseOrDuplicate int `json:"skippedWorseOrDuplicate"`
	RejectedReplay          int `json:"rejectedReplay"`
}

// API is the remote surface the flush policy talks to.
type API interface {
	SyncDailyScores(ctx context.Context, token string, entries []ScoreEntry) (*SyncResult, error)
	SyncAchievements(ctx context.Context, token string, items []AchievementUpload) (int, error)
}

// Client is the HTTP implementation of API against the sync server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient builds a Client with a bounded default timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envelope struct {
	Success bool      `json:"success"`
	Error   *apiError `json:"error"`

	// Score-sync fields.
	Synced                  int `json:"synced"`
	Created                 int `json:"created"`
	Updated                 int `json:"updated"`
	SkippedWorseOrDuplicate int `json:"skippedWorseOrDuplicate"`
	RejectedReplay          int `json:"rejectedReplay"`
}

func (c *Client) post(ctx context.Context, token, path string, body any, out *envelope) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("sync server returned undecodable response (%d): %w", resp.StatusCode, err)
	}
	if !out.Success {
		if out.Error != nil {
			return fmt.Errorf("sync rejected: %s: %s", out.Error.Code, out.Error.Message)
		}
		return fmt.Errorf("sync rejected with status %d", resp.StatusCode)
	}
	return nil
}

// SyncDailyScores submits one score batch and returns the merge report.
func (c *Client) SyncDailyScores(ctx context.Context, token string, entries []ScoreEntry) (*SyncResult, error) {
	var out envelope
	err := c.post(ctx, token, "/api/sync/daily-scores", map[string]any{"entries": entries}, &out)
	if err != nil {
		return nil, err
	}
	return &SyncResult{
		Synced:                  out.Synced,
		Created:                 out.Created,
		Updated:                 out.Updated,
		SkippedWorseOrDuplicate: out.SkippedWorseOrDuplicate,
		RejectedReplay:          out.RejectedReplay,
	}, nil
}

// SyncAchievements submits unlocked achievements and returns the count the
// server accepted.
func (c *Client) SyncAchievements(ctx context.Context, token string, items []AchievementUpload) (int, error) {
	var out envelope
	err := c.post(ctx, token, "/api/sync/achievements", map[string]any{"achievements": items}, &out)
	if err != nil {
		return 0, err
	}
	return out.Synced, nil
}
