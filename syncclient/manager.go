package syncclient

import (
	"context"
	"encoding/json"
	"sync"

	"logiclooper/localstore"
	"logiclooper/syncproof"
)

// ActionDailyScore is the queue action class the flush policy submits.
const ActionDailyScore = "daily_score"

// DefaultBatchSize is the minimum queue depth before an unforced flush
// submits, conserving network on mobile and offline-prone clients.
const DefaultBatchSize = 5

// TokenSource supplies the current auth token, empty when signed out.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a func to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// FlushOptions tune one flush attempt.
type FlushOptions struct {
	// Force submits regardless of queue depth: app foreground, reconnect,
	// or an explicit background-sync signal.
	Force     bool
	BatchSize int
}

// Manager drains the local sync queue to the server. Safe to invoke from
// overlapping triggers: each flush serializes and re-reads queue state, so
// the worst case is a redundant network call, never corruption.
type Manager struct {
	store  *localstore.Store
	api    API
	tokens TokenSource
	online func() bool

	mu sync.Mutex
}

// NewManager wires a Manager. online may be nil when connectivity is not
// observable; the flush then assumes online and lets the request fail.
func NewManager(store *localstore.Store, api API, tokens TokenSource, online func() bool) *Manager {
	return &Manager{store: store, api: api, tokens: tokens, online: online}
}

// queuedScore is the queue payload shape written at submission time.
type queuedScore struct {
	UserID     string `json:"userId"`
	Date       string `json:"date"`
	Score      int    `json:"score"`
	TimeTaken  int    `json:"timeTaken"`
	TimedBonus int    `json:"timedBonus"`
}

// EnqueueDailyScore appends a solved result for later delivery.
func (m *Manager) EnqueueDailyScore(userID, date string, score, timeTaken, timedBonus int) error {
	return m.store.AddToSyncQueue(ActionDailyScore, queuedScore{
		UserID:     userID,
		Date:       date,
		Score:      score,
		TimeTaken:  timeTaken,
		TimedBonus: timedBonus,
	})
}

// Flush submits this user's pending results. No-op when offline or signed
// out. Daily scores go as one batch only when forced or the queue has
// reached the batch threshold; unsynced achievements are always sent
// eagerly since they are low-volume. Failures leave the queue untouched so
// a later retry redelivers (the server merge is idempotent by value).
func (m *Manager) Flush(ctx context.Context, userID string, opts FlushOptions) error {
	if m.online != nil && !m.online() {
		return nil
	}
	token := m.tokens.Token()
	if token == "" {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.flushDailyScores(ctx, userID, token, opts); err != nil {
		return err
	}
	return m.flushAchievements(ctx, userID, token)
}

func (m *Manager) flushDailyScores(ctx context.Context, userID, token string, opts FlushOptions) error {
	queue, err := m.store.SyncQueue()
	if err != nil {
		return err
	}

	type pending struct {
		item  localstore.QueueItem
		score queuedScore
	}
	var relevant []pending
	for _, item := range queue {
		if item.Action != ActionDailyScore {
			continue
		}
		var score queuedScore
		if err := json.Unmarshal([]byte(item.Data), &score); err != nil {
			continue
		}
		if score.UserID != userID {
			continue
		}
		relevant = append(relevant, pending{item: item, score: score})
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if len(relevant) == 0 || (!opts.Force && len(relevant) < batchSize) {
		return nil
	}

	entries := make([]ScoreEntry, 0, len(relevant))
	for _, p := range relevant {
		entry := ScoreEntry{
			Date:       p.score.Date,
			Score:      p.score.Score,
			TimeTaken:  p.score.TimeTaken,
			TimedBonus: p.score.TimedBonus,
		}
		entry.Proof = syncproof.BuildDailyScoreProof(syncproof.DailyScoreEntry{
			Date:       entry.Date,
			Score:      entry.Score,
			TimeTaken:  entry.TimeTaken,
			TimedBonus: entry.TimedBonus,
		}, token)
		entries = append(entries, entry)
	}

	if _, err := m.api.SyncDailyScores(ctx, token, entries); err != nil {
		return err
	}

	for _, p := range relevant {
		if err := m.store.MarkSynced(p.item.Timestamp); err != nil {
			return err
		}
		if err := m.store.MarkActivitySynced(p.score.UserID, p.score.Date); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) flushAchievements(ctx context.Context, userID, token string) error {
	unsynced, err := m.store.UnsyncedAchievements(userID)
	if err != nil {
		return err
	}
	if len(unsynced) == 0 {
		return nil
	}

	uploads := make([]AchievementUpload, 0, len(unsynced))
	for _, row := range unsynced {
		uploads = append(uploads, AchievementUpload{
			ID:         row.AchievementID,
			Name:       row.Name,
			UnlockedAt: row.UnlockedAt,
		})
	}

	if _, err := m.api.SyncAchievements(ctx, token, uploads); err != nil {
		return err
	}

	for _, row := range unsynced {
		if err := m.store.MarkAchievementSynced(userID, row.AchievementID); err != nil {
			return err
		}
	}
	return nil
}
