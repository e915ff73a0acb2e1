package localstore

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AddToSyncQueue appends an entry keyed by a monotonic millisecond
// timestamp. Two appends within the same millisecond still get distinct,
// strictly increasing keys.
func (s *Store) AddToSyncQueue(action string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	ts := s.now().UnixMilli()
	if ts <= s.lastQueueTS {
		ts = s.lastQueueTS + 1
	}
	s.lastQueueTS = ts
	s.mu.Unlock()

	return s.db.Create(&QueueItem{
		Timestamp: ts,
		Action:    action,
		Data:      string(raw),
		Synced:    false,
	}).Error
}

// SyncQueue returns the unsynced entries in append order.
func (s *Store) SyncQueue() ([]QueueItem, error) {
	var items []QueueItem
	err := s.db.Where("synced = ?", false).Order("timestamp ASC").Find(&items).Error
	return items, err
}

// MarkSynced flips a queue entry's synced flag; already-synced and missing
// entries are a no-op.
func (s *Store) MarkSynced(timestamp int64) error {
	return s.db.Model(&QueueItem{}).
		Where("timestamp = ?", timestamp).
		Update("synced", true).Error
}

// SaveAchievement records a locally unlocked achievement exactly once per
// (user, achievement) pair. Re-saving an existing unlock changes nothing.
func (s *Store) SaveAchievement(userID, achievementID, name string) error {
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&AchievementRecord{
		ID:            ActivityKey(userID, achievementID),
		UserID:        userID,
		AchievementID: achievementID,
		Name:          name,
		UnlockedAt:    s.now().UTC().Format(time.RFC3339),
		Synced:        false,
	}).Error
}

// Achievements lists the user's unlocked achievements.
func (s *Store) Achievements(userID string) ([]AchievementRecord, error) {
	var rows []AchievementRecord
	err := s.db.Where("user_id = ?", userID).Find(&rows).Error
	return rows, err
}

// UnsyncedAchievements lists unlocks not yet confirmed by the server.
func (s *Store) UnsyncedAchievements(userID string) ([]AchievementRecord, error) {
	var rows []AchievementRecord
	err := s.db.Where("user_id = ? AND synced = ?", userID, false).Find(&rows).Error
	return rows, err
}

// MarkAchievementSynced flips the synced flag on one unlock.
func (s *Store) MarkAchievementSynced(userID, achievementID string) error {
	err := s.db.Model(&AchievementRecord{}).
		Where("id = ?", ActivityKey(userID, achievementID)).
		Update("synced", true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
