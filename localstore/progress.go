package localstore

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// SaveProgress stores the encoded in-progress snapshot for a user-day.
func (s *Store) SaveProgress(userID, date string, progress Progress) error {
	if progress.PlayMode == "" {
		progress.PlayMode = "standard"
	}
	payload, encoding, err := s.encodePayload(progress)
	if err != nil {
		return err
	}
	return s.db.Save(&ProgressRecord{
		ID:        ActivityKey(userID, date),
		UserID:    userID,
		Date:      date,
		Payload:   payload,
		Encoding:  encoding,
		UpdatedAt: s.now().UTC().Format(time.RFC3339),
	}).Error
}

// LoadProgress returns the decoded snapshot, or absent. Corrupt records are
// deleted and treated as absent rather than propagated to the caller.
func (s *Store) LoadProgress(userID, date string) (*Progress, error) {
	key := ActivityKey(userID, date)
	var row ProgressRecord
	if err := s.db.First(&row, "id = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var progress Progress
	if err := decodePayload(row.Payload, row.Encoding, &progress); err != nil {
		s.db.Delete(&ProgressRecord{}, "id = ?", key)
		return nil, nil
	}
	return &progress, nil
}

// ClearProgress removes the snapshot after a successful submission.
func (s *Store) ClearProgress(userID, date string) error {
	return s.db.Delete(&ProgressRecord{}, "id = ?", ActivityKey(userID, date)).Error
}
