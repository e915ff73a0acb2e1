package localstore

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store is the sqlite-backed local store. One active instance per client is
// assumed, but every method is safe to call from overlapping flush attempts.
type Store struct {
	db  *gorm.DB
	now func() time.Time

	mu          sync.Mutex
	lastQueueTS int64

	plainPayloads   bool
	puzzleReadDelay time.Duration
}

// Option tunes a Store at open time.
type Option func(*Store)

// WithClock overrides the store clock, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithoutCompression stores all payloads as plain JSON. Decoding remains
// able to read both encodings either way.
func WithoutCompression() Option {
	return func(s *Store) { s.plainPayloads = true }
}

// withPuzzleReadDelay slows puzzle cache reads, used by timeout tests.
func withPuzzleReadDelay(d time.Duration) Option {
	return func(s *Store) { s.puzzleReadDelay = d }
}

// Open opens (creating if needed) the store at path and runs startup
// migration plus legacy-record normalization. Use ":memory:" for tests.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	if err := db.AutoMigrate(
		&DailyActivity{},
		&ProgressRecord{},
		&PuzzleRecord{},
		&AchievementRecord{},
		&QueueItem{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate local store: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.normalizeLegacyActivities(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ActivityKey is the canonical storage key for a user-day record.
func ActivityKey(userID, date string) string {
	return userID + ":" + date
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
}

// NormalizeDate parses any supported date representation into YYYY-MM-DD.
// Unparsable dates report ok=false and are dropped by callers.
func NormalizeDate(input string) (string, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, input); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// pickPreferred resolves duplicate rows for one canonical key: solved beats
// unsolved, and equal solved state keeps the higher score.
func pickPreferred(current *DailyActivity, incoming DailyActivity) DailyActivity {
	if current == nil {
		return incoming
	}
	if incoming.Solved && !current.Solved {
		return incoming
	}
	if incoming.Solved == current.Solved && incoming.Score > current.Score {
		return incoming
	}
	return *current
}

// SaveActivity upserts an activity under its canonical key.
func (s *Store) SaveActivity(activity DailyActivity) error {
	date, ok := NormalizeDate(activity.Date)
	if !ok {
		return fmt.Errorf("unparsable activity date %q", activity.Date)
	}
	activity.Date = date
	activity.ID = ActivityKey(activity.UserID, date)
	return s.db.Save(&activity).Error
}

// Activity returns the preferred record for a user-day, or nil when absent.
// Non-canonical legacy rows for the same user-day are still considered so a
// solved result is never shadowed by a stale duplicate.
func (s *Store) Activity(userID, date string) (*DailyActivity, error) {
	normalized, ok := NormalizeDate(date)
	if !ok {
		normalized = date
	}

	var rows []DailyActivity
	if err := s.db.Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}

	var candidate *DailyActivity
	for _, row := range rows {
		rowDate, ok := NormalizeDate(row.Date)
		if !ok || rowDate != normalized {
			continue
		}
		row.Date = normalized
		row.ID = ActivityKey(userID, normalized)
		preferred := pickPreferred(candidate, row)
		candidate = &preferred
	}
	return candidate, nil
}

// TodayActivity returns the record for the store clock's current date.
func (s *Store) TodayActivity(userID string) (*DailyActivity, error) {
	return s.Activity(userID, s.now().Format("2006-01-02"))
}

// AllActivities returns every stored activity row.
func (s *Store) AllActivities() ([]DailyActivity, error) {
	var rows []DailyActivity
	err := s.db.Find(&rows).Error
	return rows, err
}

// ActivitiesByYear returns a user's deduplicated activities for a calendar
// year in ascending date order.
func (s *Store) ActivitiesByYear(userID string, year int) ([]DailyActivity, error) {
	var rows []DailyActivity
	if err := s.db.Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}

	deduped := make(map[string]DailyActivity)
	for _, row := range rows {
		date, ok := NormalizeDate(row.Date)
		if !ok {
			continue
		}
		if !isYear(date, year) {
			continue
		}
		row.Date = date
		row.ID = ActivityKey(userID, date)
		current, exists := deduped[row.ID]
		if exists {
			deduped[row.ID] = pickPreferred(&current, row)
		} else {
			deduped[row.ID] = row
		}
	}

	out := make([]DailyActivity, 0, len(deduped))
	for _, row := range deduped {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// YearActivities returns the current year's activities.
func (s *Store) YearActivities(userID string) ([]DailyActivity, error) {
	return s.ActivitiesByYear(userID, s.now().Year())
}

// RecentActivities returns the user's activities from the trailing window,
// ascending by date.
func (s *Store) RecentActivities(userID string, days int) ([]DailyActivity, error) {
	cutoff := s.now().AddDate(0, 0, -days).Format("2006-01-02")
	var rows []DailyActivity
	err := s.db.
		Where("user_id = ? AND date >= ?", userID, cutoff).
		Order("date ASC").
		Find(&rows).Error
	return rows, err
}

// MarkActivitySynced flips the synced flag on a user-day record.
func (s *Store) MarkActivitySynced(userID, date string) error {
	activity, err := s.Activity(userID, date)
	if err != nil || activity == nil {
		return err
	}
	activity.Synced = true
	return s.SaveActivity(*activity)
}

// ClearOldData deletes activity rows older than the retention threshold.
// Caller decides cadence; the server's cleanup service mirrors this sweep.
func (s *Store) ClearOldData(daysToKeep int) error {
	cutoff := s.now().AddDate(0, 0, -daysToKeep).Format("2006-01-02")
	return s.db.Where("date < ?", cutoff).Delete(&DailyActivity{}).Error
}

func isYear(date string, year int) bool {
	if len(date) < 4 {
		return false
	}
	y, err := strconv.Atoi(date[:4])
	return err == nil && y == year
}
