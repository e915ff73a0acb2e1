// localstore is the device-local durable store: daily activities,
// in-progress snapshots, cached puzzles, unlocked achievements, and the
// sync queue. It is the offline side of the sync protocol; the server's
// postgres store is the record of truth.
package localstore

// DailyActivity is one user-day of play. The primary key is the canonical
// `userId:date` key; at most one row exists per (user, normalized date).
type DailyActivity struct {
	ID          string `json:"id" gorm:"primaryKey"`
	UserID      string `json:"user_id" gorm:"index;not null"`
	Date        string `json:"date" gorm:"not null"`
	Solved      bool   `json:"solved"`
	Score       int    `json:"score"`
	TimeTaken   int    `json:"time_taken"` // milliseconds
	Difficulty  int    `json:"difficulty"`
	HintsUsed   int    `json:"hints_used"`
	Synced      bool   `json:"synced"`
	CompletedAt string `json:"completed_at,omitempty"`
}

func (DailyActivity) TableName() string {
	return "activities"
}

// ProgressRecord is an encoded in-progress snapshot for today's puzzle.
type ProgressRecord struct {
	ID        string `gorm:"primaryKey"`
	UserID    string `gorm:"index;not null"`
	Date      string `gorm:"not null"`
	Payload   string `gorm:"type:text"`
	Encoding  string `gorm:"size:20"`
	UpdatedAt string
}

func (ProgressRecord) TableName() string {
	return "progress"
}

// Progress is the decoded snapshot payload.
type Progress struct {
	Answer        string `json:"answer"`
	ElapsedTime   int    `json:"elapsedTime"`
	HintsUsed     int    `json:"hintsUsed"`
	PuzzleStarted bool   `json:"puzzleStarted"`
	PlayMode      string `json:"playMode"`
}

// PuzzleRecord is an encoded cached puzzle keyed by date.
type PuzzleRecord struct {
	Date      string `gorm:"primaryKey"`
	Payload   string `gorm:"type:text"`
	Encoding  string `gorm:"size:20"`
	UpdatedAt string
}

func (PuzzleRecord) TableName() string {
	return "puzzles"
}

// AchievementRecord is a locally unlocked achievement awaiting sync.
type AchievementRecord struct {
	ID            string `json:"id" gorm:"primaryKey"`
	UserID        string `json:"user_id" gorm:"index;not null"`
	AchievementID string `json:"achievement_id" gorm:"not null"`
	Name          string `json:"name"`
	UnlockedAt    string `json:"unlocked_at"`
	Synced        bool   `json:"synced"`
}

func (AchievementRecord) TableName() string {
	return "achievements"
}

// QueueItem is one append-only sync-queue entry. Entries are marked synced,
// never physically removed.
type QueueItem struct {
	Timestamp int64  `json:"timestamp" gorm:"primaryKey;autoIncrement:false"`
	Action    string `json:"action" gorm:"index;not null"`
	Data      string `json:"data" gorm:"type:text"`
	Synced    bool   `json:"synced"`
}

func (QueueItem) TableName() string {
	return "sync_queue"
}
