// achievements holds the declarative unlock catalog and the idempotent
// unlock pass run after each solve.
package achievements

import (
	"logiclooper/engagement"
	"logiclooper/localstore"
)

// Definition is one achievement rule: unlocked when progress reaches target.
type Definition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Target      int    `json:"target"`
	Progress    func(Stats) int `json:"-"`
}

// Status is a definition annotated with the user's progress toward it.
type Status struct {
	Definition
	Value    int  `json:"value"`
	Unlocked bool `json:"unlocked"`
}

// Stats are the aggregates the catalog rules read.
type Stats struct {
	SolvedCount         int
	PerfectCount        int
	HintlessSolvedCount int
	FastestSolveMs      int // -1 when no solves yet
	CurrentStreak       int
}

var catalog = []Definition{
	{
		ID:          "first_solve",
		Name:        "First Solve",
		Description: "Solve your first daily puzzle.",
		Target:      1,
		Progress:    func(s Stats) int { return s.SolvedCount },
	},
	{
		ID:          "perfect_day",
		Name:        "Perfect Day",
		Description: "Score 100+ on any puzzle.",
		Target:      1,
		Progress:    func(s Stats) int { return s.PerfectCount },
	},
	{
		ID:          "speed_runner",
		Name:        "Speed Runner",
		Description: "Solve a puzzle in 60 seconds or less.",
		Target:      1,
		Progress: func(s Stats) int {
			if s.FastestSolveMs >= 0 && s.FastestSolveMs <= 60_000 {
				return 1
			}
			return 0
		},
	},
	{
		ID:          "hintless_solver",
		Name:        "Hintless Solver",
		Description: "Solve any puzzle with zero hints.",
		Target:      1,
		Progress:    func(s Stats) int { return s.HintlessSolvedCount },
	},
	{
		ID:          "solver_30",
		Name:        "30 Solves",
		Description: "Complete 30 daily puzzles.",
		Target:      30,
		Progress:    func(s Stats) int { return s.SolvedCount },
	},
	{
		ID:          "milestone_7",
		Name:        "7-Day Streak",
		Description: "Maintain a 7-day streak.",
		Target:      7,
		Progress:    func(s Stats) int { return s.CurrentStreak },
	},
	{
		ID:          "milestone_30",
		Name:        "30-Day Streak",
		Description: "Maintain a 30-day streak.",
		Target:      30,
		Progress:    func(s Stats) int { return s.CurrentStreak },
	},
	{
		ID:          "milestone_100",
		Name:        "100-Day Streak",
		Description: "Maintain a 100-day streak.",
		Target:      100,
		Progress:    func(s Stats) int { return s.CurrentStreak },
	},
	{
		ID:          "milestone_365",
		Name:        "365-Day Streak",
		Description: "Maintain a 365-day streak.",
		Target:      365,
		Progress:    func(s Stats) int { return s.CurrentStreak },
	},
}

// Catalog returns the full rule set in display order.
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}

// BuildStats derives the catalog inputs from an activity history.
func BuildStats(activities []localstore.DailyActivity, currentStreak int) Stats {
	stats := Stats{FastestSolveMs: -1, CurrentStreak: currentStreak}
	for _, a := range activities {
		if !a.Solved {
			continue
		}
		stats.SolvedCount++
		if a.Score >= 100 {
			stats.PerfectCount++
		}
		if a.HintsUsed == 0 {
			stats.HintlessSolvedCount++
		}
		if stats.FastestSolveMs < 0 || a.TimeTaken < stats.FastestSolveMs {
			stats.FastestSolveMs = a.TimeTaken
		}
	}
	return stats
}

// Statuses evaluates the catalog against an activity history. An id in the
// persisted set stays unlocked even if later stats regress below target.
func Statuses(activities []localstore.DailyActivity, currentStreak int, persisted map[string]bool) []Status {
	stats := BuildStats(activities, currentStreak)
	out := make([]Status, 0, len(catalog))
	for _, def := range catalog {
		value := def.Progress(stats)
		if value < 0 {
			value = 0
		}
		if value > def.Target {
			value = def.Target
		}
		out = append(out, Status{
			Definition: def,
			Value:      value,
			Unlocked:   persisted[def.ID] || value >= def.Target,
		})
	}
	return out
}

// Store is the persistence surface the unlock pass needs.
type Store interface {
	Achievements(userID string) ([]localstore.AchievementRecord, error)
	SaveAchievement(userID, achievementID, name string) error
}

// UnlockEligible persists every newly eligible achievement exactly once and
// returns the newly unlocked definitions for UI notification. Calling it
// again with unchanged state persists nothing and returns an empty slice.
func UnlockEligible(store Store, userID string, activities []localstore.DailyActivity, currentStreak int) ([]Definition, error) {
	existing, err := store.Achievements(userID)
	if err != nil {
		return nil, err
	}
	persisted := make(map[string]bool, len(existing))
	for _, row := range existing {
		persisted[row.AchievementID] = true
	}

	var newlyUnlocked []Definition
	for _, status := range Statuses(activities, currentStreak, persisted) {
		if persisted[status.ID] || !status.Unlocked {
			continue
		}
		if err := store.SaveAchievement(userID, status.ID, status.Name); err != nil {
			return newlyUnlocked, err
		}
		persisted[status.ID] = true
		newlyUnlocked = append(newlyUnlocked, status.Definition)
	}
	return newlyUnlocked, nil
}

// UnlockFromHistory derives the current streak from the activity history
// and runs the unlock pass. This is the call sites use after a solve;
// UnlockEligible exists separately for callers that already hold a streak.
func UnlockFromHistory(store Store, userID string, activities []localstore.DailyActivity, today string) ([]Definition, error) {
	solvedDates := make([]string, 0, len(activities))
	for _, a := range activities {
		if a.Solved {
			solvedDates = append(solvedDates, a.Date)
		}
	}
	streak := engagement.StreakFromSolvedDates(solvedDates, today)
	return UnlockEligible(store, userID, activities, streak.Current)
}
