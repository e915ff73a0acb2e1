// engagement holds the pure activity-history math behind the heatmap and
// streak displays. No I/O; callers feed it activity rows from storage.
package engagement

import (
	"sort"
	"time"
)

// Activity is the slice of a daily record this package cares about.
type Activity struct {
	Date       string
	Solved     bool
	Score      int
	TimeTaken  int // milliseconds
	Difficulty int
}

// Cell is one day of the year grid.
type Cell struct {
	Date       string `json:"date"`
	Intensity  int    `json:"intensity"`
	Solved     bool   `json:"solved"`
	Score      int    `json:"score"`
	TimeTaken  int    `json:"timeTaken"`
	Difficulty int    `json:"difficulty"`
}

// Streak summarizes consecutive-solve history.
type Streak struct {
	Current        int    `json:"current"`
	Longest        int    `json:"longest"`
	LastPlayedDate string `json:"lastPlayedDate,omitempty"`
	IsActiveToday  bool   `json:"isActiveToday"`
}

// Intensity grades a day's activity 0-4 for heatmap shading. Unsolved days
// are always 0.
func Intensity(a *Activity) int {
	if a == nil || !a.Solved {
		return 0
	}
	switch {
	case a.Score >= 95 && a.Difficulty >= 4 && a.TimeTaken > 0 && a.TimeTaken <= 120_000:
		return 4
	case a.Difficulty >= 4 || (a.Score >= 85 && a.TimeTaken <= 180_000):
		return 3
	case a.Difficulty >= 3 || a.Score >= 70 || a.TimeTaken <= 300_000:
		return 2
	default:
		return 1
	}
}

func isLeapYear(year int) bool {
	switch {
	case year%400 == 0:
		return true
	case year%100 == 0:
		return false
	default:
		return year%4 == 0
	}
}

// DaysInYear returns 366 for leap years, 365 otherwise.
func DaysInYear(year int) int {
	if isLeapYear(year) {
		return 366
	}
	return 365
}

// BuildYearCells produces one cell per calendar day of the year, in
// ascending date order, populated from the matching activity when present.
func BuildYearCells(activities []Activity, year int) []Cell {
	byDate := make(map[string]Activity, len(activities))
	for _, a := range activities {
		byDate[a.Date] = a
	}

	total := DaysInYear(year)
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	cells := make([]Cell, 0, total)

	for i := 0; i < total; i++ {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		cell := Cell{Date: date}
		if a, ok := byDate[date]; ok {
			cell.Intensity = Intensity(&a)
			cell.Solved = a.Solved
			cell.Score = a.Score
			cell.TimeTaken = a.TimeTaken
			cell.Difficulty = a.Difficulty
		}
		cells = append(cells, cell)
	}

	return cells
}

// SplitIntoWeeks chunks cells into fixed-size columns for grid layout.
// The final chunk may be shorter.
func SplitIntoWeeks(cells []Cell, daysPerWeek int) [][]Cell {
	if daysPerWeek <= 0 {
		daysPerWeek = 7
	}
	weeks := make([][]Cell, 0, (len(cells)+daysPerWeek-1)/daysPerWeek)
	for i := 0; i < len(cells); i += daysPerWeek {
		end := i + daysPerWeek
		if end > len(cells) {
			end = len(cells)
		}
		weeks = append(weeks, cells[i:end])
	}
	return weeks
}

// StreakFromSolvedDates computes streak state from a set of solved dates.
// Current walks backward day by day from today; longest is the maximum run
// of date-adjacent solves anywhere in the history.
func StreakFromSolvedDates(solvedDates []string, today string) Streak {
	seen := make(map[string]bool, len(solvedDates))
	unique := make([]string, 0, len(solvedDates))
	for _, d := range solvedDates {
		if !seen[d] {
			seen[d] = true
			unique = append(unique, d)
		}
	}
	sort.Strings(unique)

	streak := Streak{IsActiveToday: seen[today]}
	if len(unique) > 0 {
		streak.LastPlayedDate = unique[len(unique)-1]
	}

	cursor, err := time.Parse("2006-01-02", today)
	if err != nil {
		return streak
	}
	for seen[cursor.Format("2006-01-02")] {
		streak.Current++
		cursor = cursor.AddDate(0, 0, -1)
	}

	var prev time.Time
	run := 0
	for i, d := range unique {
		day, err := time.Parse("2006-01-02", d)
		if err != nil {
			continue
		}
		if i == 0 || day.Sub(prev) != 24*time.Hour {
			run = 1
		} else {
			run++
		}
		if run > streak.Longest {
			streak.Longest = run
		}
		prev = day
	}

	return streak
}
