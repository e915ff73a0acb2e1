package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCurrentStreak(t *testing.T) {
	now := time.Date(2026, 2, 18, 9, 30, 0, 0, time.UTC)

	solved := func(dates ...string) map[string]bool {
		m := make(map[string]bool, len(dates))
		for _, d := range dates {
			m[d] = true
		}
		return m
	}

	assert.Equal(t, 0, currentStreak(solved(), now))
	assert.Equal(t, 3, currentStreak(solved("2026-02-16", "2026-02-17", "2026-02-18"), now))

	// Not played today: the run ended yesterday and no longer counts.
	assert.Equal(t, 0, currentStreak(solved("2026-02-16", "2026-02-17"), now))
	assert.Equal(t, 0, currentStreak(solved("2026-02-17"), now))

	// A missed day ends the walk.
	assert.Equal(t, 1, currentStreak(solved("2026-02-15", "2026-02-18"), now))

	// A run that ended before yesterday is not current.
	assert.Equal(t, 0, currentStreak(solved("2026-02-10", "2026-02-11"), now))
}
