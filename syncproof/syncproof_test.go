package syncproof

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProofIsDeterministic(t *testing.T) {
	entry := DailyScoreEntry{Date: "2026-02-16", Score: 100, TimeTaken: 45_000, TimedBonus: 10}
	a := BuildDailyScoreProof(entry, "token-abc")
	b := BuildDailyScoreProof(entry, "token-abc")
	assert.Equal(t, a, b)
	assert.GreaterOrEqual(t, len(a), 20)
}

func TestProofChangesWithAnyField(t *testing.T) {
	base := DailyScoreEntry{Date: "2026-02-16", Score: 100, TimeTaken: 45_000, TimedBonus: 0}
	baseline := BuildDailyScoreProof(base, "token-abc")

	mutations := []DailyScoreEntry{
		{Date: "2026-02-17", Score: 100, TimeTaken: 45_000},
		{Date: "2026-02-16", Score: 101, TimeTaken: 45_000},
		{Date: "2026-02-16", Score: 100, TimeTaken: 45_001},
		{Date: "2026-02-16", Score: 100, TimeTaken: 45_000, TimedBonus: 1},
	}
	for _, m := range mutations {
		assert.NotEqual(t, baseline, BuildDailyScoreProof(m, "token-abc"), "%+v", m)
	}

	assert.NotEqual(t, baseline, BuildDailyScoreProof(base, "token-xyz"), "token must bind")
}

func TestVerify(t *testing.T) {
	entry := DailyScoreEntry{Date: "2026-02-16", Score: 90, TimeTaken: 60_000}
	proof := BuildDailyScoreProof(entry, "tok")

	assert.True(t, Verify(entry, "tok", proof))
	assert.False(t, Verify(entry, "other", proof))
	assert.False(t, Verify(entry, "tok", ""))
	entry.Score = 91
	assert.False(t, Verify(entry, "tok", proof))
}
