package localstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	Name   string         `json:"name"`
	Count  int            `json:"count"`
	Nested map[string]int `json:"nested"`
	List   []string       `json:"list"`
}

func samplePayload() testPayload {
	return testPayload{
		Name:   "logic looper",
		Count:  42,
		Nested: map[string]int{"a": 1, "b": 2},
		List:   []string{"x", "y", "z"},
	}
}

func TestPayloadRoundTripCompressed(t *testing.T) {
	s := newTestStore(t)
	payload, encoding, err := s.encodePayload(samplePayload())
	require.NoError(t, err)
	assert.Equal(t, EncodingGzip, encoding)

	var decoded testPayload
	require.NoError(t, decodePayload(payload, encoding, &decoded))
	assert.Equal(t, samplePayload(), decoded)
}

func TestPayloadRoundTripPlain(t *testing.T) {
	s := newTestStore(t, WithoutCompression())
	payload, encoding, err := s.encodePayload(samplePayload())
	require.NoError(t, err)
	assert.Equal(t, EncodingPlain, encoding)

	var decoded testPayload
	require.NoError(t, decodePayload(payload, encoding, &decoded))
	assert.Equal(t, samplePayload(), decoded)
}

func TestDecodeFallsBackToPlainOnBadCompression(t *testing.T) {
	// A record tagged compressed whose payload is actually plain JSON, as
	// written by a client without compression support.
	var decoded testPayload
	require.NoError(t, decodePayload(`{"name":"plain","count":1}`, EncodingGzip, &decoded))
	assert.Equal(t, "plain", decoded.Name)
}

func TestProgressCorruptionSelfHeals(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.db.Save(&ProgressRecord{
		ID:       ActivityKey("u1", "2026-02-16"),
		UserID:   "u1",
		Date:     "2026-02-16",
		Payload:  "not json at all",
		Encoding: EncodingPlain,
	}).Error)

	progress, err := s.LoadProgress("u1", "2026-02-16")
	require.NoError(t, err)
	assert.Nil(t, progress)

	// The damaged row is gone, not just skipped.
	var count int64
	require.NoError(t, s.db.Model(&ProgressRecord{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestProgressRoundTripAndClear(t *testing.T) {
	s := newTestStore(t)
	want := Progress{Answer: "42", ElapsedTime: 37, HintsUsed: 1, PuzzleStarted: true}
	require.NoError(t, s.SaveProgress("u1", "2026-02-16", want))

	got, err := s.LoadProgress("u1", "2026-02-16")
	require.NoError(t, err)
	require.NotNil(t, got)
	want.PlayMode = "standard" // defaulted at save time
	assert.Equal(t, want, *got)

	require.NoError(t, s.ClearProgress("u1", "2026-02-16"))
	got, err = s.LoadProgress("u1", "2026-02-16")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPuzzleCacheCorruptionSelfHeals(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.db.Save(&PuzzleRecord{
		Date:     "2026-02-16",
		Payload:  "%%%%",
		Encoding: EncodingGzip,
	}).Error)

	var out map[string]any
	found, err := s.LoadPuzzle("2026-02-16", &out)
	require.NoError(t, err)
	assert.False(t, found)

	var count int64
	require.NoError(t, s.db.Model(&PuzzleRecord{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestLoadPuzzleWithTimeoutServesCachedRecord(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SavePuzzle("2026-02-16", samplePayload()))

	var out testPayload
	found, err := s.LoadPuzzleWithTimeout("2026-02-16", time.Second, &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, samplePayload(), out)
}

func TestLoadPuzzleWithTimeoutReportsAbsentOnSlowRead(t *testing.T) {
	s := newTestStore(t, withPuzzleReadDelay(100*time.Millisecond))
	require.NoError(t, s.SavePuzzle("2026-02-16", samplePayload()))

	var out testPayload
	found, err := s.LoadPuzzleWithTimeout("2026-02-16", 5*time.Millisecond, &out)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, testPayload{}, out)

	// The abandoned read must not write into out after it finishes.
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, testPayload{}, out)
}

func TestPuzzleOrGenerateFallsBackAndCaches(t *testing.T) {
	s := newTestStore(t)
	calls := 0
	gen := func(date string) any {
		calls++
		return samplePayload()
	}

	var out testPayload
	require.NoError(t, s.PuzzleOrGenerate("2026-02-16", time.Second, gen, &out))
	assert.Equal(t, 1, calls)
	assert.Equal(t, samplePayload(), out)

	// The generated puzzle was cached, so the second call is a pure read.
	out = testPayload{}
	require.NoError(t, s.PuzzleOrGenerate("2026-02-16", time.Second, gen, &out))
	assert.Equal(t, 1, calls)
	assert.Equal(t, samplePayload(), out)
}

func TestEnsurePuzzleWindowSkipsCachedDates(t *testing.T) {
	s := newTestStore(t)
	calls := map[string]int{}
	gen := func(date string) any {
		calls[date]++
		return map[string]string{"id": "puzzle-" + date}
	}

	require.NoError(t, s.EnsurePuzzleWindow(context.Background(), "2026-02-16", 7, gen))
	require.Len(t, calls, 7)

	// A second pass finds everything cached and generates nothing.
	require.NoError(t, s.EnsurePuzzleWindow(context.Background(), "2026-02-16", 7, gen))
	for date, n := range calls {
		assert.Equal(t, 1, n, "date %s regenerated", date)
	}

	var out map[string]string
	found, err := s.LoadPuzzle("2026-02-22", &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "puzzle-2026-02-22", out["id"])
}

func TestEnsurePuzzleWindowHonorsCancellation(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.EnsurePuzzleWindow(ctx, "2026-02-16", 120, func(date string) any {
		return map[string]string{"id": date}
	})
	assert.ErrorIs(t, err, context.Canceled)
}
