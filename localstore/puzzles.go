package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"time"

	"gorm.io/gorm"
)

// SavePuzzle caches an encoded puzzle payload under its date.
func (s *Store) SavePuzzle(date string, v any) error {
	payload, encoding, err := s.encodePayload(v)
	if err != nil {
		return err
	}
	return s.db.Save(&PuzzleRecord{
		Date:      date,
		Payload:   payload,
		Encoding:  encoding,
		UpdatedAt: s.now().UTC().Format(time.RFC3339),
	}).Error
}

// LoadPuzzle decodes the cached puzzle for a date into out. A corrupt
// record is deleted and reported as absent rather than surfacing an error.
func (s *Store) LoadPuzzle(date string, out any) (bool, error) {
	var row PuzzleRecord
	if err := s.db.First(&row, "date = ?", date).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	if err := decodePayload(row.Payload, row.Encoding, out); err != nil {
		s.db.Delete(&PuzzleRecord{}, "date = ?", date)
		return false, nil
	}
	return true, nil
}

// LoadPuzzleWithTimeout is LoadPuzzle bounded by a deadline. On timeout it
// reports the puzzle as absent so the caller can fall back to fresh
// generation instead of stalling the UI on a slow storage backend. The
// fetch runs against a goroutine-local row and decoding happens only after
// the caller receives it, so an abandoned read never writes into out.
func (s *Store) LoadPuzzleWithTimeout(date string, timeout time.Duration, out any) (bool, error) {
	type result struct {
		row PuzzleRecord
		err error
	}
	done := make(chan result, 1)
	go func() {
		if s.puzzleReadDelay > 0 {
			time.Sleep(s.puzzleReadDelay)
		}
		var row PuzzleRecord
		err := s.db.First(&row, "date = ?", date).Error
		done <- result{row: row, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			if errors.Is(r.err, gorm.ErrRecordNotFound) {
				return false, nil
			}
			return false, r.err
		}
		if err := decodePayload(r.row.Payload, r.row.Encoding, out); err != nil {
			s.db.Delete(&PuzzleRecord{}, "date = ?", date)
			return false, nil
		}
		return true, nil
	case <-time.After(timeout):
		return false, nil
	}
}

// PuzzleOrGenerate serves the cached puzzle for a date, falling back to gen
// when the cache misses or the read exceeds timeout. A freshly generated
// puzzle is cached before being decoded into out, so the next load is a
// plain cache hit.
func (s *Store) PuzzleOrGenerate(date string, timeout time.Duration, gen func(date string) any, out any) error {
	found, err := s.LoadPuzzleWithTimeout(date, timeout, out)
	if err != nil {
		return err
	}
	if found {
		return nil
	}

	fresh := gen(date)
	if err := s.SavePuzzle(date, fresh); err != nil {
		return err
	}
	raw, err := json.Marshal(fresh)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// EnsurePuzzleWindow fills any uncached dates in the forward-looking window
// starting at startDate, using gen to produce payloads. Already cached dates
// are skipped, so repeated calls do no duplicate generation work. The loop
// yields periodically so large windows do not monopolize the scheduler.
func (s *Store) EnsurePuzzleWindow(ctx context.Context, startDate string, days int, gen func(date string) any) error {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return fmt.Errorf("invalid window start %q: %w", startDate, err)
	}

	const yieldEvery = 30
	for i := 0; i < days; i++ {
		if i > 0 && i%yieldEvery == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				runtime.Gosched()
			}
		}

		date := start.AddDate(0, 0, i).Format("2006-01-02")
		var existing PuzzleRecord
		err := s.db.First(&existing, "date = ?", date).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := s.SavePuzzle(date, gen(date)); err != nil {
			return err
		}
	}
	return nil
}
