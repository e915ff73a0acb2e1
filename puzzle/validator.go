package puzzle

import (
	"fmt"
	"strings"
)

// Submission is an answer wrapped in an object, the shape the UI submits.
type Submission struct {
	Answer string `json:"answer"`
}

// Result reports whether a submission matched and its base score.
type Result struct {
	Valid bool
	Score int
}

// ValidateSolution checks a submitted answer against the stored solution.
// Submissions may be a bare value or anything carrying an `answer` field;
// comparison is trimmed and case-insensitive. A match earns the base score
// max(60, 120 - difficulty*10); penalties and bonuses are applied by the
// caller via FinalScore.
func ValidateSolution(p *Puzzle, submission any) Result {
	userAnswer := normalizeAnswer(submission)
	expected := strings.ToLower(strings.TrimSpace(p.Solution.Answer))

	if userAnswer != expected {
		return Result{Valid: false, Score: 0}
	}

	score := 120 - p.Difficulty*10
	if score < 60 {
		score = 60
	}
	return Result{Valid: true, Score: score}
}

func normalizeAnswer(submission any) string {
	var raw string
	switch v := submission.(type) {
	case Submission:
		raw = v.Answer
	case *Submission:
		raw = v.Answer
	case map[string]any:
		if answer, ok := v["answer"]; ok {
			raw = fmt.Sprint(answer)
		} else {
			raw = fmt.Sprint(v)
		}
	case string:
		raw = v
	default:
		raw = fmt.Sprint(v)
	}
	return strings.ToLower(strings.TrimSpace(raw))
}

// FinalScore derives the recorded score from a valid base score: elapsed
// seconds and hints are subtracted (floor 10), the timed-mode bonus is added,
// and the total is capped at 120.
func FinalScore(baseScore, elapsedSeconds, hintsUsed, timedBonus int) int {
	score := baseScore - elapsedSeconds - hintsUsed*10
	if score < 10 {
		score = 10
	}
	score += timedBonus
	if score > 120 {
		score = 120
	}
	return score
}

// TimedBonus computes the timed-mode bonus for finishing under the limit,
// clamped to [0, 25]. Standard mode always contributes 0.
func TimedBonus(timedMode bool, limitSeconds, elapsedSeconds int) int {
	if !timedMode {
		return 0
	}
	bonus := limitSeconds - elapsedSeconds
	if bonus < 0 {
		bonus = 0
	}
	if bonus > 25 {
		bonus = 25
	}
	return bonus
}
