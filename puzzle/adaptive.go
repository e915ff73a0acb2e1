package puzzle

// PerformanceSample is one recent activity considered by the adaptive
// difficulty signal.
type PerformanceSample struct {
	Solved    bool
	Score     int
	TimeTaken int // milliseconds
}

// DifficultyAdjustmentFromPerformance returns the -1/0/+1 nudge derived
// from recent solves. Fewer than three solved samples always yields 0.
func DifficultyAdjustmentFromPerformance(recent []PerformanceSample) int {
	var solved []PerformanceSample
	for _, sample := range recent {
		if sample.Solved {
			solved = append(solved, sample)
		}
	}
	if len(solved) < 3 {
		return 0
	}

	var scoreSum, timeSum float64
	for _, sample := range solved {
		scoreSum += float64(sample.Score)
		timeSum += float64(sample.TimeTaken)
	}
	avgScore := scoreSum / float64(len(solved))
	avgTimeMs := timeSum / float64(len(solved))

	if avgScore >= 90 && avgTimeMs <= 90_000 {
		return 1
	}
	if avgScore <= 65 || avgTimeMs >= 300_000 {
		return -1
	}
	return 0
}
