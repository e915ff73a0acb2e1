package puzzle

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"
)

const defaultSeedNamespace = "logic-looper"

// SeedNamespace returns the namespace mixed into every daily seed. It is a
// deployment constant, not a secret: both sides of the sync protocol must
// agree on it for cross-device puzzle identity.
func SeedNamespace() string {
	if ns := os.Getenv("PUZZLE_SEED_NAMESPACE"); ns != "" {
		return ns
	}
	return defaultSeedNamespace
}

// Options tune a single generation call.
type Options struct {
	// DifficultyAdjustment is the -1/0/+1 adaptive nudge. It is advisory
	// input and not part of the cross-device reproducibility contract.
	DifficultyAdjustment int
}

// Generate produces the puzzle for a calendar date. Same date and
// adjustment always produce an identical puzzle, data and solution included.
func Generate(date time.Time, opts Options) *Puzzle {
	dateStr := date.Format("2006-01-02")
	seed := Seed(dateStr)
	dayNum := date.YearDay()
	typ := typeForDay(dayNum)
	difficulty := difficultyForDay(dayNum, opts.DifficultyAdjustment)
	data, solution := generateByType(typ, seed, difficulty)

	return &Puzzle{
		ID:         "puzzle-" + dateStr,
		Type:       typ,
		Date:       dateStr,
		Seed:       seed,
		Difficulty: difficulty,
		Data:       data,
		Solution:   solution,
	}
}

// GenerateForDate is Generate for an already formatted YYYY-MM-DD date.
func GenerateForDate(dateStr string, opts Options) (*Puzzle, error) {
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid puzzle date %q: %w", dateStr, err)
	}
	return Generate(date, opts), nil
}

// Seed derives the hex seed digest for a date. The digest is used for
// uniform distribution, not confidentiality.
func Seed(dateStr string) string {
	sum := sha256.Sum256([]byte(SeedNamespace() + ":" + dateStr))
	return hex.EncodeToString(sum[:])
}

// typeForDay walks the five-type catalog so any five-day window covers
// every type exactly once.
func typeForDay(dayNum int) Type {
	return Types[(dayNum-1)%len(Types)]
}

func difficultyForDay(dayNum, adjustment int) int {
	base := 1 + (dayNum-1)/73
	d := base + (dayNum%3 - 1) + adjustment
	if d < 1 {
		d = 1
	}
	if d > 5 {
		d = 5
	}
	return d
}

func generateByType(typ Type, seed string, difficulty int) (any, Solution) {
	seedBits, _ := strconv.ParseUint(seed[:8], 16, 32)
	rng := NewRng(uint32(seedBits))

	switch typ {
	case TypeMatrix:
		return generateMatrix(rng, difficulty)
	case TypeSequence:
		return generateSequence(rng, difficulty)
	case TypePattern:
		return generatePattern(rng, difficulty)
	case TypeDeduction:
		return generateDeduction(rng, difficulty)
	default:
		return generateBinary(rng, difficulty)
	}
}

func generateMatrix(rng *Rng, difficulty int) (any, Solution) {
	size := 3
	if difficulty >= 4 {
		size = 4
	}
	start := rng.Intn(6) + 1
	step := rng.Intn(4) + 1
	matrix := make([]int, 0, size*size)

	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			matrix = append(matrix, start+r*step+c*(step+1))
		}
	}

	missing := len(matrix) - 1
	answer := matrix[missing]
	matrix[missing] = 0

	return MatrixData{Size: size, Matrix: matrix, Missing: missing},
		Solution{Answer: strconv.Itoa(answer)}
}

func generateSequence(rng *Rng, difficulty int) (any, Solution) {
	length := 5 + difficulty
	start := rng.Intn(20) + 1
	step := rng.Intn(6) + 1
	series := make([]int, length)

	for i := range series {
		series[i] = start + i*step
	}

	answer := series[length-1]
	return SequenceData{Sequence: series[:length-1], NextIndex: length - 1},
		Solution{Answer: strconv.Itoa(answer)}
}

var patternShapes = []string{"o", "s", "t", "d", "x"}

func generatePattern(rng *Rng, difficulty int) (any, Solution) {
	cycle := 2 + rng.Intn(2)
	length := 4 + difficulty
	start := rng.Intn(len(patternShapes))
	pattern := make([]string, length)

	for i := range pattern {
		pattern[i] = patternShapes[(start+(i%cycle))%len(patternShapes)]
	}

	answer := pattern[length-1]
	pattern[length-1] = "?"

	return PatternData{Pattern: pattern, Missing: length - 1, Options: patternShapes},
		Solution{Answer: answer}
}

var (
	deductionPeople = []string{"Alice", "Bob", "Carol", "Dave"}
	deductionItems  = []string{"Red", "Blue", "Green", "Yellow"}
)

func generateDeduction(rng *Rng, difficulty int) (any, Solution) {
	people := shuffle(deductionPeople, rng)
	items := shuffle(deductionItems, rng)

	targetItem := items[rng.Intn(len(items))]
	answer := people[0]
	clues := make([]string, len(people))
	for i, person := range people {
		item := items[i]
		if item == targetItem {
			answer = person
		}
		if difficulty >= 4 {
			clues[i] = fmt.Sprintf("%s definitely has %s", person, item)
		} else {
			clues[i] = fmt.Sprintf("%s has %s", person, item)
		}
	}

	return DeductionData{
			Clues:    clues,
			Question: fmt.Sprintf("Who has %s?", targetItem),
			Options:  people,
		},
		Solution{Answer: answer}
}

// shuffle is a Fisher-Yates pass on a copy, driven by the shared rng stream.
func shuffle(source []string, rng *Rng) []string {
	out := make([]string, len(source))
	copy(out, source)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func generateBinary(rng *Rng, difficulty int) (any, Solution) {
	size := 4
	if difficulty >= 4 {
		size = 5
	}
	grid := make([]int, size*size)
	for i := range grid {
		grid[i] = rng.Intn(2)
	}

	// The blanked last cell equals the XOR parity of the first row.
	answer := 0
	for _, n := range grid[:size] {
		answer ^= n
	}
	grid[size*size-1] = -1

	return BinaryData{Size: size, Grid: grid, Rule: "Use XOR parity of first row for missing value"},
		Solution{Answer: strconv.Itoa(answer)}
}
