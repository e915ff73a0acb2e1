// puzzle implements the deterministic daily puzzle engine: seeded
// generation, the five-type catalog, and solution validation.
package puzzle

import (
	"encoding/json"
	"fmt"
)

// Type identifies one of the five puzzle kinds in the fixed catalog.
type Type string

const (
	TypeMatrix    Type = "matrix"
	TypeSequence  Type = "sequence"
	TypePattern   Type = "pattern"
	TypeDeduction Type = "deduction"
	TypeBinary    Type = "binary"
)

// Types lists the catalog in round-robin order.
var Types = []Type{TypeMatrix, TypeSequence, TypePattern, TypeDeduction, TypeBinary}

// Puzzle is a fully generated daily puzzle. Instances are immutable and
// byte-for-byte reproducible from (date, difficulty adjustment).
type Puzzle struct {
	ID         string   `json:"id"`
	Type       Type     `json:"type"`
	Date       string   `json:"date"`
	Seed       string   `json:"seed"`
	Difficulty int      `json:"difficulty"`
	Data       any      `json:"data"`
	Solution   Solution `json:"solution"`
}

// Solution holds the single expected answer, always encoded as a string.
type Solution struct {
	Answer string `json:"answer"`
}

// MatrixData is a square number grid with one blanked cell.
type MatrixData struct {
	Size    int   `json:"size"`
	Matrix  []int `json:"matrix"`
	Missing int   `json:"missing"`
}

// SequenceData is an arithmetic series with the final term removed.
type SequenceData struct {
	Sequence  []int `json:"sequence"`
	NextIndex int   `json:"nextIndex"`
}

// PatternData is a repeating shape cycle with one hole.
type PatternData struct {
	Pattern []string `json:"pattern"`
	Missing int      `json:"missing"`
	Options []string `json:"options"`
}

// DeductionData is a who-has-what clue set.
type DeductionData struct {
	Clues    []string `json:"clues"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// BinaryData is a 0/1 grid whose last cell (-1) follows an XOR rule.
type BinaryData struct {
	Size int    `json:"size"`
	Grid []int  `json:"grid"`
	Rule string `json:"rule"`
}

// UnmarshalJSON dispatches the data payload to the concrete shape for the
// tagged type, so cached puzzles decode into typed data rather than maps.
func (p *Puzzle) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID         string          `json:"id"`
		Type       Type            `json:"type"`
		Date       string          `json:"date"`
		Seed       string          `json:"seed"`
		Difficulty int             `json:"difficulty"`
		Data       json.RawMessage `json:"data"`
		Solution   Solution        `json:"solution"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	p.ID = raw.ID
	p.Type = raw.Type
	p.Date = raw.Date
	p.Seed = raw.Seed
	p.Difficulty = raw.Difficulty
	p.Solution = raw.Solution

	if len(raw.Data) == 0 {
		p.Data = nil
		return nil
	}

	switch raw.Type {
	case TypeMatrix:
		var d MatrixData
		if err := json.Unmarshal(raw.Data, &d); err != nil {
			return err
		}
		p.Data = d
	case TypeSequence:
		var d SequenceData
		if err := json.Unmarshal(raw.Data, &d); err != nil {
			return err
		}
		p.Data = d
	case TypePattern:
		var d PatternData
		if err := json.Unmarshal(raw.Data, &d); err != nil {
			return err
		}
		p.Data = d
	case TypeDeduction:
		var d DeductionData
		if err := json.Unmarshal(raw.Data, &d); err != nil {
			return err
		}
		p.Data = d
	case TypeBinary:
		var d BinaryData
		if err := json.Unmarshal(raw.Data, &d); err != nil {
			return err
		}
		p.Data = d
	default:
		return fmt.Errorf("unknown puzzle type %q", raw.Type)
	}

	return nil
}
