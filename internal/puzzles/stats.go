package puzzles

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

var difficultyLabels = map[int]string{
	1: "Very Easy",
	2: "Easy",
	3: "Intermediate",
	4: "Challenging",
	5: "Advanced",
}

func DifficultyLabel(n int) string {
	if label, ok := difficultyLabels[n]; ok {
		return label
	}
	return "Intermediate"
}

// FormatEvalChange renders centipawns as pawns with one decimal, e.g. 620 -> "6.2 pawns".
func FormatEvalChange(cp int) string {
	return fmt.Sprintf("%.1f pawns", float64(cp)/100.0)
}

// Key identifies a puzzle across collection reloads.
func (p Puzzle) Key() string {
	sum := sha1.Sum([]byte(p.FEN + "|" + p.BlunderedMoveUCI + "|" + p.Timestamp))
	return hex.EncodeToString(sum[:8])
}

type Stats struct {
	Count         int
	ByDifficulty  map[string]int
	AvgEvalChange float64
	MaxEvalChange int
	Placeholder   bool
}

func Summarize(set Set, list []Puzzle) Stats {
	st := Stats{
		Count:        len(list),
		ByDifficulty: map[string]int{},
		Placeholder:  set.IsPlaceholder,
	}
	if len(list) == 0 {
		return st
	}
	total := 0
	for _, p := range list {
		st.ByDifficulty[DifficultyLabel(p.Difficulty)]++
		total += p.EvalChange
		if p.EvalChange > st.MaxEvalChange {
			st.MaxEvalChange = p.EvalChange
		}
	}
	st.AvgEvalChange = float64(total) / float64(len(list))
	return st
}
