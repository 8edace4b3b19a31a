package puzzles

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	// MinEvalChange is the centipawn swing a puzzle needs before it is shown.
	MinEvalChange = 500
	ColorWhite    = Color("white")
	ColorBlack    = Color("black")
)

type Color string

func (c Color) Valid() bool { return c == ColorWhite || c == ColorBlack }

type Set struct {
	Platform      string   `json:"platform"`
	Username      string   `json:"username"`
	GeneratedAt   string   `json:"generated_at"`
	IsPlaceholder bool     `json:"is_placeholder"`
	Message       string   `json:"message"`
	Count         int      `json:"count"`
	Puzzles       []Puzzle `json:"puzzles"`

	Generated time.Time `json:"-"`
}

type Puzzle struct {
	FEN              string   `json:"fen"`
	PreBlunderFEN    string   `json:"pre_blunder_fen,omitempty"`
	BlunderedMoveSAN string   `json:"blundered_move"`
	BlunderedMoveUCI string   `json:"blundered_move_uci"`
	PlayerColor      Color    `json:"player_color"`
	EvalChange       int      `json:"eval_change"`
	Difficulty       int      `json:"difficulty"`
	DifficultyText   string   `json:"difficulty_label,omitempty"`
	Solution         []string `json:"solution"`
	CorrectMove      string   `json:"correct_move,omitempty"`
	MoveNumber       int      `json:"move_number,omitempty"`
	BlunderType      string   `json:"blunder_type,omitempty"`
	GameURL          string   `json:"game_url,omitempty"`
	Timestamp        string   `json:"timestamp"`
	ShowSolutionText *bool    `json:"show_solution_text,omitempty"`
	IsPlaceholder    bool     `json:"is_placeholder,omitempty"`

	PlayedAt time.Time `json:"-"`
}

// Decode reads a puzzle collection and applies field defaults.
func Decode(r io.Reader) (Set, error) {
	var set Set
	dec := json.NewDecoder(r)
	if err := dec.Decode(&set); err != nil {
		return Set{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	applySetDefaults(&set)
	return set, nil
}

func applySetDefaults(set *Set) {
	set.Generated = parseTimestamp(set.GeneratedAt)
	for i := range set.Puzzles {
		applyPuzzleDefaults(&set.Puzzles[i])
	}
	if set.Count <= 0 {
		set.Count = len(set.Puzzles)
	}
}

func applyPuzzleDefaults(p *Puzzle) {
	p.FEN = strings.TrimSpace(p.FEN)
	p.PreBlunderFEN = strings.TrimSpace(p.PreBlunderFEN)
	p.BlunderedMoveSAN = strings.TrimSpace(p.BlunderedMoveSAN)
	p.BlunderedMoveUCI = strings.TrimSpace(p.BlunderedMoveUCI)
	p.PlayerColor = Color(strings.ToLower(strings.TrimSpace(string(p.PlayerColor))))
	if p.PlayerColor == "" {
		p.PlayerColor = sideToMove(p.FEN)
	}
	if p.ShowSolutionText == nil {
		v := true
		p.ShowSolutionText = &v
	}
	for i, mv := range p.Solution {
		p.Solution[i] = strings.TrimSpace(mv)
	}
	p.PlayedAt = parseTimestamp(p.Timestamp)
}

// ShowsSolutionText reports whether explanation text may be rendered.
func (p Puzzle) ShowsSolutionText() bool {
	return p.ShowSolutionText == nil || *p.ShowSolutionText
}

// FirstSolution returns the first solution move in UCI form.
func (p Puzzle) FirstSolution() (string, bool) {
	if len(p.Solution) == 0 || p.Solution[0] == "" {
		return "", false
	}
	return p.Solution[0], true
}

// StartFEN is the position the board opens on: before the blunder when known.
func (p Puzzle) StartFEN() string {
	if p.PreBlunderFEN != "" {
		return p.PreBlunderFEN
	}
	return p.FEN
}

func (p Puzzle) Validate() error {
	if p.FEN == "" {
		return fmt.Errorf("fen is required")
	}
	if !p.PlayerColor.Valid() {
		return fmt.Errorf("invalid player_color %q", p.PlayerColor)
	}
	for _, mv := range p.Solution {
		if len(mv) < 4 || len(mv) > 5 {
			return fmt.Errorf("invalid solution move %q", mv)
		}
	}
	if p.BlunderedMoveUCI != "" && (len(p.BlunderedMoveUCI) < 4 || len(p.BlunderedMoveUCI) > 5) {
		return fmt.Errorf("invalid blundered_move_uci %q", p.BlunderedMoveUCI)
	}
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func sideToMove(fen string) Color {
	fields := strings.Fields(fen)
	if len(fields) > 1 && fields[1] == "b" {
		return ColorBlack
	}
	return ColorWhite
}
