package widget

import (
	"time"

	"blunderboard/internal/grading"
	"blunderboard/internal/puzzles"
)

type Phase string

const (
	PhaseLoading           Phase = "loading"
	PhaseUnavailable       Phase = "unavailable"
	PhaseShowingPreBlunder Phase = "showing_pre_blunder"
	PhaseAnimatingBlunder  Phase = "animating_blunder"
	PhaseAwaitingMove      Phase = "awaiting_move"
	PhaseFailed            Phase = "failed"
	PhaseSolved            Phase = "solved"
)

type Timing struct {
	PreBlunderHold time.Duration
	BlunderSettle  time.Duration
	FailedRevert   time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		PreBlunderHold: 1000 * time.Millisecond,
		BlunderSettle:  1500 * time.Millisecond,
		FailedRevert:   1500 * time.Millisecond,
	}
}

func (t Timing) withDefaults() Timing {
	def := DefaultTiming()
	if t.PreBlunderHold <= 0 {
		t.PreBlunderHold = def.PreBlunderHold
	}
	if t.BlunderSettle <= 0 {
		t.BlunderSettle = def.BlunderSettle
	}
	if t.FailedRevert <= 0 {
		t.FailedRevert = def.FailedRevert
	}
	return t
}

type FlashKind int

const (
	FlashPositive FlashKind = iota
	FlashNegative
)

type MessageKind int

const (
	MessageLoading MessageKind = iota
	MessageEmpty
	MessageError
)

// BoardMessage replaces the board when no puzzle can be shown.
type BoardMessage struct {
	Kind MessageKind
	Text string
}

// Summary is the info panel shown next to the board.
type Summary struct {
	Attribution string
	GameURL     string
	Eval        string
	Difficulty  string
	Turn        string
	MoveNumber  int
	BlunderSAN  string
	Position    int
	Total       int
	Placeholder bool
}

// Panel is the solution panel content.
type Panel struct {
	Correct     bool
	Annotation  string
	MoveText    string
	Explanation string
}

type Move struct {
	From string
	To   string
}

type PuzzleEvent struct {
	Key    string
	Index  int
	Puzzle puzzles.Puzzle
	At     time.Time
}

type AttemptEvent struct {
	Key            string
	Index          int
	PlayedUCI      string
	PlayedSAN      string
	Verdict        grading.Verdict
	FailedAttempts int
	StartedAt      time.Time
	At             time.Time
}

// Snapshot is a read-only copy of the controller state.
type Snapshot struct {
	Phase          Phase
	Index          int
	Total          int
	FEN            string
	LastMove       *Move
	SolutionSAN    string
	FailedAttempts int
	Revealed       bool
	Placeholder    bool
	Message        string
	Key            string
}
