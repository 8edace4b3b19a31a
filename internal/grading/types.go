package grading

import "time"

const (
	ResultKind    = "move_verdict"
	SchemaVersion = 1
)

type Verdict struct {
	Kind          string `json:"kind"`
	SchemaVersion int    `json:"schema_version"`

	Correct  bool   `json:"correct"`
	Expected string `json:"expected"`
	Played   string `json:"played"`
}

// RunRequest describes one finished puzzle run for scoring.
type RunRequest struct {
	StartedAt  time.Time
	FinishedAt time.Time

	Solved         bool
	FailedAttempts int
	Revealed       bool

	BasePoints           int
	TimeGraceSeconds     int
	TimePenaltyPerSecond int
	AttemptPenaltyPoints int
}

type Score struct {
	BasePoints           int          `json:"base_points"`
	TimeGraceSeconds     int          `json:"time_grace_seconds,omitempty"`
	TimePenaltyPoints    int          `json:"time_penalty_points,omitempty"`
	AttemptPenaltyPoints int          `json:"attempt_penalty_points,omitempty"`
	TotalPoints          int          `json:"total_points"`
	Breakdown            []ScoreDelta `json:"breakdown,omitempty"`
}

type ScoreDelta struct {
	Kind        string `json:"kind"`
	Points      int    `json:"points"`
	Description string `json:"description"`
}
