package state

import (
	"context"
	"time"
)

type Store interface {
	EnsureSchema(ctx context.Context) error
	StartPuzzleRun(ctx context.Context, run PuzzleRun) (int64, error)
	RecordMoveAttempt(ctx context.Context, runID int64, attempt MoveAttempt) error
	MarkRevealed(ctx context.Context, runID int64) error
	UpsertPuzzleProgress(ctx context.Context, update PuzzleProgressUpdate) error
	GetPuzzleProgressMap(ctx context.Context) (map[string]PuzzleProgress, error)
	SaveSettings(ctx context.Context, values map[string]string) error
	LoadSettings(ctx context.Context) (map[string]string, error)
	GetSummary(ctx context.Context) (Summary, error)
	GetLastRun(ctx context.Context) (*LastRun, error)
	Close() error
}

type PuzzleRun struct {
	SessionID   string
	PuzzleKey   string
	PuzzleIndex int
	Source      string
	StartTS     time.Time
}

type MoveAttempt struct {
	PlayedUCI string
	PlayedSAN string
	Correct   bool
	Score     int
	At        time.Time
}

type Summary struct {
	PuzzleRuns int
	Attempts   int
	Solved     int
	Revealed   int
	BestScore  int
}

type LastRun struct {
	PuzzleKey   string
	PuzzleIndex int
	StartTS     time.Time
	Solved      bool
	Revealed    bool
	Attempts    int
}

type PuzzleProgress struct {
	PuzzleKey    string
	SolvedCount  int
	BestScore    int
	LastPlayedTS time.Time
	LastSolvedTS time.Time
}

type PuzzleProgressUpdate struct {
	PuzzleKey    string
	Solved       bool
	Score        int
	LastPlayedTS time.Time
}
