package app

import (
	"context"

	"blunderboard/internal/puzzles"
	"blunderboard/internal/ui"
	"blunderboard/internal/widget"
)

// PuzzleController is the part of widget.Controller the app drives.
type PuzzleController interface {
	LoadCollection(ctx context.Context) error
	Reload(ctx context.Context) error
	DisplayPuzzle(index int)
	SelectAnother()
	ShowSolution()
	OnMoveAttempt(from, to string) bool
	OnAnimationSettled()
	Snapshot() widget.Snapshot
	Collection() (puzzles.Set, []puzzles.Puzzle)
}

var _ PuzzleController = (*widget.Controller)(nil)

var _ ui.Controller = (*App)(nil)
