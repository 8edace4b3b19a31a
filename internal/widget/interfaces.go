package widget

import (
	"time"

	"blunderboard/internal/puzzles"
)

// Renderer draws the board and the text panels around it.
type Renderer interface {
	SetPosition(fen string, animate bool)
	SetOrientation(color puzzles.Color)
	SetDraggable(enabled bool)
	Highlight(from, to string)
	ClearHighlights()
	SnapBack()
	ShowSummary(s Summary)
	ShowSolution(p Panel)
	HideSolution()
	Flash(kind FlashKind)
	ShowNote(text string)
	ShowBoardMessage(msg BoardMessage)
}

// Handlers is what a Renderer calls back into when the user acts on the board.
type Handlers interface {
	OnMoveAttempt(from, to string) bool
	OnAnimationSettled()
}

type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

type Timer interface {
	Stop() bool
}

type Logger interface {
	Info(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

// Observer receives progress events. Calls are made with the controller lock held and
// must not call back into the controller.
type Observer interface {
	PuzzleShown(ev PuzzleEvent)
	MoveGraded(ev AttemptEvent)
	SolutionRevealed(ev PuzzleEvent)
}

type ClockScheduler struct{}

func (ClockScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

type nopLogger struct{}

func (nopLogger) Info(string, map[string]any)  {}
func (nopLogger) Error(string, map[string]any) {}

type nopObserver struct{}

func (nopObserver) PuzzleShown(PuzzleEvent)      {}
func (nopObserver) MoveGraded(AttemptEvent)      {}
func (nopObserver) SolutionRevealed(PuzzleEvent) {}
