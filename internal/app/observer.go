package app

import (
	"context"
	"sync"
	"time"

	"blunderboard/internal/grading"
	"blunderboard/internal/state"
	"blunderboard/internal/telemetry"
	"blunderboard/internal/widget"
)

const progressWriteTimeout = 2 * time.Second

// progressRecorder persists puzzle runs as the controller reports them.
type progressRecorder struct {
	store     state.Store
	logger    *telemetry.JSONLogger
	sessionID string
	source    string

	mu       sync.Mutex
	runID    int64
	runKey   string
	revealed bool
}

func newProgressRecorder(store state.Store, logger *telemetry.JSONLogger, sessionID, source string) *progressRecorder {
	return &progressRecorder{store: store, logger: logger, sessionID: sessionID, source: source}
}

var _ widget.Observer = (*progressRecorder)(nil)

func (r *progressRecorder) PuzzleShown(ev widget.PuzzleEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), progressWriteTimeout)
	defer cancel()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.runID = 0
	r.runKey = ev.Key
	r.revealed = false

	id, err := r.store.StartPuzzleRun(ctx, state.PuzzleRun{
		SessionID:   r.sessionID,
		PuzzleKey:   ev.Key,
		PuzzleIndex: ev.Index,
		Source:      r.source,
		StartTS:     ev.At,
	})
	if err != nil {
		r.failed("start_run", ev.Key, err)
		return
	}
	r.runID = id
	if err := r.store.UpsertPuzzleProgress(ctx, state.PuzzleProgressUpdate{PuzzleKey: ev.Key, LastPlayedTS: ev.At}); err != nil {
		r.failed("upsert_progress", ev.Key, err)
	}
}

func (r *progressRecorder) MoveGraded(ev widget.AttemptEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), progressWriteTimeout)
	defer cancel()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.runID == 0 || r.runKey != ev.Key {
		return
	}

	score := 0
	if ev.Verdict.Correct {
		score = grading.ScoreRun(grading.RunRequest{
			StartedAt:      ev.StartedAt,
			FinishedAt:     ev.At,
			Solved:         true,
			FailedAttempts: ev.FailedAttempts,
			Revealed:       r.revealed,
		}).TotalPoints
	}
	if err := r.store.RecordMoveAttempt(ctx, r.runID, state.MoveAttempt{
		PlayedUCI: ev.PlayedUCI,
		PlayedSAN: ev.PlayedSAN,
		Correct:   ev.Verdict.Correct,
		Score:     score,
		At:        ev.At,
	}); err != nil {
		r.failed("record_attempt", ev.Key, err)
		return
	}
	if !ev.Verdict.Correct {
		return
	}
	if err := r.store.UpsertPuzzleProgress(ctx, state.PuzzleProgressUpdate{
		PuzzleKey:    ev.Key,
		Solved:       !r.revealed,
		Score:        score,
		LastPlayedTS: ev.At,
	}); err != nil {
		r.failed("upsert_progress", ev.Key, err)
	}
}

func (r *progressRecorder) SolutionRevealed(ev widget.PuzzleEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), progressWriteTimeout)
	defer cancel()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.runID == 0 || r.runKey != ev.Key || r.revealed {
		return
	}
	r.revealed = true
	if err := r.store.MarkRevealed(ctx, r.runID); err != nil {
		r.failed("mark_revealed", ev.Key, err)
	}
}

func (r *progressRecorder) failed(op, key string, err error) {
	r.logger.Error("progress.write_failed", map[string]any{"op": op, "puzzle_key": key, "error": err.Error()})
}
