package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLite(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return store
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	store := openStore(t)
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("second ensure schema: %v", err)
	}
}

func TestPuzzleRunAttemptsAndSummary(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	start := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

	runID, err := store.StartPuzzleRun(ctx, PuzzleRun{SessionID: "s1", PuzzleKey: "abc", PuzzleIndex: 0, Source: "puzzles.json", StartTS: start})
	if err != nil {
		t.Fatalf("start run: %v", err)
	}
	if err := store.RecordMoveAttempt(ctx, runID, MoveAttempt{PlayedUCI: "d2d3", PlayedSAN: "d3", At: start.Add(5 * time.Second)}); err != nil {
		t.Fatalf("record wrong attempt: %v", err)
	}
	if err := store.RecordMoveAttempt(ctx, runID, MoveAttempt{PlayedUCI: "h5f7", PlayedSAN: "Qxf7#", Correct: true, Score: 850, At: start.Add(9 * time.Second)}); err != nil {
		t.Fatalf("record correct attempt: %v", err)
	}

	revealID, err := store.StartPuzzleRun(ctx, PuzzleRun{SessionID: "s1", PuzzleKey: "def", PuzzleIndex: 2, StartTS: start.Add(time.Minute)})
	if err != nil {
		t.Fatalf("start second run: %v", err)
	}
	if err := store.MarkRevealed(ctx, revealID); err != nil {
		t.Fatalf("mark revealed: %v", err)
	}

	sum, err := store.GetSummary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.PuzzleRuns != 2 || sum.Attempts != 2 || sum.Solved != 1 || sum.Revealed != 1 || sum.BestScore != 850 {
		t.Fatalf("unexpected summary %#v", sum)
	}

	last, err := store.GetLastRun(ctx)
	if err != nil {
		t.Fatalf("last run: %v", err)
	}
	if last == nil || last.PuzzleKey != "def" || !last.Revealed || last.Solved {
		t.Fatalf("unexpected last run %#v", last)
	}
	if !last.StartTS.Equal(start.Add(time.Minute)) {
		t.Fatalf("expected start ts round trip, got %v", last.StartTS)
	}
}

func TestGetLastRunEmpty(t *testing.T) {
	store := openStore(t)
	last, err := store.GetLastRun(context.Background())
	if err != nil {
		t.Fatalf("last run: %v", err)
	}
	if last != nil {
		t.Fatalf("expected no run, got %#v", last)
	}
}

func TestPuzzleProgressKeepsBestScore(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	played := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

	if err := store.UpsertPuzzleProgress(ctx, PuzzleProgressUpdate{PuzzleKey: "abc", Solved: true, Score: 900, LastPlayedTS: played}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	// A lower score must not overwrite the best one.
	if err := store.UpsertPuzzleProgress(ctx, PuzzleProgressUpdate{PuzzleKey: "abc", Solved: false, Score: 0, LastPlayedTS: played.Add(time.Hour)}); err != nil {
		t.Fatalf("upsert unsolved: %v", err)
	}
	if err := store.UpsertPuzzleProgress(ctx, PuzzleProgressUpdate{PuzzleKey: "  "}); err != nil {
		t.Fatalf("blank key should be ignored: %v", err)
	}

	progress, err := store.GetPuzzleProgressMap(ctx)
	if err != nil {
		t.Fatalf("progress map: %v", err)
	}
	if len(progress) != 1 {
		t.Fatalf("expected one entry, got %d", len(progress))
	}
	p := progress["abc"]
	if p.SolvedCount != 1 || p.BestScore != 900 {
		t.Fatalf("unexpected progress %#v", p)
	}
	if !p.LastSolvedTS.Equal(played) || !p.LastPlayedTS.Equal(played.Add(time.Hour)) {
		t.Fatalf("unexpected timestamps %#v", p)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.SaveSettings(ctx, map[string]string{"ui.style": "cozy_clean", " ": "skip"}); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	if err := store.SaveSettings(ctx, map[string]string{"ui.style": "retro_terminal"}); err != nil {
		t.Fatalf("overwrite settings: %v", err)
	}
	got, err := store.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if len(got) != 1 || got["ui.style"] != "retro_terminal" {
		t.Fatalf("unexpected settings %#v", got)
	}
}
