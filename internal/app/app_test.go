package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"blunderboard/internal/chessrules"
	"blunderboard/internal/devtools"
	"blunderboard/internal/puzzles"
	"blunderboard/internal/state"
	"blunderboard/internal/telemetry"
	"blunderboard/internal/widget"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Timing = TimingConfig{PreBlunderHoldMS: 1, BlunderSettleMS: 1, FailedRevertMS: 1}
	cfg.UI.MotionLevel = "off"
	cfg.Puzzles.Seed = 7
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	return cfg
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	a, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(a.Close)
	if err := a.loadCollection(context.Background(), false); err != nil {
		t.Fatalf("load collection: %v", err)
	}
	return a
}

func waitPhase(t *testing.T, a *App, phase widget.Phase) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := a.waitForPhase(ctx, phase); err != nil {
		t.Fatalf("phase %s never reached (now %s): %v", phase, a.ctrl.Snapshot().Phase, err)
	}
}

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.UI.StyleVariant != "modern_arcade" || cfg.UI.MotionLevel != "full" {
		t.Fatalf("unexpected ui defaults %#v", cfg.UI)
	}
	if got := cfg.widgetTiming(); got.PreBlunderHold != time.Second || got.BlunderSettle != 1500*time.Millisecond {
		t.Fatalf("unexpected timing %#v", got)
	}
	if cfg.fetchTimeout() != 10*time.Second {
		t.Fatalf("unexpected fetch timeout %v", cfg.fetchTimeout())
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []func(*Config){
		func(c *Config) { c.UI.StyleVariant = "neon" },
		func(c *Config) { c.UI.MotionLevel = "wild" },
		func(c *Config) { c.Timing.FailedRevertMS = -1 },
	}
	for i, mutate := range cases {
		cfg := DefaultConfig()
		cfg.DataDir = t.TempDir()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestLoadFileOverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "puzzles:\n  location: https://example.com/puzzles.json\n  seed: 42\ntiming:\n  pre_blunder_hold_ms: 250\nui:\n  style: cozy_clean\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("load file: %v", err)
	}
	if cfg.Puzzles.Location != "https://example.com/puzzles.json" || cfg.Puzzles.Seed != 42 {
		t.Fatalf("unexpected puzzles config %#v", cfg.Puzzles)
	}
	if cfg.Timing.PreBlunderHoldMS != 250 || cfg.Timing.FailedRevertMS != 1500 {
		t.Fatalf("unexpected timing %#v", cfg.Timing)
	}
	if cfg.UI.StyleVariant != "cozy_clean" || cfg.UI.MotionLevel != "full" {
		t.Fatalf("unexpected ui %#v", cfg.UI)
	}

	if err := cfg.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(bad, []byte("ui: [unterminated"), 0o644)
	if err := cfg.LoadFile(bad); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BLUNDERBOARD_UI_STYLE", "retro_terminal")
	t.Setenv("BLUNDERBOARD_PUZZLES_LOCATION", "/tmp/puzzles.json")
	t.Setenv("BLUNDERBOARD_TIMING_BLUNDER_SETTLE_MS", "900")
	t.Setenv("BLUNDERBOARD_ASCII_ONLY", "true")

	cfg := DefaultConfig()
	if err := cfg.LoadEnv(); err != nil {
		t.Fatalf("load env: %v", err)
	}
	if cfg.UI.StyleVariant != "retro_terminal" || cfg.Puzzles.Location != "/tmp/puzzles.json" {
		t.Fatalf("unexpected config %#v", cfg)
	}
	if cfg.Timing.BlunderSettleMS != 900 || !cfg.ASCIIOnly {
		t.Fatalf("unexpected overrides %#v", cfg)
	}
}

func TestPuzzleRoutesServeFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "puzzles.json")
	if err := os.WriteFile(file, []byte(`{"platform":"lichess","puzzles":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(PuzzleRoutes(file))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/puzzles.json?t=123")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Cache-Control") != "no-cache" {
		t.Fatalf("expected no-cache header, got %q", resp.Header.Get("Cache-Control"))
	}
	if !strings.Contains(string(body), "lichess") {
		t.Fatalf("unexpected body %q", body)
	}

	resp, err = http.Post(srv.URL+"/puzzles.json", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected healthz 200, got %d", resp.StatusCode)
	}
}

func TestServeRejectsUndecodableFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "puzzles.json")
	_ = os.WriteFile(file, []byte("<html>"), 0o644)
	err := Serve(context.Background(), "127.0.0.1:0", file, telemetry.NewWriterLogger(io.Discard))
	if err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	file := filepath.Join(t.TempDir(), "puzzles.json")
	_ = os.WriteFile(file, []byte(`{"puzzles":[]}`), 0o644)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0", file, telemetry.NewWriterLogger(io.Discard)) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not stop")
	}
}

func TestWrongMoveAvoidsSolution(t *testing.T) {
	set := devtools.SampleSet()
	p := set.Puzzles[0]
	solution, _ := p.FirstSolution()

	from, to, err := wrongMove(p.FEN, solution)
	if err != nil {
		t.Fatalf("wrong move: %v", err)
	}
	if from+to == solution[:4] {
		t.Fatalf("expected a move other than %s", solution)
	}
	eng, err := chessrules.New(p.FEN)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Move(from, to); err != nil {
		t.Fatalf("wrong move %s%s is not legal: %v", from, to, err)
	}

	if _, _, err := wrongMove("not a fen", solution); err == nil {
		t.Fatalf("expected error for invalid fen")
	}
}

func TestSolvingRecordsProgress(t *testing.T) {
	a := newTestApp(t)
	waitPhase(t, a, widget.PhaseAwaitingMove)

	if !a.OnMoveAttempt("f3", "f7") {
		t.Fatalf("expected solution move to be accepted")
	}
	if got := a.ctrl.Snapshot().Phase; got != widget.PhaseSolved {
		t.Fatalf("expected solved, got %s", got)
	}

	sum, err := a.store.GetSummary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.PuzzleRuns != 1 || sum.Attempts != 1 || sum.Solved != 1 || sum.BestScore <= 0 {
		t.Fatalf("unexpected summary %#v", sum)
	}
	progress, err := a.store.GetPuzzleProgressMap(context.Background())
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	key := a.ctrl.Snapshot().Key
	if progress[key].SolvedCount != 1 {
		t.Fatalf("expected progress for %s, got %#v", key, progress)
	}
}

func TestRevealedRunScoresNothing(t *testing.T) {
	a := newTestApp(t)
	waitPhase(t, a, widget.PhaseAwaitingMove)

	a.OnShowSolution()
	sum, err := a.store.GetSummary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Revealed != 1 || sum.Solved != 0 || sum.BestScore != 0 {
		t.Fatalf("unexpected summary %#v", sum)
	}
}

func TestDevDemoSolvedAndReady(t *testing.T) {
	a := newTestApp(t)
	srv := httptest.NewServer(a.devRoutes())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/__dev/demo", "application/json", strings.NewReader(`{"demo":"reveal"}`))
	if err != nil {
		t.Fatalf("post demo: %v", err)
	}
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK || out["state"] != "solved" {
		t.Fatalf("unexpected demo response %d %#v", resp.StatusCode, out)
	}

	resp, err = http.Get(srv.URL + "/__dev/ready")
	if err != nil {
		t.Fatalf("ready: %v", err)
	}
	var ready DevState
	_ = json.NewDecoder(resp.Body).Decode(&ready)
	_ = resp.Body.Close()
	if !ready.OK || !ready.Rendered || ready.State != "solved" || ready.Phase != string(widget.PhaseSolved) {
		t.Fatalf("unexpected ready state %#v", ready)
	}
	if ready.Total != 1 || ready.Index != 0 {
		t.Fatalf("unexpected position in collection %#v", ready)
	}

	b, err := os.ReadFile(filepath.Join(a.cfg.DataDir, "cache", "dev_state.json"))
	if err != nil {
		t.Fatalf("read dev state file: %v", err)
	}
	if !strings.Contains(string(b), `"solved"`) {
		t.Fatalf("unexpected dev state file %s", b)
	}
}

func TestDevDemoWrongMove(t *testing.T) {
	a := newTestApp(t)
	resolved, err := a.runDemoScenario(context.Background(), "wrong", 3*time.Second)
	if err != nil {
		t.Fatalf("demo: %v", err)
	}
	if resolved != "failed" {
		t.Fatalf("expected failed scenario, got %q", resolved)
	}
	sum, err := a.store.GetSummary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Attempts != 1 || sum.Solved != 0 {
		t.Fatalf("unexpected summary %#v", sum)
	}
}

func TestDevDemoRejectsBadRequests(t *testing.T) {
	a := newTestApp(t)
	srv := httptest.NewServer(a.devRoutes())
	defer srv.Close()

	for _, body := range []string{"{", `{"demo":"  "}`} {
		resp, err := http.Post(srv.URL+"/__dev/demo", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, resp.StatusCode)
		}
	}

	resp, err := http.Get(srv.URL + "/__dev/demo")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}

func TestCycleThemePersists(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	a.OnCycleTheme()
	a.Close()

	b, err := New(cfg)
	if err != nil {
		t.Fatalf("reopen app: %v", err)
	}
	defer b.Close()
	if b.style != "cozy_clean" {
		t.Fatalf("expected stored style to win, got %q", b.style)
	}
}

func TestBuildStatsMarkdown(t *testing.T) {
	store, err := state.NewSQLite(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatal(err)
	}

	set := devtools.SampleSet()
	list := puzzles.Prepare(set)
	key := list[0].Key()
	runID, err := store.StartPuzzleRun(ctx, state.PuzzleRun{SessionID: "s", PuzzleKey: key, StartTS: time.Now()})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.RecordMoveAttempt(ctx, runID, state.MoveAttempt{PlayedUCI: "f3f7", Correct: true, Score: 700}); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertPuzzleProgress(ctx, state.PuzzleProgressUpdate{PuzzleKey: key, Solved: true, Score: 700}); err != nil {
		t.Fatal(err)
	}

	st, err := buildStats(ctx, store, set, list)
	if err != nil {
		t.Fatalf("build stats: %v", err)
	}
	if st.Solved != 1 || st.Attempted != 1 {
		t.Fatalf("unexpected counts %#v", st)
	}
	for _, want := range []string{"# Collection", "Puzzles: 1", "Placeholder collection", "Best score: 700", "Collection solved: 1 of 1", "| Easy | 1 |", "Last puzzle: solved after 1 move"} {
		if !strings.Contains(st.Markdown, want) {
			t.Fatalf("expected %q in markdown:\n%s", want, st.Markdown)
		}
	}
}

func TestStatsCommandUsesSample(t *testing.T) {
	cfg := testConfig(t)
	out, err := Stats(context.Background(), cfg)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out, "Puzzles attempted: 0") {
		t.Fatalf("unexpected stats output:\n%s", out)
	}
}
