package widget

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"blunderboard/internal/chessrules"
	"blunderboard/internal/grading"
	"blunderboard/internal/puzzles"
)

type Options struct {
	Source    puzzles.Source
	Renderer  Renderer
	Scheduler Scheduler
	Logger    Logger
	Observer  Observer
	Timing    Timing
	Rand      *rand.Rand
	Now       func() time.Time
}

// Controller owns the puzzle collection and the lifecycle of the one active puzzle.
// All methods are safe for concurrent use; timer callbacks and user input are
// serialized through mu.
type Controller struct {
	mu sync.Mutex

	source puzzles.Source
	view   Renderer
	sched  Scheduler
	log    Logger
	obs    Observer
	timing Timing
	rng    *rand.Rand
	now    func() time.Time

	set     puzzles.Set
	active  []puzzles.Puzzle
	phase   Phase
	state   *puzzleState
	loadSeq uint64
	gen     uint64
	pending []Timer
}

type puzzleState struct {
	index  int
	puzzle puzzles.Puzzle
	phase  Phase
	engine *chessrules.Engine

	lastMove       *Move
	solutionSAN    string
	revertFEN      string
	startedAt      time.Time
	failedAttempts int
	revealed       bool
}

func New(opts Options) *Controller {
	c := &Controller{
		source: opts.Source,
		view:   opts.Renderer,
		sched:  opts.Scheduler,
		log:    opts.Logger,
		obs:    opts.Observer,
		timing: opts.Timing.withDefaults(),
		rng:    opts.Rand,
		now:    opts.Now,
		phase:  PhaseLoading,
	}
	if c.sched == nil {
		c.sched = ClockScheduler{}
	}
	if c.log == nil {
		c.log = nopLogger{}
	}
	if c.obs == nil {
		c.obs = nopObserver{}
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// LoadCollection fetches the collection and shows the newest eligible puzzle.
func (c *Controller) LoadCollection(ctx context.Context) error {
	return c.load(ctx, puzzles.LoadOptions{})
}

// Reload refetches the collection bypassing caches.
func (c *Controller) Reload(ctx context.Context) error {
	return c.load(ctx, puzzles.LoadOptions{Refresh: true})
}

func (c *Controller) load(ctx context.Context, opts puzzles.LoadOptions) error {
	c.mu.Lock()
	c.cancelPendingLocked()
	c.state = nil
	c.phase = PhaseLoading
	c.loadSeq++
	seq := c.loadSeq
	c.view.SetDraggable(false)
	c.view.HideSolution()
	c.view.ShowBoardMessage(BoardMessage{Kind: MessageLoading, Text: "Loading puzzles..."})
	c.mu.Unlock()

	set, err := c.source.Load(ctx, opts)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.loadSeq {
		return nil
	}
	if err != nil {
		c.phase = PhaseUnavailable
		c.log.Error("puzzles.load.failed", map[string]any{"location": c.source.Location(), "refresh": opts.Refresh, "error": err.Error()})
		c.view.ShowBoardMessage(BoardMessage{Kind: MessageError, Text: "Error loading puzzles. Press r to retry."})
		return fmt.Errorf("load puzzles: %w", err)
	}

	c.set = set
	c.active = puzzles.Prepare(set)
	c.log.Info("puzzles.load.done", map[string]any{
		"location":    c.source.Location(),
		"total":       len(set.Puzzles),
		"eligible":    len(c.active),
		"placeholder": set.IsPlaceholder,
	})
	if len(c.active) == 0 {
		c.phase = PhaseUnavailable
		c.view.ShowBoardMessage(BoardMessage{Kind: MessageEmpty, Text: "No puzzles available yet. Check back soon!"})
		return nil
	}
	if set.IsPlaceholder && strings.TrimSpace(set.Message) != "" {
		c.view.ShowNote(set.Message)
	} else {
		c.view.ShowNote("")
	}
	c.displayLocked(0)
	return nil
}

// DisplayPuzzle makes the puzzle at index active, clamped into range.
func (c *Controller) DisplayPuzzle(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.displayLocked(index)
}

func (c *Controller) displayLocked(index int) {
	if len(c.active) == 0 {
		return
	}
	index = max(0, min(index, len(c.active)-1))
	c.cancelPendingLocked()

	p := c.active[index]
	st := &puzzleState{index: index, puzzle: p, phase: PhaseShowingPreBlunder, startedAt: c.now()}
	c.state = st
	c.phase = st.phase

	c.view.SetDraggable(false)
	c.view.ClearHighlights()
	c.view.HideSolution()
	c.view.ShowSummary(c.summaryFor(index, p))
	c.view.SetOrientation(p.PlayerColor)

	engine, err := chessrules.New(p.StartFEN())
	if err != nil {
		st.phase = PhaseUnavailable
		c.phase = st.phase
		c.log.Error("puzzle.position.invalid", map[string]any{"index": index, "fen": p.StartFEN(), "error": err.Error()})
		c.view.ShowBoardMessage(BoardMessage{Kind: MessageError, Text: "This puzzle could not be loaded. Press n for another."})
		return
	}
	st.engine = engine
	c.view.SetPosition(engine.FEN(), false)
	c.log.Info("puzzle.display", map[string]any{"index": index, "key": p.Key(), "eval_change": p.EvalChange})
	c.obs.PuzzleShown(PuzzleEvent{Key: p.Key(), Index: index, Puzzle: p, At: st.startedAt})

	c.afterLocked(c.timing.PreBlunderHold, func() { c.replayBlunderLocked(st) })
}

func (c *Controller) replayBlunderLocked(st *puzzleState) {
	if st.phase != PhaseShowingPreBlunder {
		return
	}
	if st.puzzle.PreBlunderFEN == "" {
		c.log.Info("puzzle.blunder.skipped", map[string]any{"index": st.index, "reason": "no pre-blunder position"})
		c.enterAwaitingLocked(st)
		return
	}
	st.phase = PhaseAnimatingBlunder
	c.phase = st.phase

	rec, err := c.applyBlunder(st)
	if err != nil {
		c.log.Error("puzzle.blunder.replay_failed", map[string]any{
			"index": st.index,
			"uci":   st.puzzle.BlunderedMoveUCI,
			"san":   st.puzzle.BlunderedMoveSAN,
			"error": err.Error(),
		})
		c.enterAwaitingLocked(st)
		return
	}
	st.lastMove = &Move{From: rec.From, To: rec.To}
	c.view.SetPosition(rec.FENAfter, true)
	c.view.Highlight(rec.From, rec.To)
	c.afterLocked(c.timing.BlunderSettle, func() { c.enterAwaitingLocked(st) })
}

// applyBlunder tries the recorded UCI form, then SAN, then a scan over legal moves.
func (c *Controller) applyBlunder(st *puzzleState) (chessrules.MoveRecord, error) {
	p := st.puzzle
	var errs []string
	if p.BlunderedMoveUCI != "" {
		rec, err := st.engine.ApplyUCI(p.BlunderedMoveUCI)
		if err == nil {
			return rec, nil
		}
		errs = append(errs, err.Error())
	}
	if p.BlunderedMoveSAN != "" {
		rec, err := st.engine.ApplySAN(p.BlunderedMoveSAN)
		if err == nil {
			return rec, nil
		}
		errs = append(errs, err.Error())
		rec, err = st.engine.ApplyByScan(p.BlunderedMoveSAN)
		if err == nil {
			return rec, nil
		}
		errs = append(errs, err.Error())
	}
	if len(errs) == 0 {
		return chessrules.MoveRecord{}, fmt.Errorf("no blundered move recorded")
	}
	return chessrules.MoveRecord{}, fmt.Errorf("%s", strings.Join(errs, "; "))
}

func (c *Controller) enterAwaitingLocked(st *puzzleState) {
	if st.phase != PhaseShowingPreBlunder && st.phase != PhaseAnimatingBlunder {
		return
	}
	st.phase = PhaseAwaitingMove
	c.phase = st.phase
	if uci, ok := st.puzzle.FirstSolution(); ok {
		san, err := st.engine.SANForUCI(uci)
		if err != nil {
			c.log.Error("puzzle.solution.unreadable", map[string]any{"index": st.index, "uci": uci, "error": err.Error()})
			san = uci
		}
		st.solutionSAN = san
	}
	c.view.SetDraggable(true)
}

// OnMoveAttempt grades a dropped piece. It returns false when the move was rejected and
// the piece should snap back.
func (c *Controller) OnMoveAttempt(from, to string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.state
	if st == nil || st.phase != PhaseAwaitingMove || st.engine.IsGameOver() {
		c.view.SnapBack()
		return false
	}
	if color, ok := st.engine.PieceColorAt(from); !ok || color != st.engine.Turn() {
		c.view.SnapBack()
		return false
	}
	rec, err := st.engine.Move(from, to)
	if err != nil {
		c.view.SnapBack()
		return false
	}

	st.lastMove = &Move{From: rec.From, To: rec.To}
	c.view.SetPosition(rec.FENAfter, false)
	c.view.Highlight(rec.From, rec.To)

	verdict := grading.Grade(st.puzzle.Solution, rec.UCI)
	if !verdict.Correct {
		st.failedAttempts++
	}
	c.log.Info("puzzle.move.graded", map[string]any{"index": st.index, "played": rec.UCI, "san": rec.SAN, "correct": verdict.Correct})
	c.obs.MoveGraded(AttemptEvent{
		Key:            st.puzzle.Key(),
		Index:          st.index,
		PlayedUCI:      rec.UCI,
		PlayedSAN:      rec.SAN,
		Verdict:        verdict,
		FailedAttempts: st.failedAttempts,
		StartedAt:      st.startedAt,
		At:             c.now(),
	})

	c.view.SetDraggable(false)
	if verdict.Correct {
		st.phase = PhaseSolved
		c.phase = st.phase
		c.view.ShowSolution(c.correctPanel(st, rec.SAN, verdict))
		c.view.Flash(FlashPositive)
		return true
	}

	st.phase = PhaseFailed
	c.phase = st.phase
	c.view.ShowSolution(Panel{
		Correct:    false,
		Annotation: grading.Annotation(verdict),
		MoveText:   grading.Detail(verdict, st.solutionSAN),
	})
	c.view.Flash(FlashNegative)
	st.revertFEN = rec.FENBefore
	c.afterLocked(c.timing.FailedRevert, func() { c.revertLocked(st) })
	return true
}

// revertLocked restores the exact position from before the failed move.
func (c *Controller) revertLocked(st *puzzleState) {
	if st.phase != PhaseFailed {
		return
	}
	if err := st.engine.Undo(); err != nil || st.engine.FEN() != st.revertFEN {
		if err := st.engine.Load(st.revertFEN); err != nil {
			c.log.Error("puzzle.revert.failed", map[string]any{"index": st.index, "error": err.Error()})
		}
	}
	st.lastMove = nil
	st.phase = PhaseAwaitingMove
	c.phase = st.phase
	c.view.SetPosition(st.engine.FEN(), true)
	c.view.ClearHighlights()
	c.view.SetDraggable(true)
}

// ShowSolution plays the first solution move on the board. Pending replay steps are
// fast-forwarded first. It is a no-op when the puzzle has no solution.
func (c *Controller) ShowSolution() {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.state
	if st == nil || st.engine == nil {
		return
	}
	uci, ok := st.puzzle.FirstSolution()
	if !ok {
		return
	}

	switch st.phase {
	case PhaseSolved:
		c.view.ShowSolution(c.correctPanel(st, st.solutionSAN, grading.Grade(st.puzzle.Solution, uci)))
		return
	case PhaseShowingPreBlunder:
		c.cancelPendingLocked()
		c.replayBlunderLocked(st)
		c.cancelPendingLocked()
		c.enterAwaitingLocked(st)
	case PhaseAnimatingBlunder:
		c.cancelPendingLocked()
		c.enterAwaitingLocked(st)
	case PhaseFailed:
		c.cancelPendingLocked()
		c.revertLocked(st)
	case PhaseAwaitingMove:
	default:
		return
	}

	rec, err := st.engine.ApplyUCI(uci)
	if err != nil && len(uci) >= 4 {
		rec, err = st.engine.Move(uci[:2], uci[2:4])
	}
	if err != nil {
		c.log.Error("puzzle.solution.apply_failed", map[string]any{"index": st.index, "uci": uci, "error": err.Error()})
		return
	}

	st.lastMove = &Move{From: rec.From, To: rec.To}
	st.phase = PhaseSolved
	st.revealed = true
	c.phase = st.phase
	if st.solutionSAN == "" {
		st.solutionSAN = rec.SAN
	}
	c.view.SetDraggable(false)
	c.view.SetPosition(rec.FENAfter, true)
	c.view.Highlight(rec.From, rec.To)
	c.view.ShowSolution(c.correctPanel(st, rec.SAN, grading.Grade(st.puzzle.Solution, rec.UCI)))
	c.log.Info("puzzle.solution.revealed", map[string]any{"index": st.index, "uci": rec.UCI})
	c.obs.SolutionRevealed(PuzzleEvent{Key: st.puzzle.Key(), Index: st.index, Puzzle: st.puzzle, At: c.now()})
}

// SelectAnother shows a random puzzle other than the latest and the current one.
func (c *Controller) SelectAnother() {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.active)
	if n == 0 {
		return
	}
	current := -1
	if c.state != nil {
		current = c.state.index
	}
	c.displayLocked(pickAnother(c.rng, n, current))
}

func pickAnother(rng *rand.Rand, n, current int) int {
	if n <= 1 {
		return 0
	}
	candidates := make([]int, 0, n)
	for i := 1; i < n; i++ {
		if i != current {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		for i := 0; i < n; i++ {
			if i != current {
				candidates = append(candidates, i)
			}
		}
	}
	return candidates[rng.Intn(len(candidates))]
}

func (c *Controller) OnAnimationSettled() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fields := map[string]any{"phase": string(c.phase)}
	if c.state != nil {
		fields["index"] = c.state.index
	}
	c.log.Info("board.animation.settled", fields)
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{
		Phase:       c.phase,
		Index:       -1,
		Total:       len(c.active),
		Placeholder: c.set.IsPlaceholder,
		Message:     c.set.Message,
	}
	if st := c.state; st != nil {
		snap.Index = st.index
		snap.SolutionSAN = st.solutionSAN
		snap.FailedAttempts = st.failedAttempts
		snap.Revealed = st.revealed
		snap.Key = st.puzzle.Key()
		if st.lastMove != nil {
			mv := *st.lastMove
			snap.LastMove = &mv
		}
		if st.engine != nil {
			snap.FEN = st.engine.FEN()
		}
	}
	return snap
}

// Collection returns the loaded set and the eligible puzzles.
func (c *Controller) Collection() (puzzles.Set, []puzzles.Puzzle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set, append([]puzzles.Puzzle(nil), c.active...)
}

// afterLocked schedules fn under the lock. The callback is dropped if another puzzle
// was displayed (or the pending steps were cancelled) in the meantime.
func (c *Controller) afterLocked(d time.Duration, fn func()) {
	gen := c.gen
	t := c.sched.AfterFunc(d, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if gen != c.gen {
			return
		}
		fn()
	})
	c.pending = append(c.pending, t)
}

func (c *Controller) cancelPendingLocked() {
	c.gen++
	for _, t := range c.pending {
		t.Stop()
	}
	c.pending = c.pending[:0]
}

func (c *Controller) summaryFor(index int, p puzzles.Puzzle) Summary {
	return Summary{
		Attribution: attribution(c.set.Platform, c.set.Username),
		GameURL:     p.GameURL,
		Eval:        puzzles.FormatEvalChange(p.EvalChange),
		Difficulty:  puzzles.DifficultyLabel(p.Difficulty),
		Turn:        turnText(p.PlayerColor),
		MoveNumber:  p.MoveNumber,
		BlunderSAN:  p.BlunderedMoveSAN,
		Position:    index + 1,
		Total:       len(c.active),
		Placeholder: p.IsPlaceholder || c.set.IsPlaceholder,
	}
}

func (c *Controller) correctPanel(st *puzzleState, san string, v grading.Verdict) Panel {
	if san == "" {
		san = st.solutionSAN
	}
	panel := Panel{Correct: true, Annotation: grading.Annotation(v), MoveText: "Best move: " + san}
	if st.puzzle.ShowsSolutionText() {
		panel.Explanation = explanation(st.puzzle, san)
	}
	return panel
}

func explanation(p puzzles.Puzzle, san string) string {
	swing := puzzles.FormatEvalChange(p.EvalChange)
	if p.BlunderedMoveSAN == "" {
		return fmt.Sprintf("%s is the strongest reply. The blunder swung the evaluation by %s.", san, swing)
	}
	return fmt.Sprintf("%s punishes %s, which swung the evaluation by %s.", san, p.BlunderedMoveSAN, swing)
}

func attribution(platform, username string) string {
	platform = displayPlatform(platform)
	switch {
	case platform != "" && username != "":
		return fmt.Sprintf("From %s's games on %s", username, platform)
	case username != "":
		return fmt.Sprintf("From %s's games", username)
	case platform != "":
		return "From a game on " + platform
	}
	return ""
}

func displayPlatform(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	return strings.ToUpper(p[:1]) + p[1:]
}

func turnText(color puzzles.Color) string {
	if color == puzzles.ColorBlack {
		return "Black to move"
	}
	return "White to move"
}
