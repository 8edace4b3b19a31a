package widget

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"blunderboard/internal/puzzles"
)

type fakeTimer struct {
	at      time.Duration
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// fakeScheduler runs callbacks only when the test advances its clock.
type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &fakeTimer{at: s.now + d, seq: s.seq, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()
	for {
		s.mu.Lock()
		var due []*fakeTimer
		for _, t := range s.timers {
			if !t.fired && !t.stopped && t.at <= target {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			s.now = target
			s.mu.Unlock()
			return
		}
		sort.Slice(due, func(i, j int) bool {
			if due[i].at == due[j].at {
				return due[i].seq < due[j].seq
			}
			return due[i].at < due[j].at
		})
		next := due[0]
		next.fired = true
		s.now = next.at
		s.mu.Unlock()
		next.fn()
	}
}

type fakeRenderer struct {
	fen         string
	animated    []bool
	orientation puzzles.Color
	draggable   bool
	highlight   *Move
	highlights  []Move
	snapBacks   int
	summary     Summary
	panel       *Panel
	flashes     []FlashKind
	note        string
	message     *BoardMessage
}

func (r *fakeRenderer) SetPosition(fen string, animate bool) {
	r.fen = fen
	r.animated = append(r.animated, animate)
	r.message = nil
}
func (r *fakeRenderer) SetOrientation(color puzzles.Color) { r.orientation = color }
func (r *fakeRenderer) SetDraggable(enabled bool)          { r.draggable = enabled }
func (r *fakeRenderer) Highlight(from, to string) {
	r.highlight = &Move{From: from, To: to}
	r.highlights = append(r.highlights, Move{From: from, To: to})
}
func (r *fakeRenderer) ClearHighlights()      { r.highlight = nil }
func (r *fakeRenderer) SnapBack()             { r.snapBacks++ }
func (r *fakeRenderer) ShowSummary(s Summary) { r.summary = s }
func (r *fakeRenderer) ShowSolution(p Panel)  { r.panel = &p }
func (r *fakeRenderer) HideSolution()         { r.panel = nil }
func (r *fakeRenderer) Flash(kind FlashKind)  { r.flashes = append(r.flashes, kind) }
func (r *fakeRenderer) ShowNote(text string)  { r.note = text }
func (r *fakeRenderer) ShowBoardMessage(msg BoardMessage) {
	m := msg
	r.message = &m
}

type staticSource struct {
	body string
	err  error
}

func (s staticSource) Location() string { return "memory" }

func (s staticSource) Load(_ context.Context, _ puzzles.LoadOptions) (puzzles.Set, error) {
	if s.err != nil {
		return puzzles.Set{}, s.err
	}
	return puzzles.Decode(strings.NewReader(s.body))
}

type recordingObserver struct {
	shown    []PuzzleEvent
	graded   []AttemptEvent
	revealed []PuzzleEvent
}

func (o *recordingObserver) PuzzleShown(ev PuzzleEvent)      { o.shown = append(o.shown, ev) }
func (o *recordingObserver) MoveGraded(ev AttemptEvent)      { o.graded = append(o.graded, ev) }
func (o *recordingObserver) SolutionRevealed(ev PuzzleEvent) { o.revealed = append(o.revealed, ev) }
