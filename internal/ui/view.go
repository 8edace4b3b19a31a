package ui

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"blunderboard/internal/chessrules"
	"blunderboard/internal/puzzles"
	"blunderboard/internal/widget"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/progress"
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/harmonica"
	clog "github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"
)

type applyMsg struct {
	fn func(*Root)
}

type animateMsg time.Time

// settleMsg ends a board animation. Stale sequence numbers are ignored.
type settleMsg struct {
	seq int
}

type boardKeyMap struct {
	Move     key.Binding
	Pick     key.Binding
	Cancel   key.Binding
	Solution key.Binding
	Another  key.Binding
	Reload   key.Binding
	Theme    key.Binding
	Stats    key.Binding
	Quit     key.Binding
}

func (k boardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Move, k.Pick, k.Solution, k.Another, k.Reload, k.Theme, k.Stats, k.Quit}
}

func (k boardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Move, k.Pick, k.Cancel}, {k.Solution, k.Another, k.Reload}, {k.Theme, k.Stats, k.Quit}}
}

type Root struct {
	theme        Theme
	ascii        bool
	debug        bool
	ctrl         Controller
	styleVariant string
	motionLevel  string

	mu      sync.Mutex
	program *tea.Program
	running bool

	layout LayoutMode
	cols   int
	rows   int

	fen         string
	pieces      map[string]chessrules.Piece
	orientation puzzles.Color
	draggable   bool
	highlight   *widget.Move
	cursorFile  int
	cursorRank  int
	selected    string
	boardMsg    *widget.BoardMessage

	settleSeq       int
	settleDue       bool
	settleScheduled bool

	summary     widget.Summary
	hasSummary  bool
	panel       *widget.Panel
	note        string
	statusFlash string

	flashKind widget.FlashKind
	flashPos  float64
	flashVel  float64

	stats     StatsState
	statsOpen bool

	help      help.Model
	keymap    boardKeyMap
	solvedBar progress.Model
	loadSpin  spinner.Model
	markdown  *glamour.TermRenderer
	noteMD    *glamour.TermRenderer
	logger    *clog.Logger
	spring    harmonica.Spring

	lastInputEvent string
}

type Options struct {
	ASCIIOnly    bool
	Debug        bool
	StyleVariant string
	MotionLevel  string
}

func New(opts Options) *Root {
	logger := clog.NewWithOptions(os.Stderr, clog.Options{Prefix: "blunderboard-ui", Level: clog.WarnLevel})
	if opts.Debug {
		logger.SetLevel(clog.DebugLevel)
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(60),
	)
	if err != nil {
		renderer = nil
	}
	noteRenderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(34),
	)
	if err != nil {
		noteRenderer = nil
	}

	h := help.New()
	h.Styles = help.DefaultDarkStyles()
	motionLevel := normalizeMotionLevel(opts.MotionLevel)
	styleVariant := normalizeStyleVariant(opts.StyleVariant)
	theme := ThemeForVariant(styleVariant)
	spring := harmonica.NewSpring(harmonica.FPS(60), 6.0, 0.9)
	if motionLevel == "reduced" {
		spring = harmonica.NewSpring(harmonica.FPS(30), 9.0, 1.0)
	}
	solvedBar := progress.New(
		progress.WithWidth(24),
		progress.WithColors(lipgloss.Color("#FF6F91"), lipgloss.Color("#FFC857"), lipgloss.Color("#67F0A8")),
		progress.WithScaled(true),
	)
	if motionLevel == "off" {
		solvedBar.SetSpringOptions(1000.0, 1.0)
	}
	loadSpin := spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(theme.Accent),
	)

	r := &Root{
		theme:        theme,
		ascii:        opts.ASCIIOnly,
		debug:        opts.Debug,
		styleVariant: styleVariant,
		motionLevel:  motionLevel,
		layout:       LayoutWide,
		cols:         100,
		rows:         30,
		orientation:  puzzles.ColorWhite,
		cursorFile:   4,
		cursorRank:   1,
		help:         h,
		solvedBar:    solvedBar,
		loadSpin:     loadSpin,
		markdown:     renderer,
		noteMD:       noteRenderer,
		logger:       logger,
		spring:       spring,
	}
	r.keymap = boardKeyMap{
		Move:     key.NewBinding(key.WithKeys("up", "down", "left", "right", "h", "j", "k", "l"), key.WithHelp("←↓↑→", "Move")),
		Pick:     key.NewBinding(key.WithKeys("enter", "space"), key.WithHelp("enter", "Pick")),
		Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "Cancel")),
		Solution: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "Solution")),
		Another:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "Another")),
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "Reload")),
		Theme:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "Theme")),
		Stats:    key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "Stats")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "Quit")),
	}
	return r
}

func (r *Root) Init() tea.Cmd {
	return spinnerTickCmd(r.loadSpin)
}

func (r *Root) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("update", rec, msg)
			model = r
			cmd = nil
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.cols = msg.Width
		r.rows = msg.Height
		r.layout = DetermineLayoutMode(r.cols, r.rows)
		return r, nil
	case applyMsg:
		if msg.fn != nil {
			msg.fn(r)
		}
		return r, tea.Batch(r.animateIfNeeded(), r.settleCmd())
	case settleMsg:
		if msg.seq == r.settleSeq && r.settleDue {
			r.settleDue = false
			r.settleScheduled = false
			r.dispatchController(func(c Controller) { c.OnAnimationSettled() })
		}
		return r, nil
	case animateMsg:
		r.flashPos, r.flashVel = r.spring.Update(r.flashPos, r.flashVel, 0)
		if r.shouldAnimate() {
			return r, animateTickCmd()
		}
		r.flashPos = 0
		r.flashVel = 0
		return r, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		r.loadSpin, cmd = r.loadSpin.Update(msg)
		return r, cmd
	case tea.KeyPressMsg:
		return r.handleKey(msg)
	}
	return r, nil
}

func (r *Root) View() (view tea.View) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("view", rec, nil)
			width := max(1, r.cols)
			msg := "UI recovered from a rendering panic. Check logs."
			view = tea.NewView(r.theme.Fail.Width(width).Render(trimForWidth(msg, max(1, width-1))))
		}
	}()

	if r.cols < 1 {
		r.cols = 100
	}
	if r.rows < 1 {
		r.rows = 30
	}

	base := r.renderMain()
	if r.statsOpen && r.layout != LayoutTooSmall {
		base = composeOverlay(base, r.renderStatsOverlay(), r.cols, r.rows)
	}
	v := tea.NewView(base)
	v.AltScreen = true
	return v
}

func (r *Root) Run() error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	p := tea.NewProgram(r)
	r.program = p
	r.running = true
	r.mu.Unlock()

	_, err := p.Run()

	r.mu.Lock()
	r.program = nil
	r.running = false
	r.mu.Unlock()
	return err
}

func (r *Root) Stop() {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Quit()
	}
}

func (r *Root) SetController(c Controller) {
	r.ctrl = c
}

func (r *Root) SetPosition(fen string, animate bool) {
	r.apply(func(m *Root) {
		pieces, err := chessrules.Pieces(fen)
		if err != nil {
			m.logger.Warn("ui.position.unreadable", "fen", fen, "err", err)
			return
		}
		m.fen = fen
		m.pieces = pieces
		m.boardMsg = nil
		m.selected = ""
		if !animate {
			return
		}
		if m.motionLevel == "off" {
			m.dispatchController(func(c Controller) { c.OnAnimationSettled() })
			return
		}
		m.settleSeq++
		m.settleDue = true
		m.settleScheduled = false
	})
}

func (r *Root) SetOrientation(color puzzles.Color) {
	r.apply(func(m *Root) {
		if !color.Valid() {
			color = puzzles.ColorWhite
		}
		m.orientation = color
		m.cursorFile = 4
		m.cursorRank = 1
		if color == puzzles.ColorBlack {
			m.cursorRank = 6
		}
	})
}

func (r *Root) SetDraggable(enabled bool) {
	r.apply(func(m *Root) {
		m.draggable = enabled
		if !enabled {
			m.selected = ""
		}
	})
}

func (r *Root) Highlight(from, to string) {
	r.apply(func(m *Root) {
		m.highlight = &widget.Move{From: from, To: to}
	})
}

func (r *Root) ClearHighlights() {
	r.apply(func(m *Root) {
		m.highlight = nil
		m.flashPos = 0
		m.flashVel = 0
	})
}

func (r *Root) SnapBack() {
	r.apply(func(m *Root) {
		m.selected = ""
		m.statusFlash = "Move not accepted"
	})
}

func (r *Root) ShowSummary(s widget.Summary) {
	r.apply(func(m *Root) {
		m.summary = s
		m.hasSummary = true
	})
}

func (r *Root) ShowSolution(p widget.Panel) {
	r.apply(func(m *Root) {
		panel := p
		m.panel = &panel
	})
}

func (r *Root) HideSolution() {
	r.apply(func(m *Root) {
		m.panel = nil
		m.flashPos = 0
		m.flashVel = 0
	})
}

func (r *Root) Flash(kind widget.FlashKind) {
	r.apply(func(m *Root) {
		m.flashKind = kind
		m.flashPos = 1
		m.flashVel = 0
	})
}

func (r *Root) ShowNote(text string) {
	r.apply(func(m *Root) {
		m.note = strings.TrimSpace(text)
	})
}

func (r *Root) ShowBoardMessage(msg widget.BoardMessage) {
	r.apply(func(m *Root) {
		bm := msg
		m.boardMsg = &bm
		m.selected = ""
		if msg.Kind != widget.MessageError {
			m.hasSummary = false
			m.highlight = nil
		}
	})
}

func (r *Root) SetStats(s StatsState) {
	r.apply(func(m *Root) {
		m.stats = s
	})
}

func (r *Root) SetStatsOpen(open bool) {
	r.apply(func(m *Root) {
		m.statsOpen = open
	})
}

func (r *Root) SetStyleVariant(variant string) {
	r.apply(func(m *Root) {
		m.styleVariant = normalizeStyleVariant(variant)
		m.theme = ThemeForVariant(m.styleVariant)
		m.loadSpin.Style = m.theme.Accent
	})
}

func (r *Root) FlashStatus(msg string) {
	r.apply(func(m *Root) {
		m.statusFlash = msg
	})
}

func (r *Root) apply(fn func(*Root)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	p := r.program
	running := r.running
	if !running || p == nil {
		fn(r)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	p.Send(applyMsg{fn: fn})
}

func (r *Root) dispatchController(fn func(Controller)) {
	if fn == nil || r.ctrl == nil {
		return
	}
	ctrl := r.ctrl
	go fn(ctrl)
}

func (r *Root) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	r.recordInputEvent(fmt.Sprintf("key:%v mod:%v text:%q", msg.Code, msg.Mod, msg.Text))

	if key.Matches(msg, r.keymap.Quit) {
		r.dispatchController(func(c Controller) { c.OnQuit() })
		return r, nil
	}
	if r.statsOpen {
		if key.Matches(msg, r.keymap.Cancel) || key.Matches(msg, r.keymap.Stats) {
			r.statsOpen = false
		}
		return r, nil
	}

	r.statusFlash = ""
	switch {
	case key.Matches(msg, r.keymap.Move):
		r.moveCursor(msg.String())
	case key.Matches(msg, r.keymap.Pick):
		r.pickSquare()
	case key.Matches(msg, r.keymap.Cancel):
		r.selected = ""
	case key.Matches(msg, r.keymap.Solution):
		r.selected = ""
		r.dispatchController(func(c Controller) { c.OnShowSolution() })
	case key.Matches(msg, r.keymap.Another):
		r.selected = ""
		r.dispatchController(func(c Controller) { c.OnTryAnother() })
	case key.Matches(msg, r.keymap.Reload):
		r.selected = ""
		r.dispatchController(func(c Controller) { c.OnReload() })
	case key.Matches(msg, r.keymap.Theme):
		r.dispatchController(func(c Controller) { c.OnCycleTheme() })
	case key.Matches(msg, r.keymap.Stats):
		r.dispatchController(func(c Controller) { c.OnOpenStats() })
	}
	return r, nil
}

// moveCursor steps in screen directions, so a flipped board inverts both axes.
func (r *Root) moveCursor(dir string) {
	df, dr := 0, 0
	switch dir {
	case "up", "k":
		dr = 1
	case "down", "j":
		dr = -1
	case "left", "h":
		df = -1
	case "right", "l":
		df = 1
	}
	if r.orientation == puzzles.ColorBlack {
		df, dr = -df, -dr
	}
	r.cursorFile = min(7, max(0, r.cursorFile+df))
	r.cursorRank = min(7, max(0, r.cursorRank+dr))
}

// pickSquare lifts the piece under the cursor, or drops the lifted piece there.
func (r *Root) pickSquare() {
	if r.boardMsg != nil || r.pieces == nil {
		return
	}
	sq := r.cursorSquare()
	if r.selected == "" {
		if !r.draggable {
			r.statusFlash = "Board is locked"
			return
		}
		if _, ok := r.pieces[sq]; !ok {
			return
		}
		r.selected = sq
		return
	}
	if r.selected == sq {
		r.selected = ""
		return
	}
	from := r.selected
	r.selected = ""
	r.dispatchController(func(c Controller) { c.OnMoveAttempt(from, sq) })
}

func (r *Root) cursorSquare() string {
	return chessrules.SquareName(r.cursorFile, r.cursorRank)
}

func (r *Root) renderMain() string {
	w, h := r.cols, r.rows
	mode := DetermineLayoutMode(w, h)
	r.layout = mode

	if mode == LayoutTooSmall {
		msg := []string{
			"Terminal too small",
			fmt.Sprintf("Current: %dx%d", w, h),
			"Minimum: 40x20",
			"Resize the terminal to continue.",
		}
		panel := r.drawPanel("Resize Required", msg, min(40, w), min(8, h))
		return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, panel)
	}

	header := r.headerText()
	status := r.statusText()
	bodyH := max(3, h-2)

	var body string
	if mode == LayoutWide {
		board := r.drawPanel("Board", r.boardLines(), boardPanelWidth, bodyH)
		infoW := max(30, w-boardPanelWidth)
		info := r.drawPanel("Puzzle", r.infoLines(infoW-2), infoW, bodyH)
		body = lipgloss.JoinHorizontal(lipgloss.Top, board, info)
	} else {
		board := r.drawPanel("Board", r.boardLines(), boardPanelWidth, boardPanelHeight)
		infoH := max(3, bodyH-boardPanelHeight)
		info := r.drawPanel("Puzzle", r.infoLines(w-2), w, infoH)
		body = lipgloss.JoinVertical(lipgloss.Left, board, info)
	}
	return header + "\n" + body + "\n" + status
}

func (r *Root) headerText() string {
	width := max(1, r.cols-1)
	parts := []string{"Blunderboard"}
	if r.hasSummary && r.summary.Total > 0 {
		parts = append(parts, fmt.Sprintf("Puzzle %d/%d", r.summary.Position, r.summary.Total))
	}
	parts = append(parts, r.styleVariant)
	txt := trimForWidth(strings.Join(parts, " | "), width)
	if r.debug {
		txt = trimForWidth(fmt.Sprintf("%s | %dx%d %v", txt, r.cols, r.rows, r.layout), width)
	}
	return r.theme.Header.Width(max(1, r.cols)).Render(txt)
}

func (r *Root) statusText() string {
	keys := r.help.View(r.keymap)
	if keys == "" {
		keys = "arrows Move  enter Pick  s Solution  n Another  r Reload  t Theme  i Stats  q Quit"
	}
	if r.boardMsg != nil && r.boardMsg.Kind == widget.MessageLoading {
		keys += " | " + strings.TrimSpace(r.loadSpin.View()) + " Loading..."
	}
	if mark := r.flashMark(); mark != "" {
		keys += " | " + mark
	}
	if r.statusFlash != "" {
		keys += " | " + r.statusFlash
	}
	keys = trimForWidth(keys, max(1, r.cols-1))
	return r.theme.Status.Width(max(1, r.cols)).Render(keys)
}

func (r *Root) flashMark() string {
	if r.flashPos < 0.05 {
		return ""
	}
	if r.flashKind == widget.FlashPositive {
		if r.ascii {
			return "+ Correct"
		}
		return "✓ Correct"
	}
	if r.ascii {
		return "x Incorrect"
	}
	return "✗ Incorrect"
}

func (r *Root) infoLines(width int) []string {
	width = max(8, width)
	if !r.hasSummary {
		return []string{r.theme.Muted.Render("No puzzle loaded.")}
	}
	s := r.summary
	var lines []string
	title := fmt.Sprintf("Puzzle %d of %d", s.Position, s.Total)
	if s.Placeholder {
		title += " (sample)"
	}
	lines = append(lines, r.theme.Accent.Render(title))
	lines = append(lines, wrapText(s.Attribution, width)...)
	if s.GameURL != "" {
		lines = append(lines, trimForWidth("Game: "+s.GameURL, width))
	}
	lines = append(lines, "Eval swing: "+s.Eval, "Difficulty: "+s.Difficulty)
	if s.BlunderSAN != "" {
		if s.MoveNumber > 0 {
			lines = append(lines, fmt.Sprintf("Blunder: %d. %s", s.MoveNumber, s.BlunderSAN))
		} else {
			lines = append(lines, "Blunder: "+s.BlunderSAN)
		}
	}
	lines = append(lines, r.theme.Info.Render(s.Turn), "")

	switch {
	case r.panel != nil:
		style := r.theme.Fail
		if r.panel.Correct {
			style = r.theme.Pass
		}
		lines = append(lines, style.Render(r.panel.Annotation))
		lines = append(lines, wrapText(r.panel.MoveText, width)...)
		for _, l := range wrapText(r.panel.Explanation, width) {
			lines = append(lines, r.theme.Muted.Render(l))
		}
	case r.draggable:
		for _, l := range wrapText("Pick a piece with enter, then its target square.", width) {
			lines = append(lines, r.theme.Muted.Render(l))
		}
	}

	if r.note != "" {
		lines = append(lines, "")
		lines = append(lines, r.noteLines(width)...)
	}
	return lines
}

func (r *Root) noteLines(width int) []string {
	if r.noteMD != nil {
		if rendered, err := r.noteMD.Render(r.note); err == nil {
			return strings.Split(strings.Trim(rendered, "\n"), "\n")
		}
	}
	var out []string
	for _, l := range wrapText(r.note, width) {
		out = append(out, r.theme.Pending.Render(l))
	}
	return out
}

func (r *Root) renderStatsOverlay() string {
	body := strings.TrimSpace(r.stats.Markdown)
	if body == "" {
		body = "No stats yet."
	}
	if r.markdown != nil {
		if rendered, err := r.markdown.Render(body); err == nil {
			body = strings.Trim(rendered, "\n")
		}
	}
	var b strings.Builder
	b.WriteString(r.theme.OverlayTitle.Render("Stats") + "\n\n")
	b.WriteString(body + "\n\n")
	b.WriteString(fmt.Sprintf("Solved %d of %d attempted\n", r.stats.Solved, r.stats.Attempted))
	b.WriteString(r.solvedProgress(24) + "\n\n")
	b.WriteString(r.theme.Muted.Render("esc or i to close"))
	return r.theme.Overlay.Render(b.String())
}

func (r *Root) solvedProgress(width int) string {
	m := r.solvedBar
	m.SetWidth(max(8, width))
	return m.ViewAs(r.stats.SolvedRatio())
}

func (r *Root) drawPanel(title string, lines []string, width, height int) string {
	width = max(4, width)
	height = max(3, height)
	innerW := width - 2
	innerH := height - 2

	h := "─"
	v := "│"
	tl := "┌"
	tr := "┐"
	bl := "└"
	br := "┘"
	if r.ascii {
		h = "-"
		v = "|"
		tl, tr, bl, br = "+", "+", "+", "+"
	}

	top := tl + strings.Repeat(h, innerW) + tr
	if title != "" && innerW > 2 {
		t := " " + title + " "
		runes := []rune(top)
		start := 1
		for i, ch := range []rune(t) {
			pos := start + i
			if pos >= len(runes)-1 {
				break
			}
			runes[pos] = ch
		}
		top = string(runes)
	}

	out := make([]string, 0, height)
	out = append(out, r.theme.PanelBorder.Render(top))
	for row := 0; row < innerH; row++ {
		line := ""
		if row < len(lines) {
			line = lines[row]
		}
		line = padCells(line, innerW)
		out = append(out, r.theme.PanelBorder.Render(v)+r.theme.PanelBody.Render(line)+r.theme.PanelBorder.Render(v))
	}
	out = append(out, r.theme.PanelBorder.Render(bl+strings.Repeat(h, innerW)+br))
	return strings.Join(out, "\n")
}

func (r *Root) animateIfNeeded() tea.Cmd {
	if r.shouldAnimate() {
		return animateTickCmd()
	}
	return nil
}

func (r *Root) shouldAnimate() bool {
	if r.motionLevel == "off" {
		return false
	}
	return r.flashPos > 0.01 || abs(r.flashVel) > 0.001
}

func (r *Root) settleCmd() tea.Cmd {
	if !r.settleDue || r.settleScheduled {
		return nil
	}
	r.settleScheduled = true
	seq := r.settleSeq
	delay := 300 * time.Millisecond
	if r.motionLevel == "reduced" {
		delay = 150 * time.Millisecond
	}
	return tea.Tick(delay, func(time.Time) tea.Msg { return settleMsg{seq: seq} })
}

func animateTickCmd() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return animateMsg(t) })
}

func spinnerTickCmd(model spinner.Model) tea.Cmd {
	return func() tea.Msg {
		return model.Tick()
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// padCells pads or truncates s to exactly width terminal cells, keeping escape codes intact.
func padCells(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.ReplaceAll(s, "\t", "    ")
	if ansi.StringWidth(s) > width {
		s = ansi.Truncate(s, width, "")
	}
	if w := ansi.StringWidth(s); w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}

func padRune(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) > width {
		r = r[:width]
	}
	if len(r) < width {
		r = append(r, []rune(strings.Repeat(" ", width-len(r)))...)
	}
	return string(r)
}

func wrapText(s string, width int) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	wrapped := lipgloss.NewStyle().Width(max(1, width)).Render(s)
	lines := strings.Split(wrapped, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	return lines
}

func composeOverlay(base, overlay string, cols, rows int) string {
	if cols <= 0 || rows <= 0 {
		return base
	}
	base = ansi.Strip(base)
	overlay = ansi.Strip(overlay)
	baseLines := strings.Split(base, "\n")
	if len(baseLines) < rows {
		pad := make([]string, rows-len(baseLines))
		baseLines = append(baseLines, pad...)
	}
	for i := 0; i < rows; i++ {
		baseLines[i] = padRune(baseLines[i], cols)
	}

	overlayLines := strings.Split(strings.TrimRight(overlay, "\n"), "\n")
	ow := 1
	for _, line := range overlayLines {
		if lw := len([]rune(line)); lw > ow {
			ow = lw
		}
	}
	ow = min(ow, cols)
	oh := min(len(overlayLines), rows)
	startRow := (rows - oh) / 2
	startCol := max(0, (cols-ow)/2)

	for i := 0; i < oh; i++ {
		row := startRow + i
		dst := []rune(baseLines[row])
		src := []rune(overlayLines[i])
		if len(src) > ow {
			src = src[:ow]
		}
		for j := 0; j < ow && startCol+j < len(dst); j++ {
			dst[startCol+j] = ' '
		}
		for j := 0; j < len(src) && startCol+j < len(dst); j++ {
			dst[startCol+j] = src[j]
		}
		baseLines[row] = string(dst)
	}
	return strings.Join(baseLines[:rows], "\n")
}

func trimForWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(strings.ReplaceAll(ansi.Strip(s), "\n", " "))
	if len(r) <= width {
		return string(r)
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

func normalizeStyleVariant(v string) string {
	switch strings.TrimSpace(v) {
	case "cozy_clean", "retro_terminal", "modern_arcade":
		return strings.TrimSpace(v)
	default:
		return "modern_arcade"
	}
}

func normalizeMotionLevel(v string) string {
	switch strings.TrimSpace(v) {
	case "off", "reduced", "full":
		return strings.TrimSpace(v)
	default:
		return "full"
	}
}

func (r *Root) recordInputEvent(event string) {
	r.lastInputEvent = trimForWidth(strings.TrimSpace(event), 160)
}

func (r *Root) onModelPanic(where string, recovered any, msg tea.Msg) {
	if r.statusFlash == "" {
		r.statusFlash = "Recovered UI panic"
	}
	msgType := ""
	if msg != nil {
		msgType = fmt.Sprintf("%T", msg)
	}
	r.logger.Error("ui.panic_recovered",
		"where", where,
		"panic", fmt.Sprintf("%v", recovered),
		"messageType", msgType,
		"layout", r.layout,
		"cols", r.cols,
		"rows", r.rows,
		"fen", r.fen,
		"last_input", r.lastInputEvent,
		"stack", string(debug.Stack()),
	)
}

var _ tea.Model = (*Root)(nil)
var _ View = (*Root)(nil)
