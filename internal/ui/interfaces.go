package ui

import "blunderboard/internal/widget"

type LayoutMode int

const (
	LayoutWide LayoutMode = iota
	LayoutMedium
	LayoutTooSmall
)

func (m LayoutMode) String() string {
	switch m {
	case LayoutWide:
		return "wide"
	case LayoutMedium:
		return "medium"
	default:
		return "too_small"
	}
}

// Controller receives user intent from the board. Each call runs on its own goroutine.
type Controller interface {
	widget.Handlers
	OnShowSolution()
	OnTryAnother()
	OnReload()
	OnOpenStats()
	OnCycleTheme()
	OnQuit()
}

type View interface {
	widget.Renderer
	Run() error
	Stop()
	SetController(c Controller)
	SetStats(s StatsState)
	SetStatsOpen(open bool)
	SetStyleVariant(variant string)
	FlashStatus(msg string)
}

// StatsState feeds the stats overlay.
type StatsState struct {
	Markdown  string
	Solved    int
	Attempted int
}

func (s StatsState) SolvedRatio() float64 {
	if s.Attempted <= 0 {
		return 0
	}
	v := float64(s.Solved) / float64(s.Attempted)
	if v > 1 {
		v = 1
	}
	return v
}
