package ui

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

type Theme struct {
	Header       lipgloss.Style
	Status       lipgloss.Style
	PanelTitle   lipgloss.Style
	PanelBorder  lipgloss.Style
	PanelBody    lipgloss.Style
	Overlay      lipgloss.Style
	OverlayTitle lipgloss.Style
	Accent       lipgloss.Style
	Pass         lipgloss.Style
	Fail         lipgloss.Style
	Pending      lipgloss.Style
	Muted        lipgloss.Style
	Info         lipgloss.Style
	BoardBorder  lipgloss.Style

	LightSquare color.Color
	DarkSquare  color.Color
	LastMove    color.Color
	Cursor      color.Color
	Selected    color.Color
	FlashGood   color.Color
	FlashBad    color.Color
	WhitePiece  color.Color
	BlackPiece  color.Color
}

// palette is the handful of colors a style variant is built from.
type palette struct {
	bg, bar, text, muted string
	title, accent, edge  string
	good, bad, warn      string
	light, dark, pick    string
	whiteMan, blackMan   string
	overlayBorder        lipgloss.Border
}

var palettes = map[string]palette{
	"modern_arcade": {
		bg: "#0E1420", bar: "#1B2740", text: "#EAF2FF", muted: "#9CAAC6",
		title: "#5EEBFF", accent: "#5EEBFF", edge: "#4B5F8A",
		good: "#67F0A8", bad: "#FF6F91", warn: "#FFC857",
		light: "#C9D6EA", dark: "#5B6F96", pick: "#B48CFF",
		whiteMan: "#FFFFFF", blackMan: "#0E1420",
		overlayBorder: lipgloss.RoundedBorder(),
	},
	"cozy_clean": {
		bg: "#1E2430", bar: "#30394A", text: "#F4F6FA", muted: "#A3ACC2",
		title: "#F2B872", accent: "#86B6F6", edge: "#4A5972",
		good: "#80C4A3", bad: "#D17A86", warn: "#F2B872",
		light: "#EED9B6", dark: "#B08862", pick: "#C3A6E0",
		whiteMan: "#F4F6FA", blackMan: "#1E2430",
		overlayBorder: lipgloss.RoundedBorder(),
	},
	"retro_terminal": {
		bg: "#07150A", bar: "#12301A", text: "#C5F7C4", muted: "#73A17A",
		title: "#E5D47A", accent: "#9CF5A2", edge: "#1F5C2F",
		good: "#9CF5A2", bad: "#FF6B6B", warn: "#E5D47A",
		light: "#2F6B3A", dark: "#12301A", pick: "#4FB0A0",
		whiteMan: "#C5F7C4", blackMan: "#07150A",
		overlayBorder: lipgloss.DoubleBorder(),
	},
}

var styleVariants = []string{"modern_arcade", "cozy_clean", "retro_terminal"}

// NextStyleVariant returns the variant after current, wrapping around.
func NextStyleVariant(current string) string {
	current = normalizeStyleVariant(current)
	for i, v := range styleVariants {
		if v == current {
			return styleVariants[(i+1)%len(styleVariants)]
		}
	}
	return styleVariants[0]
}

// Square renders one board cell.
func (t Theme) Square(text string, bg, fg color.Color) string {
	return lipgloss.NewStyle().Background(bg).Foreground(fg).Render(text)
}

func ThemeForVariant(variant string) Theme {
	p, ok := palettes[variant]
	if !ok {
		p = palettes["modern_arcade"]
	}
	return p.theme()
}

func (p palette) theme() Theme {
	c := lipgloss.Color
	fg := func(hex string) lipgloss.Style { return lipgloss.NewStyle().Foreground(c(hex)) }
	bar := func(bg string) lipgloss.Style {
		return lipgloss.NewStyle().Background(c(bg)).Foreground(c(p.text)).Padding(0, 1)
	}

	return Theme{
		Header:      bar(p.bg),
		Status:      bar(p.bar),
		PanelTitle:  fg(p.title).Bold(true),
		PanelBorder: fg(p.edge),
		PanelBody:   fg(p.text),
		Overlay: lipgloss.NewStyle().
			BorderStyle(p.overlayBorder).
			BorderForeground(c(p.title)).
			Background(c(p.bg)).
			Foreground(c(p.text)).
			Padding(1, 2),
		OverlayTitle: fg(p.title).Bold(true),
		Accent:       fg(p.accent).Bold(true),
		Pass:         fg(p.good).Bold(true),
		Fail:         fg(p.bad).Bold(true),
		Pending:      fg(p.warn),
		Muted:        fg(p.muted),
		Info:         fg(p.accent),
		BoardBorder:  fg(p.edge),

		LightSquare: c(p.light),
		DarkSquare:  c(p.dark),
		LastMove:    c(p.warn),
		Cursor:      c(p.accent),
		Selected:    c(p.pick),
		FlashGood:   c(p.good),
		FlashBad:    c(p.bad),
		WhitePiece:  c(p.whiteMan),
		BlackPiece:  c(p.blackMan),
	}
}
