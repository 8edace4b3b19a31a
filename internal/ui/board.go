package ui

import (
	"strings"

	"blunderboard/internal/chessrules"
	"blunderboard/internal/puzzles"
	"blunderboard/internal/widget"
)

const (
	// rank label (2) + eight 3-cell squares, inside a 1-cell border
	boardPanelWidth  = 2 + 8*3 + 2
	boardPanelHeight = 8 + 1 + 2
)

// boardLines renders the eight ranks plus the file legend, or the board message.
func (r *Root) boardLines() []string {
	if r.boardMsg != nil {
		return r.boardMessageLines(boardPanelWidth - 2)
	}
	lines := make([]string, 0, 9)
	for row := 0; row < 8; row++ {
		rank := 7 - row
		if r.orientation == puzzles.ColorBlack {
			rank = row
		}
		var b strings.Builder
		b.WriteString(r.theme.Muted.Render(string(rune('1'+rank)) + " "))
		for col := 0; col < 8; col++ {
			file := col
			if r.orientation == puzzles.ColorBlack {
				file = 7 - col
			}
			b.WriteString(r.renderSquare(file, rank))
		}
		lines = append(lines, b.String())
	}
	var legend strings.Builder
	legend.WriteString("  ")
	for col := 0; col < 8; col++ {
		file := col
		if r.orientation == puzzles.ColorBlack {
			file = 7 - col
		}
		legend.WriteString(" " + string(rune('a'+file)) + " ")
	}
	return append(lines, r.theme.Muted.Render(legend.String()))
}

func (r *Root) renderSquare(file, rank int) string {
	sq := chessrules.SquareName(file, rank)
	bg := r.theme.DarkSquare
	if (file+rank)%2 == 1 {
		bg = r.theme.LightSquare
	}
	if r.highlight != nil && (sq == r.highlight.From || sq == r.highlight.To) {
		bg = r.theme.LastMove
		if r.flashPos > 0.35 {
			bg = r.theme.FlashBad
			if r.flashKind == widget.FlashPositive {
				bg = r.theme.FlashGood
			}
		}
	}

	glyph := " "
	if r.ascii {
		glyph = "."
	}
	fg := r.theme.WhitePiece
	if p, ok := r.pieces[sq]; ok {
		glyph = p.Symbol(r.ascii)
		if p.Color == chessrules.Black {
			fg = r.theme.BlackPiece
		}
	}

	left, right := " ", " "
	switch {
	case sq == r.selected:
		bg = r.theme.Selected
		left, right = "<", ">"
	case sq == r.cursorSquare() && r.pieces != nil:
		bg = r.theme.Cursor
		left, right = "[", "]"
	}
	return r.theme.Square(left+glyph+right, bg, fg)
}

func (r *Root) boardMessageLines(width int) []string {
	msg := r.boardMsg
	style := r.theme.Fail
	text := msg.Text
	switch msg.Kind {
	case widget.MessageLoading:
		style = r.theme.Pending
		text = strings.TrimSpace(r.loadSpin.View()) + " " + text
	case widget.MessageEmpty:
		style = r.theme.Muted
	}
	lines := []string{"", "", ""}
	for _, l := range wrapText(text, width-2) {
		lines = append(lines, " "+style.Render(l))
	}
	return lines
}
