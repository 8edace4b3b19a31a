package chessrules

import (
	"strings"

	"github.com/notnil/chess"
)

// Piece is a renderer-facing view of one occupied square.
type Piece struct {
	Color Color
	Kind  string // k q r b n p
}

var unicodeGlyphs = map[string][2]string{
	"k": {"♔", "♚"},
	"q": {"♕", "♛"},
	"r": {"♖", "♜"},
	"b": {"♗", "♝"},
	"n": {"♘", "♞"},
	"p": {"♙", "♟"},
}

// Symbol renders the piece as a single glyph. ASCII uses upper case for white.
func (p Piece) Symbol(ascii bool) string {
	if ascii {
		if p.Color == White {
			return strings.ToUpper(p.Kind)
		}
		return p.Kind
	}
	g, ok := unicodeGlyphs[p.Kind]
	if !ok {
		return "?"
	}
	if p.Color == White {
		return g[0]
	}
	return g[1]
}

// Pieces decodes fen into a square-name keyed map.
func Pieces(fen string) (map[string]Piece, error) {
	g, err := gameFromFEN(fen)
	if err != nil {
		return nil, err
	}
	out := map[string]Piece{}
	for sq, p := range g.Position().Board().SquareMap() {
		if p == chess.NoPiece {
			continue
		}
		out[sq.String()] = Piece{Color: colorOf(p.Color()), Kind: p.Type().String()}
	}
	return out, nil
}

// SquareName returns the algebraic name for zero-based file and rank.
func SquareName(file, rank int) string {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return ""
	}
	return string([]byte{byte('a' + file), byte('1' + rank)})
}

// TurnOf reports the side to move encoded in fen without building a game.
func TurnOf(fen string) Color {
	fields := strings.Fields(fen)
	if len(fields) > 1 && fields[1] == "b" {
		return Black
	}
	return White
}
