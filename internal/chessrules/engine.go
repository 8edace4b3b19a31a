package chessrules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

var (
	ErrIllegalMove = errors.New("chessrules: illegal move")
	ErrNoHistory   = errors.New("chessrules: nothing to undo")
)

type Color string

const (
	White Color = "white"
	Black Color = "black"
)

type MoveRecord struct {
	From      string
	To        string
	Promo     string
	SAN       string
	UCI       string
	FENBefore string
	FENAfter  string
}

// Engine is a mutable rules engine for one board. It is not safe for concurrent use.
type Engine struct {
	game    *chess.Game
	history []string
}

func New(fen string) (*Engine, error) {
	e := &Engine{}
	if err := e.Load(fen); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) Load(fen string) error {
	g, err := gameFromFEN(fen)
	if err != nil {
		return err
	}
	e.game = g
	e.history = e.history[:0]
	return nil
}

func gameFromFEN(fen string) (*chess.Game, error) {
	opt, err := chess.FEN(strings.TrimSpace(fen))
	if err != nil {
		return nil, fmt.Errorf("load fen %q: %w", fen, err)
	}
	return chess.NewGame(opt), nil
}

func (e *Engine) FEN() string { return e.game.Position().String() }

func (e *Engine) Turn() Color { return colorOf(e.game.Position().Turn()) }

func (e *Engine) IsGameOver() bool {
	return e.game.Outcome() != chess.NoOutcome || len(e.game.ValidMoves()) == 0
}

// PieceColorAt reports the color of the piece on square, if any.
func (e *Engine) PieceColorAt(square string) (Color, bool) {
	sq, ok := parseSquare(square)
	if !ok {
		return "", false
	}
	p := e.game.Position().Board().Piece(sq)
	if p == chess.NoPiece {
		return "", false
	}
	return colorOf(p.Color()), true
}

// LegalMoves lists legal moves in UCI form.
func (e *Engine) LegalMoves() []string {
	pos := e.game.Position()
	moves := e.game.ValidMoves()
	out := make([]string, 0, len(moves))
	for _, m := range moves {
		out = append(out, chess.UCINotation{}.Encode(pos, m))
	}
	return out
}

// Move plays from->to. Promotions always resolve to a queen.
func (e *Engine) Move(from, to string) (MoveRecord, error) {
	s1, ok1 := parseSquare(from)
	s2, ok2 := parseSquare(to)
	if !ok1 || !ok2 {
		return MoveRecord{}, fmt.Errorf("%w: %s%s", ErrIllegalMove, from, to)
	}
	m := e.find(func(m *chess.Move) bool {
		return m.S1() == s1 && m.S2() == s2 && (m.Promo() == chess.NoPieceType || m.Promo() == chess.Queen)
	})
	if m == nil {
		return MoveRecord{}, fmt.Errorf("%w: %s%s", ErrIllegalMove, from, to)
	}
	return e.apply(m)
}

func (e *Engine) ApplyUCI(uci string) (MoveRecord, error) {
	uci = strings.TrimSpace(uci)
	decoded, err := chess.UCINotation{}.Decode(e.game.Position(), uci)
	if err != nil {
		return MoveRecord{}, fmt.Errorf("%w: %s", ErrIllegalMove, uci)
	}
	m := e.find(func(m *chess.Move) bool {
		return m.S1() == decoded.S1() && m.S2() == decoded.S2() && m.Promo() == decoded.Promo()
	})
	if m == nil {
		return MoveRecord{}, fmt.Errorf("%w: %s", ErrIllegalMove, uci)
	}
	return e.apply(m)
}

func (e *Engine) ApplySAN(san string) (MoveRecord, error) {
	san = strings.TrimSpace(san)
	decoded, err := chess.AlgebraicNotation{}.Decode(e.game.Position(), san)
	if err != nil {
		return MoveRecord{}, fmt.Errorf("%w: %s", ErrIllegalMove, san)
	}
	m := e.find(func(m *chess.Move) bool {
		return m.S1() == decoded.S1() && m.S2() == decoded.S2() && m.Promo() == decoded.Promo()
	})
	if m == nil {
		return MoveRecord{}, fmt.Errorf("%w: %s", ErrIllegalMove, san)
	}
	return e.apply(m)
}

// ApplyByScan walks the legal moves and plays the first whose SAN matches, ignoring
// check and annotation suffixes.
func (e *Engine) ApplyByScan(san string) (MoveRecord, error) {
	want := normalizeSAN(san)
	if want == "" {
		return MoveRecord{}, fmt.Errorf("%w: empty move", ErrIllegalMove)
	}
	pos := e.game.Position()
	m := e.find(func(m *chess.Move) bool {
		return normalizeSAN(chess.AlgebraicNotation{}.Encode(pos, m)) == want
	})
	if m == nil {
		return MoveRecord{}, fmt.Errorf("%w: %s", ErrIllegalMove, san)
	}
	return e.apply(m)
}

// SANForUCI converts a UCI move to SAN in the current position without changing it.
func (e *Engine) SANForUCI(uci string) (string, error) {
	scratch, err := New(e.FEN())
	if err != nil {
		return "", err
	}
	rec, err := scratch.ApplyUCI(uci)
	if err != nil {
		return "", err
	}
	return rec.SAN, nil
}

func (e *Engine) Undo() error {
	if len(e.history) == 0 {
		return ErrNoHistory
	}
	prev := e.history[len(e.history)-1]
	g, err := gameFromFEN(prev)
	if err != nil {
		return err
	}
	e.game = g
	e.history = e.history[:len(e.history)-1]
	return nil
}

func (e *Engine) find(match func(*chess.Move) bool) *chess.Move {
	for _, m := range e.game.ValidMoves() {
		if match(m) {
			return m
		}
	}
	return nil
}

func (e *Engine) apply(m *chess.Move) (MoveRecord, error) {
	pos := e.game.Position()
	rec := MoveRecord{
		From:      m.S1().String(),
		To:        m.S2().String(),
		SAN:       chess.AlgebraicNotation{}.Encode(pos, m),
		UCI:       chess.UCINotation{}.Encode(pos, m),
		FENBefore: pos.String(),
	}
	if m.Promo() != chess.NoPieceType {
		rec.Promo = m.Promo().String()
	}
	if err := e.game.Move(m); err != nil {
		return MoveRecord{}, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	e.history = append(e.history, rec.FENBefore)
	rec.FENAfter = e.FEN()
	return rec, nil
}

func normalizeSAN(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), "+#!?")
}

func parseSquare(s string) (chess.Square, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 {
		return 0, false
	}
	file := int(s[0]) - 'a'
	rank := int(s[1]) - '1'
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return 0, false
	}
	return chess.Square(rank*8 + file), true
}

func colorOf(c chess.Color) Color {
	if c == chess.Black {
		return Black
	}
	return White
}
