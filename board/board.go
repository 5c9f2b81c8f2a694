package board

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

var (
	ErrFormat          = errors.New("format error")
	ErrIllegalMove     = errors.New("illegal move")
	ErrInvalidPosition = errors.New("invalid position")
)

const (
	notFileA uint64 = 0xfefefefefefefefe
	notFileH uint64 = 0x7f7f7f7f7f7f7f7f
)

// A Position is an immutable 8x8 Othello position plus the side to move.
// Positions are plain values: copying one never aliases another, and two
// positions are the same position iff they compare equal with ==.
type Position struct {
	dark   uint64
	light  uint64
	toMove Color
}

// StartPosition is the standard opening position, dark to move.
func StartPosition() Position {
	p := Position{toMove: Dark}
	p = p.with(mustSquare("d4"), Light)
	p = p.with(mustSquare("e5"), Light)
	p = p.with(mustSquare("e4"), Dark)
	p = p.with(mustSquare("d5"), Dark)
	return p
}

func mustSquare(s string) int {
	m, err := ParseMove(s)
	if err != nil {
		panic(err)
	}
	return m.Square()
}

// NewPosition builds a position from occupancy masks. It fails if a square
// is claimed by both colors or the side to move is not a player.
func NewPosition(dark, light uint64, toMove Color) (Position, error) {
	p := Position{dark: dark, light: light, toMove: toMove}
	if err := p.Validate(); err != nil {
		return Position{}, err
	}
	return p, nil
}

// Validate checks the structural invariants of a position.
func (p Position) Validate() error {
	if p.dark&p.light != 0 {
		return fmt.Errorf("%w: %d squares hold both colors", ErrInvalidPosition,
			bits.OnesCount64(p.dark&p.light))
	}
	if p.toMove != Dark && p.toMove != Light {
		return fmt.Errorf("%w: side to move is %v", ErrInvalidPosition, p.toMove)
	}
	return nil
}

func (p Position) with(sq int, c Color) Position {
	mask := uint64(1) << sq
	p.dark &^= mask
	p.light &^= mask
	switch c {
	case Dark:
		p.dark |= mask
	case Light:
		p.light |= mask
	}
	return p
}

// At returns the contents of a square index.
func (p Position) At(sq int) Color {
	mask := uint64(1) << sq
	switch {
	case p.dark&mask != 0:
		return Dark
	case p.light&mask != 0:
		return Light
	}
	return Empty
}

// ToMove is the side to move.
func (p Position) ToMove() Color {
	return p.toMove
}

// Discs returns the occupancy mask for a color.
func (p Position) Discs(c Color) uint64 {
	switch c {
	case Dark:
		return p.dark
	case Light:
		return p.light
	}
	return ^(p.dark | p.light)
}

// Count is the number of discs of a color on the board.
func (p Position) Count(c Color) int {
	return bits.OnesCount64(p.Discs(c))
}

// TotalDiscs is the number of occupied squares.
func (p Position) TotalDiscs() int {
	return bits.OnesCount64(p.dark | p.light)
}

func (p Position) ownOpp() (uint64, uint64) {
	if p.toMove == Dark {
		return p.dark, p.light
	}
	return p.light, p.dark
}

// Moves returns the mask of squares where the given color could place.
func (p Position) Moves(c Color) uint64 {
	own, opp := p.dark, p.light
	if c == Light {
		own, opp = opp, own
	}
	return legalMask(own, opp)
}

// LegalMask returns the placement mask for the side to move.
func (p Position) LegalMask() uint64 {
	return p.Moves(p.toMove)
}

// GameOver is true when neither side can place a disc.
func (p Position) GameOver() bool {
	return p.Moves(Dark) == 0 && p.Moves(Light) == 0
}

// Pass returns the position with the side to move toggled and the board
// unchanged.
func (p Position) Pass() Position {
	p.toMove = p.toMove.Opponent()
	return p
}

// Flips returns the mask of discs that placing on m would capture for the
// side to move. An empty mask means the placement is illegal.
func (p Position) Flips(m Move) uint64 {
	if m.IsPass() {
		return 0
	}
	own, opp := p.ownOpp()
	if (own|opp)&m.bit() != 0 {
		return 0
	}
	return flips(m.bit(), own, opp)
}

// Play places a disc for the side to move and toggles the side to move. It
// doesn't apply forced passes; the search handles those itself. A pass is
// only legal when the side to move has no placement.
func Play(p Position, m Move) (Position, error) {
	if m.IsPass() {
		if p.LegalMask() != 0 {
			return p, fmt.Errorf("%w: cannot pass with moves available", ErrIllegalMove)
		}
		if p.GameOver() {
			return p, fmt.Errorf("%w: game is over", ErrIllegalMove)
		}
		return p.Pass(), nil
	}
	f := p.Flips(m)
	if f == 0 {
		return p, fmt.Errorf("%w: %v captures nothing", ErrIllegalMove, m)
	}
	return p.play(m, f), nil
}

func (p Position) play(m Move, f uint64) Position {
	placed := m.bit() | f
	if p.toMove == Dark {
		p.dark |= placed
		p.light &^= f
	} else {
		p.light |= placed
		p.dark &^= f
	}
	p.toMove = p.toMove.Opponent()
	return p
}

// PlayUnchecked plays a move already known to be legal.
func (p Position) PlayUnchecked(m Move) Position {
	if m.IsPass() {
		return p.Pass()
	}
	return p.play(m, p.Flips(m))
}

// Apply plays a move following the full rules: if the opponent then has no
// legal placement while the mover still does, the opponent's turn is passed
// automatically and the mover moves again.
func Apply(p Position, m Move) (Position, error) {
	np, err := Play(p, m)
	if err != nil {
		return p, err
	}
	if np.LegalMask() == 0 && np.Moves(np.toMove.Opponent()) != 0 {
		np = np.Pass()
	}
	return np, nil
}

// DiscDifferential is own discs minus opponent discs for the side to move.
func (p Position) DiscDifferential() int {
	own, opp := p.ownOpp()
	return bits.OnesCount64(own) - bits.OnesCount64(opp)
}

// ToDisplayText renders a human readable grid, rank 8 on top.
func (p Position) ToDisplayText() string {
	var sb strings.Builder
	sb.WriteString("   a b c d e f g h\n")
	for rank := Dim; rank >= 1; rank-- {
		fmt.Fprintf(&sb, "%d ", rank)
		for file := 0; file < Dim; file++ {
			var ch byte
			switch p.At((rank-1)*Dim + file) {
			case Dark:
				ch = 'X'
			case Light:
				ch = 'O'
			default:
				ch = '.'
			}
			sb.WriteByte(' ')
			sb.WriteByte(ch)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "dark %d light %d, %v to move\n",
		p.Count(Dark), p.Count(Light), p.toMove)
	return sb.String()
}

type shiftFn func(uint64) uint64

var directions = [8]shiftFn{
	func(b uint64) uint64 { return b << 8 },              // north
	func(b uint64) uint64 { return b >> 8 },              // south
	func(b uint64) uint64 { return (b << 1) & notFileA }, // east
	func(b uint64) uint64 { return (b >> 1) & notFileH }, // west
	func(b uint64) uint64 { return (b << 9) & notFileA }, // north-east
	func(b uint64) uint64 { return (b << 7) & notFileH }, // north-west
	func(b uint64) uint64 { return (b >> 7) & notFileA }, // south-east
	func(b uint64) uint64 { return (b >> 9) & notFileH }, // south-west
}

func legalMask(own, opp uint64) uint64 {
	empty := ^(own | opp)
	var moves uint64
	for _, shift := range directions {
		x := shift(own) & opp
		for i := 0; i < 5; i++ {
			x |= shift(x) & opp
		}
		moves |= shift(x) & empty
	}
	return moves
}

func flips(placed, own, opp uint64) uint64 {
	var captured uint64
	for _, shift := range directions {
		var line uint64
		x := shift(placed)
		for x&opp != 0 {
			line |= x
			x = shift(x)
		}
		if x&own != 0 {
			captured |= line
		}
	}
	return captured
}
