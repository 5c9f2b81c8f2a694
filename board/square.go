package board

import (
	"fmt"
	"strings"
)

// Color is the contents of a single square, and doubles as the side to move.
type Color uint8

const (
	Empty Color = iota
	Dark
	Light
)

// Opponent returns the other side. Empty has no opponent.
func (c Color) Opponent() Color {
	switch c {
	case Dark:
		return Light
	case Light:
		return Dark
	}
	return Empty
}

// Marker is the single-letter notation token for this color.
func (c Color) Marker() byte {
	switch c {
	case Dark:
		return 'B'
	case Light:
		return 'W'
	}
	return 'E'
}

func (c Color) String() string {
	switch c {
	case Dark:
		return "dark"
	case Light:
		return "light"
	}
	return "empty"
}

func colorFromMarker(b byte) (Color, bool) {
	switch b {
	case 'E':
		return Empty, true
	case 'B':
		return Dark, true
	case 'W':
		return Light, true
	}
	return Empty, false
}

const (
	Dim        = 8
	NumSquares = Dim * Dim

	passSquare = 0xff
)

// A Move is a disc placement on a square, or a pass. Squares are indexed as
// (rank-1)*8 + file, with file a=0 .. h=7.
type Move struct {
	sq uint8
}

// PassMove is the null move played when the side to move cannot place.
var PassMove = Move{sq: passSquare}

// NewMove creates a placement from a 1-based file (column) and rank (row).
func NewMove(file, rank int) (Move, error) {
	if file < 1 || file > Dim || rank < 1 || rank > Dim {
		return Move{}, fmt.Errorf("%w: square %d,%d is off the board", ErrFormat, file, rank)
	}
	return Move{sq: uint8((rank-1)*Dim + file - 1)}, nil
}

// MoveAt creates a placement from a square index in [0, 64).
func MoveAt(sq int) Move {
	return Move{sq: uint8(sq)}
}

// ParseMove parses a move like "d3" (case-insensitive) or "pass".
func ParseMove(s string) (Move, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "pass" {
		return PassMove, nil
	}
	if len(s) != 2 {
		return Move{}, fmt.Errorf("%w: move %q must be a letter a-h followed by a digit 1-8", ErrFormat, s)
	}
	file := int(s[0]-'a') + 1
	rank := int(s[1]-'0')
	if s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return Move{}, fmt.Errorf("%w: move %q must be between a1 and h8", ErrFormat, s)
	}
	return NewMove(file, rank)
}

func (m Move) IsPass() bool {
	return m.sq == passSquare
}

// Square returns the square index, or -1 for a pass.
func (m Move) Square() int {
	if m.IsPass() {
		return -1
	}
	return int(m.sq)
}

// File is 1-based; a=1.
func (m Move) File() int {
	return int(m.sq)%Dim + 1
}

// Rank is 1-based.
func (m Move) Rank() int {
	return int(m.sq)/Dim + 1
}

func (m Move) bit() uint64 {
	return 1 << m.sq
}

// String returns the canonical lower-case notation, e.g. "d3".
func (m Move) String() string {
	if m.IsPass() {
		return "pass"
	}
	return string([]byte{byte('a' + m.File() - 1), byte('0' + m.Rank())})
}

// Less orders moves ascending column-major: a1, a2, ..., a8, b1, ... Pass
// sorts last.
func (m Move) Less(o Move) bool {
	if m.IsPass() || o.IsPass() {
		return !m.IsPass() && o.IsPass()
	}
	if m.File() != o.File() {
		return m.File() < o.File()
	}
	return m.Rank() < o.Rank()
}
