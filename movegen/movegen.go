// Package movegen generates the legal placements for an Othello position.
package movegen

import (
	"math/bits"

	"github.com/domino14/othello/board"
)

// LegalMoves returns the legal placements for the side to move, in
// ascending column-major order (a1, a2, ..., a8, b1, ...). An empty result
// means the side to move must pass (or the game is over).
func LegalMoves(p board.Position) []board.Move {
	return movesFromMask(p.LegalMask())
}

// AllMoves is like LegalMoves but yields a single pass instead of an empty
// slice when the side to move has nothing to place and the game goes on.
func AllMoves(p board.Position) []board.Move {
	moves := LegalMoves(p)
	if len(moves) == 0 && !p.GameOver() {
		return []board.Move{board.PassMove}
	}
	return moves
}

// movesFromMask walks files a..h, and within a file ranks 1..8. Square
// indices are rank-major, so the mask is transposed first to get
// column-major bit order.
func movesFromMask(mask uint64) []board.Move {
	if mask == 0 {
		return nil
	}
	moves := make([]board.Move, 0, bits.OnesCount64(mask))
	t := transpose(mask)
	for t != 0 {
		i := bits.TrailingZeros64(t)
		t &= t - 1
		// in the transposed board, i = file*8 + (rank-1)
		file, rank := i/board.Dim, i%board.Dim
		moves = append(moves, board.MoveAt(rank*board.Dim+file))
	}
	return moves
}

// transpose flips a bitboard along the a1-h8 diagonal.
func transpose(x uint64) uint64 {
	const (
		k1 = 0x5500550055005500
		k2 = 0x3333000033330000
		k4 = 0x0f0f0f0f00000000
	)
	t := k4 & (x ^ (x << 28))
	x ^= t ^ (t >> 28)
	t = k2 & (x ^ (x << 14))
	x ^= t ^ (t >> 14)
	t = k1 & (x ^ (x << 7))
	x ^= t ^ (t >> 7)
	return x
}

// Mobility is the number of placements available to c, regardless of whose
// turn it is.
func Mobility(p board.Position, c board.Color) int {
	return bits.OnesCount64(p.Moves(c))
}

// HasMoves is true if the side to move can place a disc.
func HasMoves(p board.Position) bool {
	return p.LegalMask() != 0
}

// MustPass is true if the side to move cannot place but the opponent can.
func MustPass(p board.Position) bool {
	return p.LegalMask() == 0 && p.Moves(p.ToMove().Opponent()) != 0
}

// GameOver is true if neither side can place.
func GameOver(p board.Position) bool {
	return p.GameOver()
}
