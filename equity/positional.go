package equity

import (
	"math/bits"

	"github.com/domino14/othello/board"
)

// squareWeights is indexed by square, rank 1 first. The table is symmetric
// so orientation doesn't matter.
var squareWeights = [board.NumSquares]int{
	100, -20, 10, 5, 5, 10, -20, 100,
	-20, -50, -2, -2, -2, -2, -50, -20,
	10, -2, -1, -1, -1, -1, -2, 10,
	5, -2, -1, -1, -1, -1, -2, 5,
	5, -2, -1, -1, -1, -1, -2, 5,
	10, -2, -1, -1, -1, -1, -2, 10,
	-20, -50, -2, -2, -2, -2, -50, -20,
	100, -20, 10, 5, 5, 10, -20, 100,
}

// Positional sums static square weights.
type Positional struct{}

func (Positional) Name() string { return PositionalName }

func (Positional) Evaluate(p board.Position) int {
	me, opp := mover(p)
	return weightSum(p.Discs(me)) - weightSum(p.Discs(opp))
}

func weightSum(mask uint64) int {
	s := 0
	for mask != 0 {
		sq := bits.TrailingZeros64(mask)
		mask &= mask - 1
		s += squareWeights[sq]
	}
	return s
}
