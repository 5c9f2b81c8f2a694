package equity

import (
	"math/bits"

	"github.com/domino14/othello/board"
)

// Material counts discs.
type Material struct{}

func (Material) Name() string { return MaterialName }

func (Material) Evaluate(p board.Position) int {
	return p.DiscDifferential()
}

const (
	cornerMask uint64 = 0x8100000000000081
	// squares adjacent to a corner: the X squares (diagonal) and C squares
	// (orthogonal).
	xcMask uint64 = 0x42c300000000c342
)

func mover(p board.Position) (board.Color, board.Color) {
	c := p.ToMove()
	return c, c.Opponent()
}

// Mobility rewards having more moves than the opponent, and holding corners.
type Mobility struct{}

func (Mobility) Name() string { return MobilityName }

func (Mobility) Evaluate(p board.Position) int {
	me, opp := mover(p)
	moves := bits.OnesCount64(p.Moves(me)) - bits.OnesCount64(p.Moves(opp))
	corners := bits.OnesCount64(p.Discs(me)&cornerMask) - bits.OnesCount64(p.Discs(opp)&cornerMask)
	return 10*moves + 25*corners
}
