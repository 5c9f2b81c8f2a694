package equity

import (
	"math"
	"math/bits"

	"github.com/domino14/othello/board"
)

// Composite blends several normalized features. Each feature is a ratio
// (mine - theirs) / (mine + theirs) in [-1, 1], scaled by its weight.
type Composite struct {
	Parity    int
	Corner    int
	Mobility  int
	XC        int
	Stability int
}

func NewComposite() Composite {
	return Composite{
		Parity:    50,
		Corner:    100,
		Mobility:  100,
		XC:        50,
		Stability: 100,
	}
}

func (Composite) Name() string { return CompositeName }

func ratio(mine, theirs int) float64 {
	if mine+theirs == 0 {
		return 0
	}
	return float64(mine-theirs) / float64(mine+theirs)
}

func (c Composite) Evaluate(p board.Position) int {
	me, opp := mover(p)
	own, theirs := p.Discs(me), p.Discs(opp)

	parity := ratio(bits.OnesCount64(own), bits.OnesCount64(theirs))
	corner := ratio(bits.OnesCount64(own&cornerMask), bits.OnesCount64(theirs&cornerMask))
	mobility := ratio(bits.OnesCount64(p.Moves(me)), bits.OnesCount64(p.Moves(opp)))
	// owning squares next to an empty corner is bad, hence the swap.
	xc := ratio(bits.OnesCount64(theirs&xcMask), bits.OnesCount64(own&xcMask))
	stable := StableEdges(p)
	stability := ratio(bits.OnesCount64(own&stable), bits.OnesCount64(theirs&stable))

	score := float64(c.Parity)*parity +
		float64(c.Corner)*corner +
		float64(c.Mobility)*mobility +
		float64(c.XC)*xc +
		float64(c.Stability)*stability
	return int(math.Round(score))
}

// edge walks, each starting at a corner square and moving along an edge.
var edgeWalks = [8][2]int{
	{0, 1}, {0, 8}, // a1 -> h1, a1 -> a8
	{7, -1}, {7, 8}, // h1 -> a1, h1 -> h8
	{56, 1}, {56, -8}, // a8 -> h8, a8 -> a1
	{63, -1}, {63, -8}, // h8 -> a8, h8 -> h1
}

// StableEdges returns the mask of edge discs that can never be flipped
// because they form an unbroken same-colored run from an occupied corner.
func StableEdges(p board.Position) uint64 {
	var stable uint64
	for _, w := range edgeWalks {
		start, step := w[0], w[1]
		c := p.At(start)
		if c == board.Empty {
			continue
		}
		sq := start
		for i := 0; i < board.Dim && p.At(sq) == c; i++ {
			stable |= 1 << sq
			sq += step
		}
	}
	return stable
}
