package zobrist

import (
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/othello/board"
	"github.com/domino14/othello/movegen"
)

func TestIncrementalMatchesFull(t *testing.T) {
	is := is.New(t)
	z := New("")
	p := board.StartPosition()
	h := z.Hash(p)
	for ply := 0; ply < 60 && !p.GameOver(); ply++ {
		moves := movegen.AllMoves(p)
		m := moves[ply%len(moves)]
		h, p = z.AddMove(h, p, m)
		is.Equal(h, z.Hash(p))
	}
}

func TestPlayAndUnplay(t *testing.T) {
	is := is.New(t)
	z := New("")
	p := board.StartPosition()
	h := z.Hash(p)
	m, err := board.ParseMove("d3")
	is.NoErr(err)
	h1, p1 := z.AddMove(h, p, m)
	// going back is the same update in reverse
	is.Equal(z.Update(h1, p1, p), h)
	is.True(h1 != h) // extremely unlikely to collide
}

func TestSideToMoveMatters(t *testing.T) {
	is := is.New(t)
	z := New("")
	p := board.StartPosition()
	is.True(z.Hash(p) != z.Hash(p.Pass()))
}

func TestSeeded(t *testing.T) {
	is := is.New(t)
	a := New("reproducible")
	b := New("reproducible")
	c := New("something else")
	p := board.StartPosition()
	is.Equal(a.Hash(p), b.Hash(p))
	is.True(a.Hash(p) != c.Hash(p))
}
