package equity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/domino14/othello/board"
	"github.com/domino14/othello/equity"
)

func parse(t *testing.T, s string) board.Position {
	t.Helper()
	p, err := board.Parse(s)
	assert.Nil(t, err)
	return p
}

func TestByName(t *testing.T) {
	for _, name := range equity.Names() {
		e, err := equity.ByName(name)
		assert.Nil(t, err)
		assert.Equal(t, name, e.Name())
	}
	_, err := equity.ByName("oracle")
	assert.NotNil(t, err)
}

func TestStartIsBalanced(t *testing.T) {
	p := board.StartPosition()
	for _, name := range equity.Names() {
		e, err := equity.ByName(name)
		assert.Nil(t, err)
		assert.Equal(t, 0, e.Evaluate(p), name)
	}
}

func TestPerspective(t *testing.T) {
	// dark holds a1 with an edge run, light has a single center disc.
	p := parse(t, "8E/8E/8E/3EW4E/8E/8E/8E/3B5E/B")
	for _, name := range equity.Names() {
		e, err := equity.ByName(name)
		assert.Nil(t, err)
		dark := e.Evaluate(p)
		light := e.Evaluate(p.Pass())
		assert.Greater(t, dark, 0, name)
		assert.Less(t, light, 0, name)
	}
}

func TestMaterial(t *testing.T) {
	p := parse(t, "8E/8E/8E/3EW4E/8E/8E/8E/3B5E/W")
	assert.Equal(t, -2, equity.Material{}.Evaluate(p))
}

func TestStableEdges(t *testing.T) {
	p := parse(t, "8E/8E/8E/8E/8E/8E/B7E/3BW4E/B")
	stable := equity.StableEdges(p)
	for _, sq := range []string{"a1", "b1", "c1", "a2"} {
		m, _ := board.ParseMove(sq)
		assert.NotZero(t, stable&(1<<m.Square()), sq)
	}
	m, _ := board.ParseMove("d1")
	assert.Zero(t, stable&(1<<m.Square()))
}

func TestFinalScore(t *testing.T) {
	p := parse(t, "8E/8E/8E/8E/8E/8E/8E/3B5E/W")
	assert.Equal(t, -3, equity.FinalScore(p))
}

func TestDeterministic(t *testing.T) {
	p := parse(t, "8E/8E/2E3W3E/2EWBW3E/2E3W3E/8E/8E/8E/B")
	c := equity.NewComposite()
	assert.Equal(t, c.Evaluate(p), c.Evaluate(p))
}
