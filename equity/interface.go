// Package equity holds the static evaluators the search calls at its
// horizon.
package equity

import (
	"fmt"
	"sort"

	"github.com/domino14/othello/board"
)

// Evaluator scores a non-terminal position from the point of view of the
// side to move. Higher is better. Implementations must be deterministic
// and side-effect free so that cached scores stay valid.
type Evaluator interface {
	Name() string
	Evaluate(p board.Position) int
}

const (
	MaterialName   = "material"
	MobilityName   = "mobility"
	PositionalName = "positional"
	CompositeName  = "composite"
)

var registry = map[string]func() Evaluator{
	MaterialName:   func() Evaluator { return Material{} },
	MobilityName:   func() Evaluator { return Mobility{} },
	PositionalName: func() Evaluator { return Positional{} },
	CompositeName:  func() Evaluator { return NewComposite() },
}

// ByName returns the evaluator registered under name.
func ByName(name string) (Evaluator, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown evaluator %q; choose one of %v", name, Names())
	}
	return ctor(), nil
}

// Names lists the registered evaluators, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FinalScore is the score of a finished game for the side to move: the
// actual disc differential.
func FinalScore(p board.Position) int {
	return p.DiscDifferential()
}
