package negamax

import (
	"fmt"
	"strings"

	"github.com/domino14/othello/board"
)

// Credit: MIT-licensed https://github.com/algerbrex/blunder/blob/main/engine/search.go
type PVLine struct {
	Moves []board.Move
	score int
}

// Clear the principal variation line.
func (pvLine *PVLine) Clear() {
	pvLine.Moves = nil
}

// Update the principal variation line with a new best move,
// and a new line of best play after the best move.
func (pvLine *PVLine) Update(m board.Move, newPVLine PVLine, score int) {
	pvLine.Clear()
	pvLine.Moves = append(pvLine.Moves, m)
	pvLine.Moves = append(pvLine.Moves, newPVLine.Moves...)
	pvLine.score = score
}

// Strings returns the moves of the line in notation.
func (pvLine PVLine) Strings() []string {
	out := make([]string, len(pvLine.Moves))
	for i, m := range pvLine.Moves {
		out[i] = m.String()
	}
	return out
}

func (pvLine PVLine) NLBString() string {
	// no line breaks
	return fmt.Sprintf("PV; val %d; %s", pvLine.score, strings.Join(pvLine.Strings(), " "))
}
