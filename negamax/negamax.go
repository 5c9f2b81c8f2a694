package negamax

import (
	"context"

	"github.com/domino14/othello/board"
	"github.com/domino14/othello/equity"
	"github.com/domino14/othello/movegen"
)

// thanks Wikipedia:
/*
function negamax(node, depth, α, β, color) is
    if depth = 0 or node is a terminal node then
        return color × the heuristic value of node

    childNodes := generateMoves(node)
    childNodes := orderMoves(childNodes)
    value := −∞
    foreach child in childNodes do
        value := max(value, −negamax(child, depth − 1, −β, −α, −color))
        α := max(α, value)
        if α ≥ β then
            break (* cut-off *)
    return value
(* Initial call for Player A's root node *)
negamax(rootNode, depth, −∞, +∞, 1)
**/

// HugeNumber is larger than any score an evaluator or a finished game can
// produce.
const HugeNumber = 1 << 30

// leaf scores a node at the search horizon.
func (s *Solver) leaf(p board.Position) int {
	if p.GameOver() {
		return equity.FinalScore(p)
	}
	return s.eval.Evaluate(p)
}

// child returns the position after m and the depth left to search it. A
// pass doesn't use up depth.
func child(p board.Position, m board.Move, depth int) (board.Position, int) {
	if m.IsPass() {
		return p.Pass(), depth
	}
	return p.PlayUnchecked(m), depth - 1
}

func (s *Solver) negamax(ctx context.Context, nodeKey uint64, p board.Position,
	depth int, α, β int, pv *PVLine) (int, error) {

	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	s.nodes.Add(1)

	if depth == 0 {
		return s.leaf(p), nil
	}

	children := movegen.LegalMoves(p)
	if len(children) == 0 {
		if p.GameOver() {
			return equity.FinalScore(p), nil
		}
		// Forced pass: same depth, other side.
		passed := p.Pass()
		childPV := PVLine{}
		value, err := s.negamax(ctx, s.zobrist.Update(nodeKey, p, passed), passed,
			depth, -β, -α, &childPV)
		if err != nil {
			return 0, err
		}
		pv.Update(board.PassMove, childPV, -value)
		return -value, nil
	}

	// Note: if I return early as in here, the PV might not be complete.
	// (the transposition table is cutting off the iterations)
	// The value should still be correct, though.
	alphaOrig := α
	if s.transpositionTableOptim {
		ttEntry, ok := s.ttable.Lookup(nodeKey)
		if ok && ttEntry.valid() {
			score := int(ttEntry.Score)
			// A score only stands for the depth it was searched to. Entries
			// from deeper searches still order the moves below.
			if int(ttEntry.Depth) == depth {
				switch ttEntry.Flag {
				case TTExact:
					if ttEntry.HasMove {
						pv.Update(ttEntry.Move, PVLine{}, score)
					}
					return score, nil
				case TTLower:
					α = max(α, score)
				case TTUpper:
					β = min(β, score)
				}
				if α >= β {
					return score, nil
				}
			}
			// search hash move first.
			if ttEntry.HasMove {
				hashMoveFirst(children, ttEntry.Move)
			}
		}
	}

	childPV := PVLine{}
	bestValue := -HugeNumber
	var bestMove board.Move
	for _, m := range children {
		np, childDepth := child(p, m, depth)
		childKey := s.zobrist.Update(nodeKey, p, np)
		value, err := s.negamax(ctx, childKey, np, childDepth, -β, -α, &childPV)
		if err != nil {
			return 0, err
		}
		if -value > bestValue {
			bestValue = -value
			bestMove = m
			pv.Update(m, childPV, bestValue)
		}
		α = max(α, bestValue)
		if bestValue >= β {
			break // beta cut-off
		}
		childPV.Clear() // clear the child node's pv for the next child node
	}

	if s.transpositionTableOptim {
		entryToStore := TableEntry{
			Score:   int32(bestValue),
			Depth:   uint8(depth),
			Move:    bestMove,
			HasMove: true,
		}
		if bestValue <= alphaOrig {
			entryToStore.Flag = TTUpper
		} else if bestValue >= β {
			entryToStore.Flag = TTLower
		} else {
			entryToStore.Flag = TTExact
		}
		s.ttable.Store(nodeKey, entryToStore)
	}
	return bestValue, nil
}

// hashMoveFirst moves m to the front, keeping the order of the rest.
func hashMoveFirst(moves []board.Move, m board.Move) {
	for i, c := range moves {
		if c == m {
			copy(moves[1:i+1], moves[:i])
			moves[0] = m
			return
		}
	}
}
