package negamax

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/othello/board"
	"github.com/domino14/othello/equity"
	"github.com/domino14/othello/movegen"
	"github.com/domino14/othello/zobrist"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	os.Exit(m.Run())
}

var testZobrist = zobrist.New("negamax-tests")

func setUpSolver(t *testing.T, evalName string, depth int, withTT bool) *Solver {
	t.Helper()
	e, err := equity.ByName(evalName)
	if err != nil {
		t.Fatal(err)
	}
	var tt *TranspositionTable
	if withTT {
		tt = NewTranspositionTable(0)
	}
	s := &Solver{}
	if err := s.Init(testZobrist, e, tt); err != nil {
		t.Fatal(err)
	}
	s.SetMaxDepth(depth)
	return s
}

// minimax is a plain full-width search to check the pruned one against.
func minimax(p board.Position, depth int, e equity.Evaluator) int {
	if depth == 0 {
		if p.GameOver() {
			return equity.FinalScore(p)
		}
		return e.Evaluate(p)
	}
	moves := movegen.LegalMoves(p)
	if len(moves) == 0 {
		if p.GameOver() {
			return equity.FinalScore(p)
		}
		return -minimax(p.Pass(), depth, e)
	}
	best := -HugeNumber
	for _, m := range moves {
		best = max(best, -minimax(p.PlayUnchecked(m), depth-1, e))
	}
	return best
}

// midgame returns the position reached after plies random moves.
func midgame(seed uint64, plies int) board.Position {
	r := rand.New(rand.NewPCG(seed, 42))
	p := board.StartPosition()
	for i := 0; i < plies && !p.GameOver(); i++ {
		moves := movegen.AllMoves(p)
		p = p.PlayUnchecked(moves[r.IntN(len(moves))])
	}
	return p
}

func TestOpeningTieBreak(t *testing.T) {
	is := is.New(t)
	s := setUpSolver(t, equity.MaterialName, 1, true)
	res, err := s.BestMove(context.Background(), board.StartPosition())
	is.NoErr(err)
	// all four openings flip one disc; the first in generator order wins.
	is.Equal(res.Move.String(), "c4")
	is.Equal(res.Score, 3)
	is.Equal(res.Depth, 1)
}

func TestMatchesMinimax(t *testing.T) {
	is := is.New(t)
	for _, evalName := range equity.Names() {
		for seed := uint64(1); seed <= 4; seed++ {
			p := midgame(seed, 16)
			if p.GameOver() {
				continue
			}
			const depth = 3
			e, _ := equity.ByName(evalName)
			want := -HugeNumber
			for _, m := range movegen.AllMoves(p) {
				np, d := child(p, m, depth)
				want = max(want, -minimax(np, d, e))
			}
			for _, withTT := range []bool{false, true} {
				s := setUpSolver(t, evalName, depth, withTT)
				res, err := s.BestMove(context.Background(), p)
				is.NoErr(err)
				is.Equal(res.Score, want)
			}
		}
	}
}

func TestCacheSoundness(t *testing.T) {
	is := is.New(t)
	for seed := uint64(10); seed < 16; seed++ {
		p := midgame(seed, 20)
		if p.GameOver() {
			continue
		}
		with := setUpSolver(t, equity.CompositeName, 5, true)
		without := setUpSolver(t, equity.CompositeName, 5, false)

		r1, err := with.BestMove(context.Background(), p)
		is.NoErr(err)
		r2, err := without.BestMove(context.Background(), p)
		is.NoErr(err)
		is.Equal(r1.Move, r2.Move)
		is.Equal(r1.Score, r2.Score)
		is.True(r1.Lookups > 0)
		is.Equal(r2.Lookups, uint64(0))

		k1, err := setUpSolver(t, equity.CompositeName, 4, true).RankMoves(context.Background(), p)
		is.NoErr(err)
		k2, err := setUpSolver(t, equity.CompositeName, 4, false).RankMoves(context.Background(), p)
		is.NoErr(err)
		is.Equal(k1.Moves, k2.Moves)
	}
}

// A cache warmed by deeper searches of the same positions must not change
// the scores of a later, shallower search.
func TestWarmCacheSoundness(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	for seed := uint64(1); seed <= 16; seed++ {
		p := midgame(seed, 14)
		if p.GameOver() {
			continue
		}
		warm := setUpSolver(t, equity.PositionalName, 4, true)
		for _, m := range movegen.AllMoves(p) {
			np := p.PlayUnchecked(m)
			if np.GameOver() {
				continue
			}
			_, err := warm.BestMove(ctx, np)
			is.NoErr(err)
		}
		is.True(warm.TranspositionTable().Len() > 0)

		got, err := warm.RankMoves(ctx, p)
		is.NoErr(err)
		want, err := setUpSolver(t, equity.PositionalName, 4, false).RankMoves(ctx, p)
		is.NoErr(err)
		is.Equal(got.Moves, want.Moves)

		best, err := warm.BestMove(ctx, p)
		is.NoErr(err)
		is.Equal(best.Move, want.Moves[0].Move)
		is.Equal(best.Score, want.Moves[0].Score)
	}
}

func TestDeterminism(t *testing.T) {
	is := is.New(t)
	p := midgame(7, 12)
	a := setUpSolver(t, equity.PositionalName, 5, true)
	b := setUpSolver(t, equity.PositionalName, 5, true)
	r1, err := a.BestMove(context.Background(), p)
	is.NoErr(err)
	r2, err := b.BestMove(context.Background(), p)
	is.NoErr(err)
	is.Equal(r1.Move, r2.Move)
	is.Equal(r1.Score, r2.Score)
	is.Equal(r1.Nodes, r2.Nodes)
	is.Equal(r1.PV.Moves, r2.PV.Moves)
}

func TestRankingConsistency(t *testing.T) {
	is := is.New(t)
	for seed := uint64(20); seed < 25; seed++ {
		p := midgame(seed, 14)
		if p.GameOver() {
			continue
		}
		best, err := setUpSolver(t, equity.MobilityName, 3, true).BestMove(context.Background(), p)
		is.NoErr(err)
		ranking, err := setUpSolver(t, equity.MobilityName, 3, true).RankMoves(context.Background(), p)
		is.NoErr(err)
		is.Equal(len(ranking.Moves), len(movegen.AllMoves(p)))
		is.Equal(ranking.Moves[0].Move, best.Move)
		is.Equal(ranking.Moves[0].Score, best.Score)
		for i := 1; i < len(ranking.Moves); i++ {
			prev, cur := ranking.Moves[i-1], ranking.Moves[i]
			is.True(prev.Score >= cur.Score)
			if prev.Score == cur.Score {
				is.True(prev.Move.Less(cur.Move)) // ties keep generator order
			}
		}
	}
}

func TestParallelRootAgrees(t *testing.T) {
	is := is.New(t)
	p := midgame(3, 18)
	single := setUpSolver(t, equity.CompositeName, 4, true)
	multi := setUpSolver(t, equity.CompositeName, 4, true)
	multi.SetThreads(4)
	r1, err := single.BestMove(context.Background(), p)
	is.NoErr(err)
	r2, err := multi.BestMove(context.Background(), p)
	is.NoErr(err)
	is.Equal(r1.Move, r2.Move)
	is.Equal(r1.Score, r2.Score)
}

func TestGameOver(t *testing.T) {
	is := is.New(t)
	p, err := board.Parse("8E/8E/8E/8E/8E/8E/8E/3B5E/W")
	is.NoErr(err)
	s := setUpSolver(t, equity.MaterialName, 3, true)
	_, err = s.BestMove(context.Background(), p)
	is.True(errors.Is(err, ErrNoLegalMove))
	_, err = s.RankMoves(context.Background(), p)
	is.True(errors.Is(err, ErrNoLegalMove))
}

func TestForcedPassAtRoot(t *testing.T) {
	is := is.New(t)
	// light cannot move, dark can take b3 with c3 and then the game is over.
	p, err := board.Parse("8E/8E/8E/8E/8E/BW6E/8E/3B5E/W")
	is.NoErr(err)
	s := setUpSolver(t, equity.MaterialName, 1, true)
	res, err := s.BestMove(context.Background(), p)
	is.NoErr(err)
	is.True(res.Move.IsPass())
	// dark ends with all 6 discs
	is.Equal(res.Score, -6)
	is.Equal(res.PV.Strings(), []string{"pass", "c3"})

	ranking, err := s.RankMoves(context.Background(), p)
	is.NoErr(err)
	is.Equal(len(ranking.Moves), 1)
	is.True(ranking.Moves[0].Move.IsPass())
}

func TestTerminalScoreIsDiscDifferential(t *testing.T) {
	is := is.New(t)
	// dark to move, c3 ends the game 6-0.
	p, err := board.Parse("8E/8E/8E/8E/8E/BW6E/8E/3B5E/B")
	is.NoErr(err)
	s := setUpSolver(t, equity.CompositeName, 2, true)
	ranking, err := s.RankMoves(context.Background(), p)
	is.NoErr(err)
	is.Equal(ranking.Moves[0].Move.String(), "c3")
	is.Equal(ranking.Moves[0].Score, 6)
}

func TestDeadlineKeepsCompletedDepth(t *testing.T) {
	is := is.New(t)
	s := setUpSolver(t, equity.CompositeName, 30, true)
	s.SetMaxTime(time.Nanosecond)
	res, err := s.BestMove(context.Background(), midgame(5, 10))
	is.NoErr(err)
	is.True(res.Depth >= 1)
	is.True(res.Depth < 30)
}
