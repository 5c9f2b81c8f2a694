package negamax

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/othello/board"
	"github.com/domino14/othello/equity"
	"github.com/domino14/othello/movegen"
	"github.com/domino14/othello/zobrist"
)

var (
	ErrNoLegalMove = errors.New("no legal move: the game is over")
)

// SearchStats describes one finished search.
type SearchStats struct {
	// Depth is the deepest fully completed iteration.
	Depth   int
	Nodes   uint64
	Lookups uint64
	Hits    uint64
	Elapsed time.Duration
}

// Result is the outcome of BestMove.
type Result struct {
	Move  board.Move
	Score int
	PV    PVLine
	SearchStats
}

type RankedMove struct {
	Move  board.Move
	Score int
}

func (r RankedMove) String() string {
	return fmt.Sprintf("%s %d", r.Move, r.Score)
}

// Ranking is the outcome of RankMoves: every root move with its score, best
// first.
type Ranking struct {
	Moves []RankedMove
	SearchStats
}

// Solver runs depth-bounded negamax searches for one strength setting. A
// Solver runs one search at a time; it may fan the root out to several
// goroutines internally.
type Solver struct {
	zobrist *zobrist.Zobrist
	eval    equity.Evaluator
	ttable  *TranspositionTable

	iterativeDeepeningOptim bool
	transpositionTableOptim bool
	lazySMPOptim            bool

	maxDepth int
	maxTime  time.Duration
	threads  int
	nodes    atomic.Uint64
}

// iteration is what one depth of iterative deepening produced.
type iteration struct {
	depth  int
	scores []int
	pvs    []PVLine
	best   int
}

// Init initializes the solver. The transposition table may be nil, in which
// case the solver searches without one.
func (s *Solver) Init(z *zobrist.Zobrist, eval equity.Evaluator, tt *TranspositionTable) error {
	if z == nil || eval == nil {
		return errors.New("solver needs a zobrist hasher and an evaluator")
	}
	s.zobrist = z
	s.eval = eval
	s.ttable = tt
	s.transpositionTableOptim = tt != nil
	s.iterativeDeepeningOptim = true
	s.maxDepth = 1
	s.threads = 1
	return nil
}

func (s *Solver) SetMaxDepth(depth int) {
	s.maxDepth = max(depth, 1)
}

func (s *Solver) MaxDepth() int {
	return s.maxDepth
}

// SetMaxTime bounds a search by wall clock; zero means no bound.
func (s *Solver) SetMaxTime(d time.Duration) {
	s.maxTime = d
}

// SetThreads sets the number of goroutines the root moves are spread over.
// A value of 0 means one fewer than the number of CPUs.
func (s *Solver) SetThreads(threads int) {
	if threads == 0 {
		threads = int(math.Max(1, float64(runtime.NumCPU()-1)))
	}
	switch {
	case threads < 2:
		s.threads = 1
		s.lazySMPOptim = false
	case threads >= 2:
		s.threads = threads
		s.lazySMPOptim = true
	}
}

func (s *Solver) SetIterativeDeepening(id bool) {
	s.iterativeDeepeningOptim = id
}

// Threads is the number of goroutines the root is spread over.
func (s *Solver) Threads() int {
	return s.threads
}

func (s *Solver) TranspositionTable() *TranspositionTable {
	return s.ttable
}

func (s *Solver) Evaluator() equity.Evaluator {
	return s.eval
}

// rootMoves returns the moves searched at the root: the legal placements,
// or a lone pass.
func rootMoves(p board.Position) ([]board.Move, error) {
	moves := movegen.AllMoves(p)
	if len(moves) == 0 {
		return nil, ErrNoLegalMove
	}
	return moves, nil
}

// BestMove returns the best move for the side to move. Ties go to the move
// that comes first in generator order.
func (s *Solver) BestMove(ctx context.Context, p board.Position) (Result, error) {
	moves, err := rootMoves(p)
	if err != nil {
		return Result{}, err
	}
	it, stats, err := s.solve(ctx, p, moves, false)
	if err != nil {
		return Result{}, err
	}
	res := Result{
		Move:        moves[it.best],
		Score:       it.scores[it.best],
		PV:          it.pvs[it.best],
		SearchStats: stats,
	}
	log.Debug().Str("move", res.Move.String()).Int("score", res.Score).
		Str("pv", res.PV.NLBString()).Msg("best-move")
	return res, nil
}

// RankMoves scores every root move with a full window and sorts them best
// first. Equal scores keep generator order.
func (s *Solver) RankMoves(ctx context.Context, p board.Position) (Ranking, error) {
	moves, err := rootMoves(p)
	if err != nil {
		return Ranking{}, err
	}
	it, stats, err := s.solve(ctx, p, moves, true)
	if err != nil {
		return Ranking{}, err
	}
	ranked := make([]RankedMove, len(moves))
	for i, m := range moves {
		ranked[i] = RankedMove{Move: m, Score: it.scores[i]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return Ranking{Moves: ranked, SearchStats: stats}, nil
}

func (s *Solver) solve(ctx context.Context, p board.Position, moves []board.Move,
	fullWindow bool) (iteration, SearchStats, error) {

	log.Debug().Int("plies", s.maxDepth).Int("threads", s.threads).
		Str("evaluator", s.eval.Name()).Msg("negamax-solve-config")
	tstart := time.Now()
	s.nodes.Store(0)
	var lookups0, hits0 uint64
	if s.transpositionTableOptim {
		lookups0, hits0 = s.ttable.lookups.Load(), s.ttable.hits.Load()
	}

	g := &errgroup.Group{}
	done := make(chan bool)

	g.Go(func() error {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		var lastNodes uint64
		for {
			select {
			case <-done:
				return nil
			case <-ticker.C:
				nodes := s.nodes.Load()
				log.Debug().Uint64("nps", nodes-lastNodes).Msg("nodes-per-second")
				lastNodes = nodes
			}
		}
	})

	var it iteration
	g.Go(func() error {
		defer close(done)
		var err error
		it, err = s.iterativelyDeepen(ctx, p, moves, fullWindow)
		return err
	})

	err := g.Wait()
	stats := SearchStats{
		Depth:   it.depth,
		Nodes:   s.nodes.Load(),
		Elapsed: time.Since(tstart),
	}
	if s.transpositionTableOptim {
		stats.Lookups = s.ttable.lookups.Load() - lookups0
		stats.Hits = s.ttable.hits.Load() - hits0
	}
	log.Info().
		Int("depth", stats.Depth).
		Uint64("nodes", stats.Nodes).
		Uint64("ttable-lookups", stats.Lookups).
		Uint64("ttable-hits", stats.Hits).
		Float64("time-elapsed-sec", stats.Elapsed.Seconds()).
		Msg("solve-returning")
	return it, stats, err
}

// iterativelyDeepen searches depth 1, 2, ... up to the max depth and returns
// the deepest iteration that completed. The first iteration always runs to
// completion; later ones are abandoned when the time budget runs out.
func (s *Solver) iterativelyDeepen(ctx context.Context, p board.Position,
	moves []board.Move, fullWindow bool) (iteration, error) {

	rootKey := s.zobrist.Hash(p)
	start := 1
	if !s.iterativeDeepeningOptim {
		start = s.maxDepth
	}
	var deadline time.Time
	if s.maxTime > 0 {
		deadline = time.Now().Add(s.maxTime)
	}

	var last iteration
	for d := start; d <= s.maxDepth; d++ {
		log.Debug().Int("plies", d).Msg("deepening-iteratively")
		iterCtx := ctx
		cancel := context.CancelFunc(func() {})
		if d == start {
			iterCtx = context.WithoutCancel(ctx)
		} else if !deadline.IsZero() {
			iterCtx, cancel = context.WithDeadline(ctx, deadline)
		}
		it, err := s.searchRoot(iterCtx, rootKey, p, moves, d, fullWindow)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				log.Info().Int("completed-plies", last.depth).Int("abandoned-plies", d).
					Msg("search-time-up")
				return last, nil
			}
			return last, err
		}
		last = it
		log.Debug().Int("score", it.scores[it.best]).Int("ply", d).
			Str("pv", it.pvs[it.best].NLBString()).Msg("best-val")
	}
	return last, nil
}

func (s *Solver) searchRoot(ctx context.Context, rootKey uint64, p board.Position,
	moves []board.Move, depth int, fullWindow bool) (iteration, error) {

	it := iteration{
		depth:  depth,
		scores: make([]int, len(moves)),
		pvs:    make([]PVLine, len(moves)),
	}
	searchOne := func(ctx context.Context, i int, α, β int) error {
		np, childDepth := child(p, moves[i], depth)
		childKey := s.zobrist.Update(rootKey, p, np)
		var childPV PVLine
		value, err := s.negamax(ctx, childKey, np, childDepth, -β, -α, &childPV)
		if err != nil {
			return err
		}
		it.scores[i] = -value
		it.pvs[i].Update(moves[i], childPV, -value)
		return nil
	}

	if s.lazySMPOptim && len(moves) > 1 {
		// Spread the root moves over goroutines. Every move gets a full
		// window so the scores don't depend on which finishes first.
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.threads)
		for i := range moves {
			i := i
			g.Go(func() error {
				return searchOne(gctx, i, -HugeNumber, HugeNumber)
			})
		}
		if err := g.Wait(); err != nil {
			return it, err
		}
		for i := range moves {
			if it.scores[i] > it.scores[it.best] {
				it.best = i
			}
		}
		return it, nil
	}

	α, β := -HugeNumber, HugeNumber
	bestValue := -HugeNumber
	for i := range moves {
		if fullWindow {
			α = -HugeNumber
		}
		if err := searchOne(ctx, i, α, β); err != nil {
			return it, err
		}
		if it.scores[i] > bestValue {
			bestValue = it.scores[i]
			it.best = i
		}
		α = max(α, bestValue)
	}
	return it, nil
}
