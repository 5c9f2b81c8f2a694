// Package level owns the independently configured search engines. Each
// level has its own solver, cache and telemetry log; nothing is shared
// between levels except the fingerprint keys.
package level

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/othello/board"
	"github.com/domino14/othello/config"
	"github.com/domino14/othello/equity"
	"github.com/domino14/othello/negamax"
	"github.com/domino14/othello/telemetry"
	"github.com/domino14/othello/zobrist"
)

var (
	// ErrUnknownLevel is returned by read-only queries about a level that
	// hasn't been used yet.
	ErrUnknownLevel = errors.New("unknown level")
	// ErrInvalidLevel is returned for a level id with no configuration.
	ErrInvalidLevel = errors.New("invalid level")
)

type Level struct {
	id      int
	cfg     config.LevelConfig
	zobrist *zobrist.Zobrist
	solver  *negamax.Solver
	// nil when the level runs without a cache.
	cache *negamax.TranspositionTable
	log   *telemetry.Log
}

func (l *Level) ID() int {
	return l.id
}

func (l *Level) Config() config.LevelConfig {
	return l.cfg
}

// Cache is the level's transposition table, or nil if it has none.
func (l *Level) Cache() *negamax.TranspositionTable {
	return l.cache
}

func (l *Level) Log() *telemetry.Log {
	return l.log
}

func (l *Level) record(kind telemetry.Kind, p board.Position, start time.Time,
	stats negamax.SearchStats) telemetry.Record {

	return telemetry.Record{
		Level:       l.id,
		Kind:        kind,
		Fingerprint: l.zobrist.Hash(p),
		Board:       p.String(),
		Depth:       stats.Depth,
		Nodes:       stats.Nodes,
		Lookups:     stats.Lookups,
		Hits:        stats.Hits,
		Elapsed:     stats.Elapsed,
		Start:       start,
	}
}

// BestMove searches p and appends one record to the level's log.
func (l *Level) BestMove(ctx context.Context, p board.Position) (negamax.Result, error) {
	start := time.Now()
	res, err := l.solver.BestMove(ctx, p)
	if err != nil {
		return res, err
	}
	r := l.record(telemetry.KindBest, p, start, res.SearchStats)
	r.Move = res.Move.String()
	r.Score = res.Score
	r.PV = res.PV.Strings()
	l.log.Append(r)
	return res, nil
}

// RankMoves scores every move of p and appends one record to the level's
// log. The record's move and score are those of the top-ranked move.
func (l *Level) RankMoves(ctx context.Context, p board.Position) (negamax.Ranking, error) {
	start := time.Now()
	ranking, err := l.solver.RankMoves(ctx, p)
	if err != nil {
		return ranking, err
	}
	r := l.record(telemetry.KindRanked, p, start, ranking.SearchStats)
	r.Move = ranking.Moves[0].Move.String()
	r.Score = ranking.Moves[0].Score
	r.Ranking = lo.Map(ranking.Moves, func(m negamax.RankedMove, _ int) string {
		return m.String()
	})
	l.log.Append(r)
	return ranking, nil
}

func (l *Level) String() string {
	return fmt.Sprintf("level %d (depth %d, %s)", l.id, l.cfg.Depth, l.cfg.Evaluator)
}

func newLevel(id int, cfg config.LevelConfig, z *zobrist.Zobrist, opts options) (*Level, error) {
	eval, err := equity.ByName(cfg.Evaluator)
	if err != nil {
		return nil, fmt.Errorf("%w: level %d: %w", ErrInvalidLevel, id, err)
	}
	l := &Level{
		id:      id,
		cfg:     cfg,
		zobrist: z,
		log:     telemetry.NewLog(),
	}
	if !cfg.DisableTT {
		l.cache = negamax.NewTranspositionTable(opts.cacheCapacity)
		if opts.cacheMemoryFraction > 0 {
			l.cache.Reset(opts.cacheMemoryFraction)
		}
	}
	l.solver = &negamax.Solver{}
	if err := l.solver.Init(z, eval, l.cache); err != nil {
		return nil, err
	}
	l.solver.SetMaxDepth(cfg.Depth)
	l.solver.SetMaxTime(cfg.MaxTime)
	l.solver.SetThreads(opts.threads)
	l.solver.SetIterativeDeepening(!cfg.DisableIterativeDeepening)
	if l.cache != nil {
		// only a parallel root search touches the cache from several
		// goroutines.
		if l.solver.Threads() < 2 {
			l.cache.SetSingleThreadedMode()
		} else {
			l.cache.SetMultiThreadedMode()
		}
	}
	log.Debug().Int("level", id).Int("depth", cfg.Depth).Str("evaluator", cfg.Evaluator).
		Bool("cache", l.cache != nil).Msg("level-created")
	return l, nil
}
