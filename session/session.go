// Package session holds the state shared by all commands: the global board
// and the level registry. Commands run one at a time.
package session

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/domino14/othello/board"
	"github.com/domino14/othello/level"
	"github.com/domino14/othello/movegen"
	"github.com/domino14/othello/negamax"
	"github.com/domino14/othello/telemetry"
)

var ErrInternal = errors.New("internal error")

type Session struct {
	sync.Mutex
	global   board.Position
	registry *level.Registry
}

func New(registry *level.Registry) *Session {
	return &Session{
		global:   board.StartPosition(),
		registry: registry,
	}
}

// recoverInternal turns a panic in the engine into ErrInternal. Since
// nothing is committed until a command succeeds, no state is left half
// changed.
func recoverInternal(err *error) {
	if r := recover(); r != nil {
		log.Error().Interface("panic", r).Str("stack", string(debug.Stack())).
			Msg("command-panicked")
		*err = fmt.Errorf("%w: %v", ErrInternal, r)
	}
}

// position returns the parsed board text, or the global board if text is
// empty.
func (s *Session) position(text string) (board.Position, error) {
	if text == "" {
		return s.global, nil
	}
	return board.Parse(text)
}

// Quit resets the global board and drops every level.
func (s *Session) Quit() {
	s.Lock()
	defer s.Unlock()
	s.global = board.StartPosition()
	s.registry.DropAll()
	log.Info().Msg("session-reset")
}

// Move applies a move. Without a board argument it is played on the global
// board, which is updated; with one, the result is only returned.
func (s *Session) Move(moveText, boardText string) (pos board.Position, err error) {
	s.Lock()
	defer s.Unlock()
	defer recoverInternal(&err)
	m, err := board.ParseMove(moveText)
	if err != nil {
		return board.Position{}, err
	}
	p, err := s.position(boardText)
	if err != nil {
		return board.Position{}, err
	}
	np, err := board.Apply(p, m)
	if err != nil {
		return board.Position{}, err
	}
	if boardText == "" {
		s.global = np
	}
	return np, nil
}

// Board returns the global board.
func (s *Session) Board() board.Position {
	s.Lock()
	defer s.Unlock()
	return s.global
}

// Moves lists legal moves for a board, or the global board. A position
// where the side to move must pass yields a lone pass; a finished game
// yields nothing.
func (s *Session) Moves(boardText string) (moves []board.Move, err error) {
	s.Lock()
	defer s.Unlock()
	defer recoverInternal(&err)
	p, err := s.position(boardText)
	if err != nil {
		return nil, err
	}
	return movegen.AllMoves(p), nil
}

// Log returns a level's telemetry records. A level that was never used
// reports level.ErrUnknownLevel.
func (s *Session) Log(id int, f telemetry.Filter) ([]telemetry.Record, error) {
	s.Lock()
	defer s.Unlock()
	l, err := s.registry.Peek(id)
	if err != nil {
		return nil, err
	}
	return l.Log().View(f), nil
}

// Summary aggregates a level's telemetry records.
func (s *Session) Summary(id int, f telemetry.Filter) (telemetry.Summary, error) {
	s.Lock()
	defer s.Unlock()
	l, err := s.registry.Peek(id)
	if err != nil {
		return telemetry.Summary{}, err
	}
	return l.Log().Summarize(f), nil
}

// CacheSnapshot copies a level's cache, least recently stored first. A
// level running without a cache yields no entries.
func (s *Session) CacheSnapshot(id int) ([]negamax.TableEntry, negamax.TTStats, error) {
	s.Lock()
	defer s.Unlock()
	l, err := s.registry.Peek(id)
	if err != nil {
		return nil, negamax.TTStats{}, err
	}
	if l.Cache() == nil {
		return nil, negamax.TTStats{}, nil
	}
	return l.Cache().Dump(), l.Cache().Stats(), nil
}

// Drop discards a level's cache and log.
func (s *Session) Drop(id int) error {
	s.Lock()
	defer s.Unlock()
	return s.registry.Drop(id)
}

// Best finds the best move for a board, or the global board.
func (s *Session) Best(ctx context.Context, id int, boardText string) (res negamax.Result, err error) {
	s.Lock()
	defer s.Unlock()
	defer recoverInternal(&err)
	p, err := s.position(boardText)
	if err != nil {
		return negamax.Result{}, err
	}
	l, err := s.registry.GetOrCreate(id)
	if err != nil {
		return negamax.Result{}, err
	}
	return l.BestMove(ctx, p)
}

// Ranked scores every legal move for a board, or the global board.
func (s *Session) Ranked(ctx context.Context, id int, boardText string) (r negamax.Ranking, err error) {
	s.Lock()
	defer s.Unlock()
	defer recoverInternal(&err)
	p, err := s.position(boardText)
	if err != nil {
		return negamax.Ranking{}, err
	}
	l, err := s.registry.GetOrCreate(id)
	if err != nil {
		return negamax.Ranking{}, err
	}
	return l.RankMoves(ctx, p)
}

// NumLevels is the number of configured levels.
func (s *Session) NumLevels() int {
	return s.registry.NumLevels()
}
