package level

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/othello/config"
	"github.com/domino14/othello/zobrist"
)

type options struct {
	threads             int
	cacheCapacity       int
	cacheMemoryFraction float64
}

// Registry maps level ids (1..N) to levels, creating them on first use.
type Registry struct {
	sync.Mutex
	configs []config.LevelConfig
	levels  map[int]*Level
	zobrist *zobrist.Zobrist
	opts    options
}

// NewRegistry builds a registry from cfg. No level is created until it is
// first used.
func NewRegistry(cfg *config.Config) (*Registry, error) {
	levels, err := cfg.Levels()
	if err != nil {
		return nil, err
	}
	return &Registry{
		configs: levels,
		levels:  make(map[int]*Level),
		zobrist: zobrist.New(cfg.GetString(config.ConfigZobristSeed)),
		opts: options{
			threads:             cfg.GetInt(config.ConfigThreads),
			cacheCapacity:       cfg.GetInt(config.ConfigCacheCapacity),
			cacheMemoryFraction: cfg.GetFloat64(config.ConfigCacheMemoryFraction),
		},
	}, nil
}

// NumLevels is the number of configured levels.
func (r *Registry) NumLevels() int {
	return len(r.configs)
}

func (r *Registry) checkID(id int) error {
	if id < 1 || id > len(r.configs) {
		return fmt.Errorf("%w: %d (levels run from 1 to %d)", ErrInvalidLevel, id, len(r.configs))
	}
	return nil
}

// GetOrCreate returns level id, creating it with an empty cache and log if
// it doesn't exist yet.
func (r *Registry) GetOrCreate(id int) (*Level, error) {
	if err := r.checkID(id); err != nil {
		return nil, err
	}
	r.Lock()
	defer r.Unlock()
	if l, ok := r.levels[id]; ok {
		return l, nil
	}
	l, err := newLevel(id, r.configs[id-1], r.zobrist, r.opts)
	if err != nil {
		return nil, err
	}
	r.levels[id] = l
	return l, nil
}

// Peek returns level id without creating it.
func (r *Registry) Peek(id int) (*Level, error) {
	if err := r.checkID(id); err != nil {
		return nil, err
	}
	r.Lock()
	defer r.Unlock()
	l, ok := r.levels[id]
	if !ok {
		return nil, fmt.Errorf("%w: level %d has no data yet", ErrUnknownLevel, id)
	}
	return l, nil
}

// Drop discards level id. The next reference creates it afresh. Dropping a
// level that was never used is not an error.
func (r *Registry) Drop(id int) error {
	if err := r.checkID(id); err != nil {
		return err
	}
	r.Lock()
	defer r.Unlock()
	delete(r.levels, id)
	log.Debug().Int("level", id).Msg("level-dropped")
	return nil
}

func (r *Registry) DropAll() {
	r.Lock()
	defer r.Unlock()
	clear(r.levels)
	log.Debug().Msg("all-levels-dropped")
}

// Created lists the ids of the levels that currently exist, ascending.
func (r *Registry) Created() []int {
	r.Lock()
	defer r.Unlock()
	ids := lo.Keys(r.levels)
	sort.Ints(ids)
	return ids
}
