package negamax

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	"github.com/domino14/othello/board"
)

const (
	TTExact = 0x01
	TTLower = 0x02
	TTUpper = 0x03
)

// approximate heap cost of one stored entry: the entry itself, its list
// element and its map slot.
const entrySize = 128

// TableEntry is what the search remembers about a position it finished
// searching.
type TableEntry struct {
	Fingerprint uint64
	Score       int32
	Depth       uint8
	Flag        uint8
	Move        board.Move
	HasMove     bool
}

func (t TableEntry) valid() bool {
	// a table flag is 1, 2, or 3.
	return t.Flag != 0
}

// FlagString is a human readable bound kind.
func (t TableEntry) FlagString() string {
	switch t.Flag {
	case TTExact:
		return "exact"
	case TTLower:
		return "lower"
	case TTUpper:
		return "upper"
	}
	return "invalid"
}

type TableLock interface {
	Lock()
	Unlock()
	RLock()
	RUnlock()
}

type FakeLock struct{}

func (f FakeLock) Lock()    {}
func (f FakeLock) Unlock()  {}
func (f FakeLock) RLock()   {}
func (f FakeLock) RUnlock() {}

// TTStats are the cumulative counters of a table.
type TTStats struct {
	Size      int    `yaml:"size"`
	Capacity  int    `yaml:"capacity"`
	Created   uint64 `yaml:"created"`
	Lookups   uint64 `yaml:"lookups"`
	Hits      uint64 `yaml:"hits"`
	Evictions uint64 `yaml:"evictions"`
}

// TranspositionTable maps fingerprints to search results. Entries are kept
// in least-recently-stored order; when a capacity is set the oldest stored
// entry is evicted to make room.
type TranspositionTable struct {
	TableLock
	entries map[uint64]*list.Element
	order   *list.List
	// 0 means unbounded.
	capacity int

	created   atomic.Uint64
	lookups   atomic.Uint64
	hits      atomic.Uint64
	evictions atomic.Uint64
}

// NewTranspositionTable makes an empty, concurrency-safe table.
func NewTranspositionTable(capacity int) *TranspositionTable {
	t := &TranspositionTable{
		TableLock: new(sync.RWMutex),
		entries:   make(map[uint64]*list.Element),
		order:     list.New(),
		capacity:  capacity,
	}
	return t
}

// SetSingleThreadedMode drops locking. Only safe when a single goroutine
// touches the table.
func (t *TranspositionTable) SetSingleThreadedMode() {
	t.TableLock = &FakeLock{}
}

func (t *TranspositionTable) SetMultiThreadedMode() {
	t.TableLock = new(sync.RWMutex)
}

// Lookup returns the entry stored for a fingerprint.
func (t *TranspositionTable) Lookup(zval uint64) (TableEntry, bool) {
	t.RLock()
	defer t.RUnlock()
	t.lookups.Add(1)
	el, ok := t.entries[zval]
	if !ok {
		return TableEntry{}, false
	}
	t.hits.Add(1)
	return el.Value.(TableEntry), true
}

// Store records an entry. An existing entry for the same fingerprint is
// only replaced by one searched at least as deep.
func (t *TranspositionTable) Store(zval uint64, tentry TableEntry) {
	tentry.Fingerprint = zval
	t.Lock()
	defer t.Unlock()
	if el, ok := t.entries[zval]; ok {
		if tentry.Depth < el.Value.(TableEntry).Depth {
			return
		}
		el.Value = tentry
		t.order.MoveToBack(el)
		return
	}
	if t.capacity > 0 && t.order.Len() >= t.capacity {
		oldest := t.order.Front()
		delete(t.entries, oldest.Value.(TableEntry).Fingerprint)
		t.order.Remove(oldest)
		t.evictions.Add(1)
	}
	t.entries[zval] = t.order.PushBack(tentry)
	t.created.Add(1)
}

// Dump returns a copy of every entry, least recently stored first.
func (t *TranspositionTable) Dump() []TableEntry {
	t.RLock()
	defer t.RUnlock()
	out := make([]TableEntry, 0, t.order.Len())
	for el := t.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(TableEntry))
	}
	return out
}

func (t *TranspositionTable) Len() int {
	t.RLock()
	defer t.RUnlock()
	return t.order.Len()
}

// Clear empties the table and zeroes its counters.
func (t *TranspositionTable) Clear() {
	t.Lock()
	defer t.Unlock()
	clear(t.entries)
	t.order.Init()
	t.created.Store(0)
	t.lookups.Store(0)
	t.hits.Store(0)
	t.evictions.Store(0)
}

func (t *TranspositionTable) Stats() TTStats {
	t.RLock()
	defer t.RUnlock()
	return TTStats{
		Size:      t.order.Len(),
		Capacity:  t.capacity,
		Created:   t.created.Load(),
		Lookups:   t.lookups.Load(),
		Hits:      t.hits.Load(),
		Evictions: t.evictions.Load(),
	}
}

// Reset clears the table and, if fractionOfMemory is positive, bounds it
// to roughly that share of system memory.
func (t *TranspositionTable) Reset(fractionOfMemory float64) {
	t.Clear()
	if fractionOfMemory <= 0 {
		return
	}
	totalMem := memory.TotalMemory()
	desiredNElems := fractionOfMemory * (float64(totalMem) / float64(entrySize))
	t.Lock()
	t.capacity = int(desiredNElems)
	// Guarantee some minimum; anything smaller is useless for a real search.
	if t.capacity < 1<<16 {
		t.capacity = 1 << 16
	}
	capacity := t.capacity
	t.Unlock()

	log.Info().Int("num-elems", capacity).
		Float64("desired-num-elems", desiredNElems).
		Int("estimated-total-memory-bytes", capacity*entrySize).
		Uint64("total-system-memory-bytes", totalMem).
		Msg("transposition-table-size")
}
