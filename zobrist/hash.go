package zobrist

import (
	"encoding/binary"
	"math/bits"
	"strconv"

	"github.com/cespare/xxhash"
	"lukechampine.com/frand"

	"github.com/domino14/othello/board"
)

const bignum = 1<<63 - 2

// Zobrist generates a 64-bit fingerprint for an Othello position.
// https://en.wikipedia.org/wiki/Zobrist_hashing
type Zobrist struct {
	lightToMove uint64
	// posTable[sq][0] is a dark disc on sq, posTable[sq][1] a light disc.
	posTable [board.NumSquares][2]uint64
}

type uint64Source interface {
	Uint64n(n uint64) uint64
}

type globalSource struct{}

func (globalSource) Uint64n(n uint64) uint64 { return frand.Uint64n(n) }

// Initialize fills the key table. With an empty seed the keys are drawn from
// the process-wide frand generator; otherwise they are derived from the seed
// and identical on every run.
func (z *Zobrist) Initialize(seed string) {
	var src uint64Source = globalSource{}
	if seed != "" {
		src = frand.NewCustom(expandSeed(seed), 1024, 12)
	}
	for i := 0; i < board.NumSquares; i++ {
		z.posTable[i][0] = src.Uint64n(bignum) + 1
		z.posTable[i][1] = src.Uint64n(bignum) + 1
	}
	z.lightToMove = src.Uint64n(bignum) + 1
}

// expandSeed stretches arbitrary seed text into the 32 bytes frand wants.
func expandSeed(seed string) []byte {
	out := make([]byte, 32)
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint64(out[i*8:], xxhash.Sum64String(strconv.Itoa(i)+":"+seed))
	}
	return out
}

// New returns an initialized Zobrist.
func New(seed string) *Zobrist {
	z := &Zobrist{}
	z.Initialize(seed)
	return z
}

func (z *Zobrist) discs(key, mask uint64, color int) uint64 {
	for mask != 0 {
		sq := bits.TrailingZeros64(mask)
		mask &= mask - 1
		key ^= z.posTable[sq][color]
	}
	return key
}

func (z *Zobrist) Hash(p board.Position) uint64 {
	key := z.discs(0, p.Discs(board.Dark), 0)
	key = z.discs(key, p.Discs(board.Light), 1)
	if p.ToMove() == board.Light {
		key ^= z.lightToMove
	}
	return key
}

// Update returns the fingerprint of after, given the fingerprint of before.
// Only the squares that changed are touched, so a placement costs one key
// per flipped disc plus the placed disc.
func (z *Zobrist) Update(key uint64, before, after board.Position) uint64 {
	key = z.discs(key, before.Discs(board.Dark)^after.Discs(board.Dark), 0)
	key = z.discs(key, before.Discs(board.Light)^after.Discs(board.Light), 1)
	if before.ToMove() != after.ToMove() {
		key ^= z.lightToMove
	}
	return key
}

// AddMove plays m on p and returns the resulting position with its
// fingerprint. The move must be legal.
func (z *Zobrist) AddMove(key uint64, p board.Position, m board.Move) (uint64, board.Position) {
	np := p.PlayUnchecked(m)
	return z.Update(key, p, np), np
}
