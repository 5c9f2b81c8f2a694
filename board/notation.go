package board

import (
	"fmt"
	"strconv"
	"strings"
)

const rankSeparator = "/"

// Parse decodes board notation. Ranks run from rank 8 down to rank 1 and are
// separated by a slash. Within a rank, a count applies to the marker that
// follows it (E empty, B dark, W light); a bare marker is a single square.
// An optional side-to-move marker may follow the last rank, either as a
// ninth slash-separated token or after a space. Dark moves if it is omitted.
//
//	8E/8E/8E/3EBW3E/3EWB3E/8E/8E/8E/B
func Parse(text string) (Position, error) {
	text = strings.TrimSpace(text)
	fields := strings.Fields(text)
	side := ""
	switch len(fields) {
	case 0:
		return Position{}, fmt.Errorf("%w: empty board", ErrFormat)
	case 1:
	case 2:
		side = fields[1]
	default:
		return Position{}, fmt.Errorf("%w: unexpected text after board: %q", ErrFormat,
			strings.Join(fields[2:], " "))
	}

	ranks := strings.Split(fields[0], rankSeparator)
	if len(ranks) == Dim+1 {
		if side != "" && ranks[Dim] != "" {
			return Position{}, fmt.Errorf("%w: side to move given twice", ErrFormat)
		}
		if ranks[Dim] != "" {
			side = ranks[Dim]
		}
		ranks = ranks[:Dim]
	}
	if len(ranks) > Dim {
		return Position{}, fmt.Errorf("%w: %d ranks, at most %d allowed", ErrFormat, len(ranks), Dim)
	}
	if len(ranks) < Dim {
		return Position{}, fmt.Errorf("%w: %d ranks, need %d", ErrFormat, len(ranks), Dim)
	}

	p := Position{toMove: Dark}
	for i, r := range ranks {
		rank := Dim - i
		if err := p.parseRank(rank, r); err != nil {
			return Position{}, err
		}
	}
	if side != "" {
		c, ok := colorFromMarker(side[0])
		if !ok || c == Empty || len(side) != 1 {
			return Position{}, fmt.Errorf("%w: side to move must be B or W, got %q", ErrFormat, side)
		}
		p.toMove = c
	}
	return p, nil
}

func (p *Position) parseRank(rank int, text string) error {
	file := 0
	count := 0
	haveCount := false
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if ch >= '0' && ch <= '9' {
			count = count*10 + int(ch-'0')
			haveCount = true
			if count > Dim {
				return fmt.Errorf("%w: run longer than %d squares in rank %d", ErrFormat, Dim, rank)
			}
			continue
		}
		c, ok := colorFromMarker(ch)
		if !ok {
			return fmt.Errorf("%w: unknown token %q in rank %d", ErrFormat, ch, rank)
		}
		n := 1
		if haveCount {
			n = count
		}
		if n == 0 {
			return fmt.Errorf("%w: zero-length run in rank %d", ErrFormat, rank)
		}
		if file+n > Dim {
			return fmt.Errorf("%w: rank %d has more than %d squares", ErrFormat, rank, Dim)
		}
		for j := 0; j < n; j++ {
			*p = p.with((rank-1)*Dim+file, c)
			file++
		}
		count = 0
		haveCount = false
	}
	if haveCount {
		return fmt.Errorf("%w: count without marker in rank %d", ErrFormat, rank)
	}
	if file != Dim {
		return fmt.Errorf("%w: rank %d has %d squares, need %d", ErrFormat, rank, file, Dim)
	}
	return nil
}

// String renders canonical notation, including the side to move.
func (p Position) String() string {
	var sb strings.Builder
	sb.Grow(72)
	for rank := Dim; rank >= 1; rank-- {
		run := 0
		var cur Color
		flush := func() {
			if run > 1 {
				sb.WriteString(strconv.Itoa(run))
			}
			if run > 0 {
				sb.WriteByte(cur.Marker())
			}
		}
		for file := 0; file < Dim; file++ {
			c := p.At((rank-1)*Dim + file)
			if run > 0 && c != cur {
				flush()
				run = 0
			}
			cur = c
			run++
		}
		flush()
		sb.WriteString(rankSeparator)
	}
	sb.WriteByte(p.toMove.Marker())
	return sb.String()
}
