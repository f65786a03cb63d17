package qbytes

import (
	"sync"

	"github.com/cockroachdb/errors"
)

// ErrPoolExhausted is returned when a request allocates more headers than its pool allows.
var ErrPoolExhausted = errors.New("request pool exhausted")

var linkPool = sync.Pool{New: func() any { return new(Link) }}

// Pool allocates the request-scoped values the filters create: range state, buffer headers and links. Nothing
// it hands out may be used after Free.
type Pool struct {
	limit int
	used  int
	links []*Link
}

// NewPool inits a pool that allows at most 'limit' allocations, or any number when limit is negative.
func NewPool(limit int) *Pool {
	return &Pool{limit: limit}
}

func (p *Pool) reserve(what string) error {
	if p.limit >= 0 && p.used >= p.limit {
		return errors.Wrapf(ErrPoolExhausted, "allocate %s: %d of %d used", what, p.used, p.limit)
	}

	p.used++

	return nil
}

// Buffer allocates an empty buffer header.
func (p *Pool) Buffer() (*Buffer, error) {
	if err := p.reserve("buffer"); err != nil {
		return nil, err
	}

	return new(Buffer), nil
}

// Link allocates a link holding buffer b.
func (p *Pool) Link(b *Buffer) (*Link, error) {
	if err := p.reserve("link"); err != nil {
		return nil, err
	}

	l, _ := linkPool.Get().(*Link)
	l.Buf = b
	p.links = append(p.links, l)

	return l, nil
}

// State allocates the range state of a request.
func (p *Pool) State(ranges RangeSet) (*RangeState, error) {
	if err := p.reserve("state"); err != nil {
		return nil, err
	}

	return &RangeState{Ranges: ranges}, nil
}

// Used returns the number of allocations so far.
func (p *Pool) Used() int { return p.used }

// Free releases everything allocated by the pool and resets the count.
func (p *Pool) Free() {
	for _, l := range p.links {
		l.Buf, l.next = nil, nil
		linkPool.Put(l)
	}

	p.links = p.links[:0]
	p.used = 0
}
