package qbytes

import (
	"github.com/advdv/qbytes/internal/rangespec"
	"github.com/cockroachdb/errors"
)

var errUnknownLength = errors.New("content length is unknown")

// bytesFilter serves the byte ranges asked for by a "bytes=" query parameter.
type bytesFilter struct {
	conf Config
	logs Logger
}

// NewBytesFilter creates the filter that restricts responses to the byte ranges in the "bytes=" query
// parameter. It does nothing unless conf is enabled. Malformed range specifications are logged and the
// response is served whole.
func NewBytesFilter(conf Config, logs Logger) Filter {
	return bytesFilter{conf: conf, logs: logs}
}

// WrapHeader implements the header phase: parse the ranges, replace the content length and attach the state.
func (f bytesFilter) WrapHeader(next HeaderFilter) HeaderFilter {
	return HeaderFilterFunc(func(r *Response) error {
		if err := f.filterHeader(r); err != nil {
			return err
		}

		return next.FilterHeader(r)
	})
}

func (f bytesFilter) filterHeader(r *Response) error {
	if !f.conf.IsEnabled() || r.Request == nil || r.Request.URL.RawQuery == "" {
		return nil
	}

	query := r.Request.URL.RawQuery

	spec, ok := rangespec.Lookup(query)
	if !ok {
		return nil
	}

	if r.ContentLength < 0 {
		f.logs.LogIgnoredRange(query, errUnknownLength)
		return nil
	}

	ranges, total, err := rangespec.Parse(spec, uint64(r.ContentLength))
	if err != nil {
		f.logs.LogIgnoredRange(query, err)
		return nil
	}

	state, err := r.Pool.State(ranges)
	if err != nil {
		return NewError(CodeInternalServerError, err)
	}

	r.ContentLength = int64(total) //nolint:gosec // bounded by the original length
	r.Header.Del("Content-Length")
	r.Ranges = state

	return nil
}

// WrapBody implements the body phase: forward only the bytes that fall inside the requested ranges.
func (f bytesFilter) WrapBody(next BodyFilter) BodyFilter {
	return BodyFilterFunc(func(r *Response, in *Chain) error {
		state := r.Ranges
		if state == nil || in.Empty() {
			return next.FilterBody(r, in)
		}

		// one range left and this is the last buffer: trim it where it is.
		if first := in.Head().Buf; state.onLast() && first.Last && !first.Special() {
			trimLast(state, first)
			return next.FilterBody(r, in)
		}

		out, err := split(r.Pool, state, in)
		if err != nil {
			return NewError(CodeInternalServerError, err)
		}

		if out.Empty() {
			return nil
		}

		return next.FilterBody(r, out)
	})
}

// clip returns the part of rng that lies in the 'size' bytes starting at 'offset', relative to offset.
func clip(rng ByteRange, offset uint64, size int64) (lo, hi int64) {
	start := max(rng.Start, offset)
	end := min(rng.End, offset+uint64(size)) //nolint:gosec // sizes are never negative

	if start >= end {
		return 0, 0
	}

	return int64(start - offset), int64(end - offset) //nolint:gosec // bounded by size
}

// trimLast narrows the final buffer to the last range, in place. A buffer left without bytes becomes a
// special one that only carries Last.
func trimLast(state *RangeState, b *Buffer) {
	size := b.Size()
	lo, hi := clip(state.current(), state.offset, size)

	state.offset += uint64(size) //nolint:gosec // sizes are never negative
	state.advance()

	if lo >= hi {
		*b = Buffer{Last: b.Last}
		return
	}

	if b.InFile() {
		b.FileLast = b.FilePos + hi
		b.FilePos += lo
	}

	if b.InMemory() {
		b.Mem = b.Mem[lo:hi]
	}
}

// split builds a new chain of views over the buffers of 'in', one per range a buffer intersects. Nothing in
// 'in' is modified.
func split(pool *Pool, state *RangeState, in *Chain) (*Chain, error) {
	out := new(Chain)

	for l := in.Head(); l != nil; l = l.Next() {
		buf := l.Buf

		if buf.Special() {
			if err := pushBuffer(pool, out, buf); err != nil {
				return nil, err
			}

			continue
		}

		size := buf.Size()
		end := state.offset + uint64(size) //nolint:gosec // sizes are never negative
		terminated := false

		for !state.done() {
			rng := state.current()
			if rng.Len() == 0 {
				state.advance()
				continue
			}

			if rng.Start >= end {
				break // starts in a later buffer
			}

			if lo, hi := clip(rng, state.offset, size); lo < hi {
				b, err := pool.Buffer()
				if err != nil {
					return nil, err
				}

				b.view(buf, lo, hi)
				b.Last = buf.Last && state.onLast()
				terminated = terminated || b.Last

				if err := pushBuffer(pool, out, b); err != nil {
					return nil, err
				}
			}

			if rng.End > end {
				break // continues in a later buffer
			}

			state.advance()
		}

		if buf.Last && !terminated {
			b, err := pool.Buffer()
			if err != nil {
				return nil, err
			}

			b.Last = true
			if err := pushBuffer(pool, out, b); err != nil {
				return nil, err
			}
		}

		state.offset = end
	}

	return out, nil
}

func pushBuffer(pool *Pool, c *Chain, b *Buffer) error {
	l, err := pool.Link(b)
	if err != nil {
		return err
	}

	c.PushTail(l)

	return nil
}
