package qbytes

import "github.com/advdv/qbytes/internal/rangespec"

// ByteRange is a half-open range [Start, End) of byte offsets in the original response body.
type ByteRange = rangespec.ByteRange

// RangeSet holds requested ranges in the order they were specified.
type RangeSet = rangespec.Set

// RangeState is the per-request state of the bytes filter. It is created once by the header phase and advanced
// by every body phase of the same request, which must arrive in stream order.
type RangeState struct {
	Ranges RangeSet

	offset uint64 // original body bytes consumed so far
	cursor int    // range currently being satisfied
}

// Offset returns the number of original body bytes consumed so far.
func (s *RangeState) Offset() uint64 { return s.offset }

// Cursor returns the index of the range currently being satisfied, len(Ranges) once all are.
func (s *RangeState) Cursor() int { return s.cursor }

func (s *RangeState) done() bool { return s.cursor >= len(s.Ranges) }

func (s *RangeState) current() ByteRange { return s.Ranges[s.cursor] }

func (s *RangeState) onLast() bool { return s.cursor == len(s.Ranges)-1 }

func (s *RangeState) advance() { s.cursor++ }
