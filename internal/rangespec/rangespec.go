// Package rangespec parses the byte ranges carried by a "bytes=" query parameter.
//
// The grammar follows the ranges of a Range header (first-pos "-" [last-pos], or "-" suffix-length) but no
// whitespace is permitted and ranges may be separated by ',', '&' or ';'.
package rangespec

import (
	"math"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// Token introduces the range specification in the query string.
const Token = "bytes="

var (
	// ErrAbsent is returned when the query carries no range specification.
	ErrAbsent = errors.New("no range specification")
	// ErrInvalid is returned when a range specification was found but is malformed.
	ErrInvalid = errors.New("invalid range specification")
)

// maxPos bounds positions and suffix lengths to the range of a signed 64-bit file offset.
const maxPos = math.MaxInt64

// ByteRange is a half-open range [Start, End) of byte offsets in the original resource.
type ByteRange struct {
	Start uint64
	End   uint64
}

// Len returns the number of bytes in the range, zero for empty or inverted ranges.
func (r ByteRange) Len() uint64 {
	if r.End <= r.Start {
		return 0
	}

	return r.End - r.Start
}

// Set holds the ranges in the order they appeared in the specification. Overlapping and out-of-order ranges are
// kept as-is.
type Set []ByteRange

// Len returns the sum of the lengths of all ranges, overlap included.
func (s Set) Len() uint64 {
	return lo.SumBy(s, func(r ByteRange) uint64 { return r.Len() })
}

// Lookup returns what follows the "bytes=" token in the raw query string. The token must start the query or a
// parameter.
func Lookup(query string) (string, bool) {
	for i := 0; i < len(query); {
		idx := strings.Index(query[i:], Token)
		if idx < 0 {
			return "", false
		}

		at := i + idx
		if at == 0 || query[at-1] == '&' || query[at-1] == ';' {
			return query[at+len(Token):], true
		}

		i = at + 1
	}

	return "", false
}

// ParseQuery locates and parses the range specification in a raw query string for a resource of 'size' bytes.
func ParseQuery(query string, size uint64) (Set, uint64, error) {
	spec, ok := Lookup(query)
	if !ok {
		return nil, 0, ErrAbsent
	}

	return Parse(spec, size)
}

// Parse parses the specification (without the "bytes=" token) for a resource of 'size' bytes. It returns the
// ranges and the total length of the ranged response.
func Parse(spec string, size uint64) (Set, uint64, error) {
	p := NewParser(size)
	if err := p.Feed(spec); err != nil {
		return nil, 0, err
	}

	return p.Finish()
}
