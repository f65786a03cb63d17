package rangespec

import (
	"github.com/cockroachdb/errors"
)

type state uint8

const (
	stateStart state = iota
	stateFirstBytePos
	stateFirstBytePosDigits
	stateLastBytePos
	stateLastBytePosDigits
	stateDone
)

var stateNames = [...]string{
	stateStart:              "first-byte-pos",
	stateFirstBytePos:       "first-byte-pos",
	stateFirstBytePosDigits: "first-byte-pos",
	stateLastBytePos:        "last-byte-pos",
	stateLastBytePosDigits:  "last-byte-pos",
	stateDone:               "range-spec",
}

// Parser is an incremental parser for a range specification. Input may be fed in any number of pieces, the
// result does not depend on how the input was split.
type Parser struct {
	size   uint64
	state  state
	closed bool // list ended by the next query parameter
	err    error

	suffix bool
	start  uint64
	end    uint64

	set   Set
	total uint64
}

// NewParser inits a parser for a resource of 'size' bytes.
func NewParser(size uint64) *Parser {
	return &Parser{size: size}
}

// Feed consumes the next piece of input. After an error is returned all further input is ignored and the same
// error is returned again.
func (p *Parser) Feed(s string) error {
	if p.err != nil {
		return p.err
	}

	for i := 0; i < len(s) && !p.closed; i++ {
		if err := p.step(s[i]); err != nil {
			p.err = err
			return err
		}
	}

	return nil
}

// Finish treats the end of input as the terminator of the last range spec and returns the result.
func (p *Parser) Finish() (Set, uint64, error) {
	if p.err != nil {
		return nil, 0, p.err
	}

	switch p.state {
	case stateLastBytePos:
		if p.suffix {
			p.err = errors.Wrap(ErrInvalid, "unexpected end of input (expected suffix-length)")
			return nil, 0, p.err
		}

		p.finalize(true)
	case stateLastBytePosDigits:
		p.finalize(false)
	case stateDone:
	default:
		p.err = errors.Wrapf(ErrInvalid, "unexpected end of input (expected %s)", stateNames[p.state])
		return nil, 0, p.err
	}

	p.state = stateDone

	return p.set, p.total, nil
}

func (p *Parser) step(c byte) error {
	switch p.state {
	case stateStart, stateFirstBytePos:
		return p.beginRange(c)
	case stateFirstBytePosDigits:
		switch {
		case isDigit(c):
			return accumulate(&p.start, c, "first-byte-pos")
		case c == '-':
			p.state = stateLastBytePos
			return nil
		}
	case stateLastBytePos:
		switch {
		case isDigit(c):
			p.end = uint64(c - '0')
			p.state = stateLastBytePosDigits
			return nil
		case isSeparator(c) && !p.suffix:
			p.finalize(true)
			p.separate(c)
			return nil
		}
	case stateLastBytePosDigits:
		switch {
		case isDigit(c):
			return accumulate(&p.end, c, "last-byte-pos")
		case isSeparator(c):
			p.finalize(false)
			p.separate(c)
			return nil
		}
	case stateDone:
		if isDigit(c) || c == '-' {
			return p.beginRange(c)
		}

		// the byte starts the next query parameter
		p.closed = true
		return nil
	}

	return errors.Wrapf(ErrInvalid, "unexpected char %q (expected %s)", c, stateNames[p.state])
}

func (p *Parser) beginRange(c byte) error {
	p.suffix, p.start, p.end = false, 0, 0

	switch {
	case c == '-':
		p.suffix = true
		p.state = stateLastBytePos
	case isDigit(c):
		p.start = uint64(c - '0')
		p.state = stateFirstBytePosDigits
	default:
		return errors.Wrapf(ErrInvalid, "unexpected char %q (expected first-byte-pos)", c)
	}

	return nil
}

// separate moves past a separator. Only a ',' commits to another range spec, the others may also end the list.
func (p *Parser) separate(c byte) {
	if c == ',' {
		p.state = stateFirstBytePos
		return
	}

	p.state = stateDone
}

// finalize resolves the current range spec against the resource size and adds it to the set.
func (p *Parser) finalize(openEnded bool) {
	var rng ByteRange

	switch {
	case p.suffix:
		rng.End = p.size
		if p.end < p.size {
			rng.Start = p.size - p.end
		}
	case openEnded:
		rng.Start, rng.End = p.start, p.size
	default:
		rng.Start, rng.End = p.start, min(p.end+1, p.size)
	}

	p.set = append(p.set, rng)
	p.total += rng.Len()
}

func accumulate(v *uint64, c byte, field string) error {
	d := uint64(c - '0')
	if *v > (maxPos-d)/10 {
		return errors.Wrapf(ErrInvalid, "%s overflows", field)
	}

	*v = *v*10 + d

	return nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isSeparator(c byte) bool { return c == ',' || c == '&' || c == ';' }
