package qbytes

import (
	"io"
)

// Buffer is a single span of response body bytes. The bytes live in memory (Mem), in a file (File between
// FilePos and FileLast) or both, in which case the two windows describe the same bytes. A buffer with neither
// is a control marker.
type Buffer struct {
	Mem      []byte      // memory window, nil if the bytes are not in memory
	File     io.ReaderAt // backing file, nil if the bytes are not in a file
	FilePos  int64       // first byte of the file window
	FileLast int64       // first byte past the file window
	Last     bool        // final buffer of the whole response body
}

// InMemory reports whether the buffer holds a memory window.
func (b *Buffer) InMemory() bool { return b.Mem != nil }

// InFile reports whether the buffer holds a file window.
func (b *Buffer) InFile() bool { return b.File != nil }

// Special reports whether the buffer carries no content, only flags.
func (b *Buffer) Special() bool { return !b.InMemory() && !b.InFile() }

// Size returns the number of bytes in the buffer.
func (b *Buffer) Size() int64 {
	if b.InMemory() {
		return int64(len(b.Mem))
	}

	if b.InFile() {
		return b.FileLast - b.FilePos
	}

	return 0
}

// view turns b into a window over the same storage as src, narrowed to the
// bytes [lo, hi) relative to the start of src.
func (b *Buffer) view(src *Buffer, lo, hi int64) {
	if src.InFile() {
		b.File = src.File
		b.FilePos = src.FilePos + lo
		b.FileLast = src.FilePos + hi
	}

	if src.InMemory() {
		b.Mem = src.Mem[lo:hi:hi]
	}
}

// Link is a member of a chain.
type Link struct {
	Buf  *Buffer
	next *Link
}

// Next returns the next link in the chain.
func (l *Link) Next() *Link { return l.next }

// Chain is a linked list of buffers: one delivery of response body.
type Chain struct {
	head *Link
	tail *Link
	qnty int
}

// Head returns the first link, or nil for an empty chain.
func (c *Chain) Head() *Link { return c.head }

// Qnty returns the number of links.
func (c *Chain) Qnty() int { return c.qnty }

// Empty reports whether the chain has no links.
func (c *Chain) Empty() bool { return c.qnty == 0 }

// Size returns the number of bytes in all buffers.
func (c *Chain) Size() int64 {
	size := int64(0)
	for l := c.head; l != nil; l = l.next {
		size += l.Buf.Size()
	}

	return size
}

// PushTail appends a link. The link must not be part of another chain.
func (c *Chain) PushTail(l *Link) {
	if l == nil {
		return
	}

	l.next = nil
	if c.qnty == 0 {
		c.head, c.tail = l, l
	} else {
		c.tail.next = l
		c.tail = l
	}

	c.qnty++
}

// Last reports whether any buffer in the chain carries the final-buffer marker.
func (c *Chain) Last() bool {
	for l := c.head; l != nil; l = l.next {
		if l.Buf.Last {
			return true
		}
	}

	return false
}
