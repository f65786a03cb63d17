package qbytes

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/cockroachdb/errors"
)

// ErrBufferFull is returned when a write would take the buffered bytes past the limit.
var ErrBufferFull = errors.New("buffer is full")

var errWriteAfterFinish = errors.New("write after the final flush")

var bufPool = sync.Pool{New: func() any { return new(bytes.Buffer) }}

// Limits bound what a single response may hold. Negative values mean no limit.
type Limits struct {
	Buffer int // bytes buffered in memory between flushes
	Alloc  int // headers the filters may allocate for the request
}

// NoLimits does not limit anything.
var NoLimits = Limits{Buffer: -1, Alloc: -1}

// ResponseBuffer is the buffered [ResponseWriter]. Written bytes and file spans are held as a chain of buffers
// until a flush hands them to the body filters. The header filters run on the first flush, headers reach the
// client together with the first body bytes.
type ResponseBuffer struct {
	resp   http.ResponseWriter
	limits Limits
	header http.Header
	status int

	buf     *bytes.Buffer
	mark    int // bytes of buf already in the pending chain
	pending Chain

	r          Response
	headerFunc HeaderFilter
	bodyFunc   BodyFilter

	headerDone bool
	committed  bool
	finished   bool
}

// NewResponseWriter inits a buffered response writer for req. The filters are called in the order provided.
func NewResponseWriter(resp http.ResponseWriter, req *http.Request, limits Limits, filters ...Filter) *ResponseBuffer {
	buf, _ := bufPool.Get().(*bytes.Buffer)
	buf.Reset()

	w := &ResponseBuffer{
		resp:   resp,
		limits: limits,
		header: http.Header{},
		buf:    buf,
		r: Response{
			Request:       req,
			ContentLength: -1,
			Pool:          NewPool(limits.Alloc),
		},
	}

	w.headerFunc, w.bodyFunc = wrapFilters(
		HeaderFilterFunc(w.finalizeHeader),
		BodyFilterFunc(w.writeBody),
		filters...)

	return w
}

// Header returns the buffered header map. It is copied to the underlying writer when the headers are
// committed.
func (w *ResponseBuffer) Header() http.Header { return w.header }

// WriteHeader records the status code. Only the first call has an effect.
func (w *ResponseBuffer) WriteHeader(statusCode int) {
	if w.status == 0 {
		w.status = statusCode
	}
}

// Write buffers a copy of p.
func (w *ResponseBuffer) Write(p []byte) (int, error) {
	if w.finished {
		return 0, errWriteAfterFinish
	}

	if w.limits.Buffer >= 0 && w.buf.Len()+len(p) > w.limits.Buffer {
		return 0, ErrBufferFull
	}

	w.WriteHeader(http.StatusOK)

	return w.buf.Write(p)
}

// SendFile adds n bytes of f, starting at off, to the response body without reading them. The bytes are read
// when the buffer reaches the underlying writer, so f must stay open until the response is flushed.
func (w *ResponseBuffer) SendFile(f io.ReaderAt, off, n int64) error {
	if w.finished {
		return errWriteAfterFinish
	}

	if n <= 0 {
		return nil
	}

	w.WriteHeader(http.StatusOK)
	w.cutMemory()
	w.pending.PushTail(&Link{Buf: &Buffer{File: f, FilePos: off, FileLast: off + n}})

	return nil
}

// cutMemory moves the written bytes that are not yet part of the pending chain into a memory buffer.
func (w *ResponseBuffer) cutMemory() {
	if w.buf.Len() == w.mark {
		return
	}

	mem := w.buf.Bytes()[w.mark:]
	w.mark = w.buf.Len()
	w.pending.PushTail(&Link{Buf: &Buffer{Mem: mem[:len(mem):len(mem)]}})
}

// Unwrap returns the underlying response writer.
func (w *ResponseBuffer) Unwrap() http.ResponseWriter { return w.resp }

// Flush implements http.Flusher.
func (w *ResponseBuffer) Flush() {
	_ = w.FlushError()
}

// FlushError sends everything buffered so far through the filters to the client. After an explicit flush the
// response can no longer be reset.
func (w *ResponseBuffer) FlushError() error {
	if err := w.flush(false); err != nil {
		return err
	}

	if !w.committed {
		w.commit()
	}

	if err := http.NewResponseController(w.resp).Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return errors.Wrap(err, "flush underlying writer")
	}

	return nil
}

// FlushBuffer sends the rest of the response, marked as the final chunk. Nothing can be written afterwards.
func (w *ResponseBuffer) FlushBuffer() error {
	if w.finished {
		return nil
	}

	if err := w.flush(true); err != nil {
		return err
	}

	if !w.committed {
		w.commit()
	}

	return nil
}

// Committed reports whether the status and headers have been written to the underlying writer.
func (w *ResponseBuffer) Committed() bool { return w.committed }

// Reset discards the buffered response so a new one can be written. It panics once the headers were sent,
// which an explicit flush always does.
func (w *ResponseBuffer) Reset() {
	if w.committed {
		panic("qbytes: cannot reset response, it was already flushed")
	}

	w.header = http.Header{}
	w.status = 0
	w.buf.Reset()
	w.mark = 0
	w.pending = Chain{}
	w.headerDone = false
	w.finished = false
	w.r.Status, w.r.Header, w.r.ContentLength, w.r.Ranges = 0, nil, -1, nil
	w.r.Pool.Free()
}

// Free returns the buffer to the pool. The writer must not be used afterwards.
func (w *ResponseBuffer) Free() {
	if w.buf != nil {
		w.buf.Reset()
		bufPool.Put(w.buf)
		w.buf = nil
	}

	w.r.Pool.Free()
}

func (w *ResponseBuffer) flush(final bool) error {
	if !w.headerDone {
		w.headerDone = true
		if err := w.runHeader(final); err != nil {
			return err
		}
	}

	w.cutMemory()

	if final {
		w.finished = true
		if w.pending.Empty() {
			w.pending.PushTail(&Link{Buf: &Buffer{}})
		}

		w.pending.tail.Buf.Last = true
	}

	chunk := w.pending
	w.pending = Chain{}

	if !chunk.Empty() {
		if err := w.bodyFunc.FilterBody(&w.r, &chunk); err != nil {
			return err
		}
	}

	w.buf.Reset()
	w.mark = 0

	return nil
}

// runHeader runs the header filters. The content length is taken from the handler's header, or from the
// buffered body when all of it is known.
func (w *ResponseBuffer) runHeader(final bool) error {
	w.r.Status = w.status
	if w.r.Status == 0 {
		w.r.Status = http.StatusOK
	}

	w.r.Header = w.header
	w.r.ContentLength = -1

	if v := w.header.Get("Content-Length"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			w.r.ContentLength = n
		}
	} else if final {
		w.cutMemory()
		w.r.ContentLength = w.pending.Size()
	}

	return w.headerFunc.FilterHeader(&w.r)
}

// finalizeHeader is the last header filter, it regenerates the Content-Length header.
func (w *ResponseBuffer) finalizeHeader(r *Response) error {
	if r.ContentLength >= 0 {
		r.Header.Set("Content-Length", strconv.FormatInt(r.ContentLength, 10))
	}

	return nil
}

func (w *ResponseBuffer) commit() {
	w.committed = true

	dst := w.resp.Header()
	for k, v := range w.r.Header {
		dst[k] = v
	}

	status := w.r.Status
	if status == 0 {
		status = http.StatusOK
	}

	w.resp.WriteHeader(status)
}

// writeBody is the last body filter, it writes the buffers to the underlying writer.
func (w *ResponseBuffer) writeBody(_ *Response, in *Chain) error {
	if !w.committed {
		w.commit()
	}

	for l := in.Head(); l != nil; l = l.Next() {
		b := l.Buf

		switch {
		case b.InMemory():
			if _, err := w.resp.Write(b.Mem); err != nil {
				return errors.Wrap(err, "write memory buffer")
			}
		case b.InFile():
			if _, err := io.Copy(w.resp, io.NewSectionReader(b.File, b.FilePos, b.Size())); err != nil {
				return errors.Wrap(err, "write file buffer")
			}
		}
	}

	return nil
}
