package qbytes

import (
	"net/http"
)

// Response is the per-request context that is passed through the header and body filter chains.
type Response struct {
	Request       *http.Request
	Status        int
	Header        http.Header
	ContentLength int64 // -1 when unknown

	// Ranges is set by the bytes filter when the request asked for byte ranges. It is nil otherwise, and the
	// body is passed through unchanged.
	Ranges *RangeState

	// Pool allocates everything the filters create for this request.
	Pool *Pool
}

// HeaderFilter is called once per request before the headers are committed.
type HeaderFilter interface {
	FilterHeader(r *Response) error
}

// HeaderFilterFunc allow casting a function to implement [HeaderFilter].
type HeaderFilterFunc func(*Response) error

// FilterHeader implements the [HeaderFilter] interface.
func (f HeaderFilterFunc) FilterHeader(r *Response) error { return f(r) }

// BodyFilter is called for every chunk of response body, in stream order.
type BodyFilter interface {
	FilterBody(r *Response, in *Chain) error
}

// BodyFilterFunc allow casting a function to implement [BodyFilter].
type BodyFilterFunc func(*Response, *Chain) error

// FilterBody implements the [BodyFilter] interface.
func (f BodyFilterFunc) FilterBody(r *Response, in *Chain) error { return f(r, in) }

// Filter takes part in both filter chains by wrapping the next header and body filter.
type Filter interface {
	WrapHeader(next HeaderFilter) HeaderFilter
	WrapBody(next BodyFilter) BodyFilter
}

// wrapFilters wraps the terminal filters. The filter provided first is called first.
func wrapFilters(hdr HeaderFilter, body BodyFilter, fs ...Filter) (HeaderFilter, BodyFilter) {
	for i := len(fs) - 1; i >= 0; i-- {
		hdr = fs[i].WrapHeader(hdr)
		body = fs[i].WrapBody(body)
	}

	return hdr, body
}

// FilterFuncs implements [Filter] with functions. A nil function leaves that phase alone.
type FilterFuncs struct {
	Header func(next HeaderFilter) HeaderFilter
	Body   func(next BodyFilter) BodyFilter
}

// WrapHeader implements the [Filter] interface.
func (f FilterFuncs) WrapHeader(next HeaderFilter) HeaderFilter {
	if f.Header == nil {
		return next
	}

	return f.Header(next)
}

// WrapBody implements the [Filter] interface.
func (f FilterFuncs) WrapBody(next BodyFilter) BodyFilter {
	if f.Body == nil {
		return next
	}

	return f.Body(next)
}
