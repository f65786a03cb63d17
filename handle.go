package qbytes

import (
	"context"
	"io"
	"net/http"
)

// ResponseWriter implements the http.ResponseWriter but the underlying bytes are buffered. This allows
// middleware to reset the writer and formulate a completely new response. The buffered body passes through
// the response filters when it is flushed.
type ResponseWriter interface {
	http.ResponseWriter
	Reset()
	Free()
	FlushBuffer() error

	// SendFile adds n bytes of f, starting at off, to the body without copying them into memory.
	SendFile(f io.ReaderAt, off, n int64) error
}

// Handler mirrors http.Handler but it receives the request context and a buffered response, and may return
// an error.
type Handler interface {
	ServeBHTTP(ctx context.Context, w ResponseWriter, r *http.Request) error
}

// HandlerFunc allow casting a function to imple [Handler].
type HandlerFunc func(context.Context, ResponseWriter, *http.Request) error

// ServeBHTTP implements the [Handler] interface.
func (f HandlerFunc) ServeBHTTP(ctx context.Context, w ResponseWriter, r *http.Request) error {
	return f(ctx, w, r)
}

// BareHandler describes how middleware servers HTTP requests. In this library the signature for
// handling middleware [BareHandler] is different from the signature of "leaf" handlers: [Handler].
type BareHandler interface {
	ServeBareBHTTP(w ResponseWriter, r *http.Request) error
}

// BareHandlerFunc allow casting a function to an implementation of [Handler].
type BareHandlerFunc func(ResponseWriter, *http.Request) error

// ServeBareBHTTP implements the [Handler] interface.
func (f BareHandlerFunc) ServeBareBHTTP(w ResponseWriter, r *http.Request) error {
	return f(w, r)
}

// ToBare converts a handler 'h' into a bare buffered handler.
func ToBare(h Handler) BareHandler {
	return BareHandlerFunc(func(w ResponseWriter, r *http.Request) error {
		return h.ServeBHTTP(r.Context(), w, r)
	})
}

// ToStd converts a bare handler into a standard library http.Handler. The implementation
// creates a buffered response writer with the filters and flushes it implicitly after serving the request.
func ToStd(h BareHandler, limits Limits, logs Logger, filters ...Filter) http.Handler {
	return http.HandlerFunc(func(resp http.ResponseWriter, req *http.Request) {
		bresp := NewResponseWriter(resp, req, limits, filters...)
		defer bresp.Free()

		if err := h.ServeBareBHTTP(bresp, req); err != nil {
			logs.LogUnhandledServeError(err)

			if bresp.Committed() {
				return // the client already has part of the response
			}

			bresp.Reset()

			// if all fails we don't want the client to end up with a white screen so
			// we render the error with the standard text.
			renderError(resp, err)

			return
		}

		if err := bresp.FlushBuffer(); err != nil {
			logs.LogImplicitFlushError(err)

			if !bresp.Committed() {
				renderError(resp, err)
			}
		}
	})
}
