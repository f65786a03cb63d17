package qbytes

import (
	"context"
	"log"
	"net/http"
)

// ServeMux is an HTTP multiplexer with buffered responses, error handling, and response filters. Every route it
// registers gets the bytes filter, configured by the mux's Config merged with the route's own.
type ServeMux struct {
	logs    Logger
	limits  Limits
	conf    Config
	mux     *http.ServeMux
	filters []Filter
	uses    struct {
		captured    bool
		middlewares []Middleware
	}
}

// NewServeMux creates a new ServeMux with default settings: no limits and the bytes filter switched off
// unless a route enables it.
func NewServeMux() *ServeMux {
	return NewServeMuxWith(NoLimits, NewStdLogger(log.Default()), http.NewServeMux(), Config{})
}

// NewServeMuxWith creates a ServeMux with custom settings. The conf is the outer scope of every route.
func NewServeMuxWith(limits Limits, logger Logger, baseMux *http.ServeMux, conf Config) *ServeMux {
	return &ServeMux{
		limits: limits,
		logs:   logger,
		conf:   conf,
		mux:    baseMux,
	}
}

// Config returns the outer scope configuration of the mux.
func (m *ServeMux) Config() Config { return m.conf }

// Use allows providing of middleware.
func (m *ServeMux) Use(mw ...Middleware) {
	m.ensureNoUseAfterHandle()
	m.uses.middlewares = append(m.uses.middlewares, mw...)
}

// UseFilter adds response filters. They are called before the bytes filter, so they see the response as the
// handler wrote it.
func (m *ServeMux) UseFilter(fs ...Filter) {
	m.ensureNoUseAfterHandle()
	m.filters = append(m.filters, fs...)
}

// HandleFunc handles the request given the pattern using a function. An optional route config overrides the
// mux's config.
func (m *ServeMux) HandleFunc(pattern string, handler HandlerFunc, conf ...Config) {
	m.Handle(pattern, handler, conf...)
}

// HandleStd registers a standard library [http.Handler] for the given pattern. Middleware
// registered via [ServeMux.Use] is applied. See the package-level section
// "Standard library handlers and error ownership" for details on error handling behavior.
func (m *ServeMux) HandleStd(pattern string, handler http.Handler, conf ...Config) {
	m.Handle(pattern, stdToHandler(handler), conf...)
}

// Handle handles the request given a handler.
func (m *ServeMux) Handle(pattern string, handler Handler, conf ...Config) {
	m.handle(pattern, m.toStd(Wrap(handler, m.uses.middlewares...), conf...))
}

// ServeHTTP makes the server mux implement the http.Handler interface.
func (m *ServeMux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mux.ServeHTTP(w, r)
}

// scope merges the optional route config over the mux's config.
func (m *ServeMux) scope(conf ...Config) Config {
	scoped := m.conf
	for _, c := range conf {
		scoped = c.Merge(scoped)
	}

	return scoped
}

func (m *ServeMux) toStd(h BareHandler, conf ...Config) http.Handler {
	filters := append(append([]Filter{}, m.filters...), NewBytesFilter(m.scope(conf...), m.logs))

	return ToStd(h, m.limits, m.logs, filters...)
}

func (m *ServeMux) handle(pattern string, handler http.Handler) {
	m.uses.captured = true
	m.mux.Handle(pattern, handler)
}

func (m *ServeMux) ensureNoUseAfterHandle() {
	if m.uses.captured {
		panic("qbytes: cannot call Use() after calling Handle")
	}
}

func stdToHandler(handler http.Handler) HandlerFunc {
	return func(_ context.Context, w ResponseWriter, r *http.Request) error {
		handler.ServeHTTP(w, r)
		return nil
	}
}
