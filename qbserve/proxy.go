package qbserve

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/advdv/qbytes"
	"github.com/cockroachdb/errors"
)

// forwardedHeaders are copied from the origin response.
var forwardedHeaders = []string{"Content-Type", "Last-Modified", "Etag", "Cache-Control"}

// Origin proxies requests to an upstream server. The upstream body is read in chunks that are written and
// flushed one by one, so the response filters see the body as a stream of memory buffers.
type Origin struct {
	base      *url.URL
	transport http.RoundTripper
	chunk     int
}

// NewOrigin creates a proxy to the upstream at rawURL.
func NewOrigin(rawURL string, transport http.RoundTripper, chunk int) (*Origin, error) {
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parse origin %q", rawURL)
	}

	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Newf("origin %q must be an absolute URL", rawURL)
	}

	base.Path = strings.TrimSuffix(base.Path, "/")

	return &Origin{base: base, transport: transport, chunk: chunk}, nil
}

// ServeBHTTP implements [qbytes.Handler].
func (o *Origin) ServeBHTTP(ctx context.Context, w qbytes.ResponseWriter, r *http.Request) error {
	target := *o.base
	target.Path += r.URL.Path
	target.RawPath = ""
	target.RawQuery = r.URL.RawQuery

	b := newRequestBuilder(o.transport).
		BaseURL(target.String()).
		Method(r.Method).
		AddValidator(nil).
		Handle(func(res *http.Response) error {
			return o.copyResponse(w, res)
		})

	if accept := r.Header.Get("Accept"); accept != "" {
		b = b.Header("Accept", accept)
	}

	if err := b.Fetch(ctx); err != nil {
		var he handlerError
		if errors.As(err, &he) {
			return he.error
		}

		return qbytes.NewError(qbytes.CodeBadGateway, errors.Wrap(err, "fetch origin"))
	}

	return nil
}

func (o *Origin) copyResponse(w qbytes.ResponseWriter, res *http.Response) error {
	for _, k := range forwardedHeaders {
		if v := res.Header.Get(k); v != "" {
			w.Header().Set(k, v)
		}
	}

	if res.ContentLength >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(res.ContentLength, 10))
	}

	w.WriteHeader(res.StatusCode)

	rc := http.NewResponseController(w)
	buf := make([]byte, o.chunk)
	pending := false

	for {
		n, err := io.ReadFull(res.Body, buf)
		if n > 0 {
			if pending {
				if err := rc.Flush(); err != nil {
					return handlerError{errors.Wrap(err, "flush")}
				}
			}

			if _, err := w.Write(buf[:n]); err != nil {
				return handlerError{errors.Wrap(err, "write")}
			}

			pending = true
		}

		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil
		}

		if err != nil {
			return errors.Wrap(err, "read origin body")
		}
	}
}

// handlerError marks errors of writing the response, as opposed to errors of the origin.
type handlerError struct{ error }

func (e handlerError) Unwrap() error { return e.error }
