// Package qbytes serves byte ranges of HTTP responses that are asked for in the query string.
//
// # Overview
//
// A request such as
//
//	GET /video.mp4?bytes=0-1023,4096-
//
// is answered with status 200 and a body that is the concatenation of the requested ranges of the resource,
// in the order they were asked for. The Content-Length of the response is the sum of the range lengths. The
// Range header is not involved, there is no 206 and no multipart body.
//
// The package extends the standard library's HTTP handling with error-returning handlers and a buffered
// response writer. The buffered body reaches the client through a chain of response filters, and the bytes
// filter is one of them:
//
//	mux := qbytes.NewServeMuxWith(qbytes.NoLimits, logs, http.NewServeMux(), qbytes.Enabled(true))
//	mux.HandleFunc("GET /files/{name}", func(ctx context.Context, w qbytes.ResponseWriter, r *http.Request) error {
//	    f, err := os.Open(filepath.Join(root, r.PathValue("name")))
//	    if err != nil {
//	        return qbytes.NewError(qbytes.CodeNotFound, err)
//	    }
//
//	    fi, err := f.Stat()
//	    if err != nil {
//	        return err
//	    }
//
//	    w.Header().Set("Content-Length", strconv.FormatInt(fi.Size(), 10))
//	    return w.SendFile(f, 0, fi.Size())
//	})
//
// # Range Specifications
//
// The value after "bytes=" is a comma separated list of ranges:
//
//   - "a-b" selects the bytes a through b, inclusive
//   - "a-" selects everything from a to the end
//   - "-n" selects the last n bytes
//
// The list ends at the end of the query or at the next query parameter. Ranges are clamped to the resource,
// they may overlap and may be given in any order. A specification that is malformed, or a response with an
// unknown length, is served whole and reported with [Logger.LogIgnoredRange]. The filter never fails a request
// because of what the client asked for.
//
// # Scopes
//
// The bytes filter is off unless switched on. The [Config] of a [ServeMux] is the outer scope, a route or mount
// can pass its own Config that overrides it:
//
//	mux := qbytes.NewServeMuxWith(qbytes.NoLimits, logs, http.NewServeMux(), qbytes.Enabled(true))
//	mux.Handle("GET /private/", private, qbytes.Enabled(false))
//
// # Buffered Response Writer
//
// The [ResponseWriter] interface extends http.ResponseWriter with buffering.
// All writes are held in memory until explicitly flushed or until the handler
// returns successfully. This enables:
//
//   - Complete response replacement when errors occur mid-handler
//   - Headers modification after initial writes
//   - Clean error responses without partial content
//
// Key methods:
//   - [ResponseWriter.Reset] clears the buffer and headers for a fresh response
//   - [ResponseWriter.FlushBuffer] sends the buffered content as the final chunk
//   - [ResponseWriter.SendFile] adds a span of a file without reading it into memory
//   - [ResponseWriter.Free] returns the buffer to a pool (called automatically by the mux)
//
// Every flush is one delivery of body to the filters. The header filters run on the first one, so the content
// length must be known by then: set the Content-Length header, or let the handler return without flushing and
// the buffered size is used.
//
// # Response Filters
//
// A [Filter] takes part in the header and the body phase of every response. Filters added with
// [ServeMux.UseFilter] are called before the bytes filter. Body filters receive a [Chain] of [Buffer] values,
// each a window over memory or a file. A filter that allocates for the request uses the request's [Pool], which
// can be capped through [Limits]; running out fails the request with [CodeInternalServerError].
//
// # Error Handling
//
// When a handler returns an error, the buffer is automatically reset and an
// appropriate HTTP error response is generated:
//
//   - [*Error] (created with [NewError]): Uses the error's code
//   - Other errors: Logged and converted to 500 Internal Server Error
//
// # Standard library handlers and error ownership
//
// Handlers registered with [ServeMux.HandleStd] or [ServeMux.MountStd] write to the buffered writer like any
// other handler and cannot return errors, so whatever they write, including their own error pages, is the
// response.
package qbytes
