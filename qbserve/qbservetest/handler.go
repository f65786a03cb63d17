package qbservetest

import (
	"net/http"
	"net/http/httptest"

	"github.com/advdv/qbytes"
)

// CallHandler invokes a [qbytes.Handler] with a buffered response writer and
// returns the recorded response. The filters, if any, see the response like
// they would in the mux. It panics when the handler or the final flush fails.
func CallHandler(handler qbytes.Handler, req *http.Request, filters ...qbytes.Filter) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	w := qbytes.NewResponseWriter(rec, req, qbytes.NoLimits, filters...)
	defer w.Free()

	if err := handler.ServeBHTTP(req.Context(), w, req); err != nil {
		panic("qbservetest: handler returned error: " + err.Error())
	}

	if err := w.FlushBuffer(); err != nil {
		panic("qbservetest: FlushBuffer failed: " + err.Error())
	}

	return rec
}
