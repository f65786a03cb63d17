package qbserve

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/advdv/qbytes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogWithoutMiddleware(t *testing.T) {
	require.PanicsWithValue(t, "qbserve: requestDep not found in context; is the middleware configured?", func() {
		Log(context.Background())
	})
}

func TestLogTraceFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tp := sdktrace.NewTracerProvider()

	mux := qbytes.NewServeMux()
	mux.Use(withRequestDep(&requestDep{logger: zap.New(core)}), withAccessLog())
	mux.HandleFunc("GET /x", func(ctx context.Context, _ qbytes.ResponseWriter, _ *http.Request) error {
		ctx, span := tp.Tracer("test").Start(ctx, "x")
		defer span.End()

		Log(ctx).Info("inside")
		return nil
	})

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x?bytes=0-1", nil))

	entries := logs.TakeAll()
	require.Len(t, entries, 2)

	assert.Equal(t, "inside", entries[0].Message)
	assert.Len(t, entries[0].ContextMap()["trace_id"], 32)
	assert.Len(t, entries[0].ContextMap()["span_id"], 16)

	assert.Equal(t, "served request", entries[1].Message)
	assert.Equal(t, "/x", entries[1].ContextMap()["path"])
	assert.Equal(t, "bytes=0-1", entries[1].ContextMap()["query"])
	assert.NotContains(t, entries[1].ContextMap(), "trace_id")
}
