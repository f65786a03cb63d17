package qbserve_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/advdv/qbytes"
	"github.com/advdv/qbytes/qbserve"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz"

func serveAlphabet(_ context.Context, w qbytes.ResponseWriter, _ *http.Request) error {
	fmt.Fprint(w, alphabet)
	return nil
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()

	rec, req := httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil)
	h.ServeHTTP(rec, req)

	return rec
}

func findFamily(t *testing.T, m *qbserve.Metrics, name string) *dto.MetricFamily {
	t.Helper()

	families, err := m.Registry.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}

	t.Fatalf("metric family %s not found", name)
	return nil
}

func TestMetrics(t *testing.T) {
	m := qbserve.NewMetrics()
	logs := qbytes.NewTestLogger(t)

	mux := qbytes.NewServeMuxWith(qbytes.NoLimits, m.Logger(logs), http.NewServeMux(), qbytes.Enabled(true))
	mux.UseFilter(m.Filter())
	mux.HandleFunc("GET /a", serveAlphabet)

	rec := get(t, mux, "/a?bytes=0-1,3-4")
	require.Equal(t, "abde", rec.Body.String())

	rec = get(t, mux, "/a")
	require.Equal(t, alphabet, rec.Body.String())

	rec = get(t, mux, "/a?bytes=x")
	require.Equal(t, alphabet, rec.Body.String())

	assert.InDelta(t, 1, testutil.ToFloat64(m.ResponsesTotal.WithLabelValues("true")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.ResponsesTotal.WithLabelValues("false")), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(m.RangeBytesTotal), 0)
	assert.InDelta(t, 3*len(alphabet), testutil.ToFloat64(m.BodyBytesTotal), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.IgnoredTotal), 0)
	assert.Equal(t, int64(1), logs.NumLogIgnoredRange)

	hist := findFamily(t, m, "qbytes_ranges_per_response").GetMetric()[0].GetHistogram()
	assert.Equal(t, uint64(1), hist.GetSampleCount())
	assert.InDelta(t, 2, hist.GetSampleSum(), 0)

	t.Run("exposition", func(t *testing.T) {
		rec := get(t, m.Handler(), "/metrics")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `qbytes_responses_total{ranged="true"} 1`)
		assert.Contains(t, rec.Body.String(), `qbytes_ignored_ranges_total 1`)
	})
}

func TestMetricsFilterDisabledScope(t *testing.T) {
	m := qbserve.NewMetrics()

	mux := qbytes.NewServeMuxWith(qbytes.NoLimits, m.Logger(qbytes.NewTestLogger(t)), http.NewServeMux(), qbytes.Config{})
	mux.UseFilter(m.Filter())
	mux.HandleFunc("GET /a", serveAlphabet)

	rec := get(t, mux, "/a?bytes=0-1")
	require.Equal(t, alphabet, rec.Body.String())

	assert.InDelta(t, 0, testutil.ToFloat64(m.ResponsesTotal.WithLabelValues("true")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ResponsesTotal.WithLabelValues("false")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.IgnoredTotal), 0)
}
