package qbserve

import (
	"net/http"
	"strconv"

	"github.com/advdv/qbytes"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RangeBuckets are the histogram buckets for the number of ranges asked for in one request.
var RangeBuckets = []float64{1, 2, 4, 8, 16, 32, 64}

// Metrics holds the prometheus collectors of the daemon, registered on their own registry.
type Metrics struct {
	Registry *prometheus.Registry

	ResponsesTotal    *prometheus.CounterVec
	RangesPerResponse prometheus.Histogram
	RangeBytesTotal   prometheus.Counter
	BodyBytesTotal    prometheus.Counter
	IgnoredTotal      prometheus.Counter
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		ResponsesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qbytes_responses_total",
				Help: "Responses passed through the filters, by whether byte ranges were served",
			},
			[]string{"ranged"},
		),
		RangesPerResponse: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "qbytes_ranges_per_response",
				Help:    "Number of ranges served in one response",
				Buckets: RangeBuckets,
			},
		),
		RangeBytesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "qbytes_range_bytes_total",
				Help: "Content length of ranged responses",
			},
		),
		BodyBytesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "qbytes_body_bytes_total",
				Help: "Original response body bytes seen by the filters",
			},
		),
		IgnoredTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "qbytes_ignored_ranges_total",
				Help: "Range specifications that were ignored and served whole",
			},
		),
	}

	m.Registry.MustRegister(
		m.ResponsesTotal,
		m.RangesPerResponse,
		m.RangeBytesTotal,
		m.BodyBytesTotal,
		m.IgnoredTotal,
	)

	return m
}

// Handler serves the collectors in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Filter returns a response filter that observes the responses. It must be called before the bytes filter.
func (m *Metrics) Filter() qbytes.Filter {
	return qbytes.FilterFuncs{
		Header: func(next qbytes.HeaderFilter) qbytes.HeaderFilter {
			return qbytes.HeaderFilterFunc(func(r *qbytes.Response) error {
				if err := next.FilterHeader(r); err != nil {
					return err
				}

				ranged := r.Ranges != nil
				m.ResponsesTotal.WithLabelValues(strconv.FormatBool(ranged)).Inc()

				if ranged {
					m.RangesPerResponse.Observe(float64(len(r.Ranges.Ranges)))
					m.RangeBytesTotal.Add(float64(r.ContentLength))
				}

				return nil
			})
		},
		Body: func(next qbytes.BodyFilter) qbytes.BodyFilter {
			return qbytes.BodyFilterFunc(func(r *qbytes.Response, in *qbytes.Chain) error {
				m.BodyBytesTotal.Add(float64(in.Size()))
				return next.FilterBody(r, in)
			})
		},
	}
}

// Logger wraps logs so that ignored range specifications are counted.
func (m *Metrics) Logger(logs qbytes.Logger) qbytes.Logger {
	return countingLogger{Logger: logs, ignored: m.IgnoredTotal}
}

type countingLogger struct {
	qbytes.Logger
	ignored prometheus.Counter
}

func (l countingLogger) LogIgnoredRange(query string, err error) {
	l.ignored.Inc()
	l.Logger.LogIgnoredRange(query, err)
}
