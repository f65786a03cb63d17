package qbserve

import (
	"net/http"

	"github.com/advdv/qbytes"
	"go.uber.org/zap"
)

// Mux is an alias for qbytes.ServeMux.
type Mux = qbytes.ServeMux

// NewMux creates the mux with the limits of the environment and the server scope of the config. Every
// response is observed by the metrics filter.
func NewMux(env Environment, logger *zap.Logger, metrics *Metrics, cfg *FileConfig) *Mux {
	mux := qbytes.NewServeMuxWith(
		qbytes.Limits{Buffer: env.bufferLimit(), Alloc: env.maxBuffers()},
		metrics.Logger(newZapQBytesLogger(logger)),
		http.NewServeMux(),
		cfg.Config,
	)

	mux.UseFilter(metrics.Filter())

	return mux
}
