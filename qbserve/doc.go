// Package qbserve provides a batteries-included daemon that serves files or an upstream origin with byte
// ranges selected in the query string.
//
// # Overview
//
// qbserve handles the boilerplate of running a [qbytes.ServeMux] as a service: environment parsing, a YAML
// file for the filter scopes, structured logging, OpenTelemetry tracing, prometheus metrics and graceful
// shutdown. A complete daemon is one call:
//
//	qbserve.NewApp[qbserve.BaseEnvironment](nil).Run()
//
// # Environment Configuration
//
// Define your environment by embedding [BaseEnvironment]:
//
//	type Env struct {
//	    qbserve.BaseEnvironment
//	    Banner string `env:"BANNER"`
//	}
//
// BaseEnvironment provides the following environment variables:
//
//	| Variable                 | Required | Default | Description                                        |
//	|--------------------------|----------|---------|----------------------------------------------------|
//	| QB_PORT                  | Yes      | -       | Port the HTTP server listens on                    |
//	| QB_SERVICE_NAME          | Yes      | -       | Service name for logging and tracing               |
//	| QB_READINESS_CHECK_PATH  | No       | /health | Health check endpoint path                         |
//	| QB_LOG_LEVEL             | No       | info    | Log level (debug, info, warn, error)               |
//	| QB_OTEL_EXPORTER         | No       | none    | Trace exporter: "none", "stdout" or "xrayudp"      |
//	| QB_ROOT                  | No       | -       | Directory served by "files" routes                 |
//	| QB_ORIGIN                | No       | -       | Upstream URL proxied by "origin" routes            |
//	| QB_CONFIG_FILE           | No       | -       | YAML file with routes and scopes                   |
//	| QB_BYTES                 | No       | -       | Server scope of the bytes filter, overrides file   |
//	| QB_BUFFER_LIMIT          | No       | -1      | Bytes buffered per response between flushes        |
//	| QB_MAX_BUFFERS           | No       | -1      | Buffers the filters may allocate per response      |
//	| QB_CHUNK_SIZE            | No       | 32768   | Size of the body chunks handed to the filters      |
//	| QB_READ_TIMEOUT          | No       | 30s     | Server read timeout                                |
//	| QB_WRITE_TIMEOUT         | No       | 5m      | Server write timeout                               |
//	| QB_IDLE_TIMEOUT          | No       | 2m      | Server idle timeout                                |
//
// # Routes and Scopes
//
// The config file names the content routes. The top-level "bytes" key is the server scope, a route may
// override it:
//
//	bytes: true
//	routes:
//	  - prefix: /media
//	    source: files
//	  - prefix: /api
//	    source: origin
//	    bytes: false
//
// Without routes, QB_ROOT or else QB_ORIGIN is served at "/". The health route and [MetricsPath] are never
// filtered.
//
// # Context Helpers
//
// Handlers registered from the routing function can use:
//   - [Log] returns a trace-correlated zap logger
//   - [Span] returns the current trace span
//
// # Metrics
//
// [Metrics] observes every response before the bytes filter: whether ranges were served, how many, the
// ranged content length, the original body bytes and the ignored range specifications.
package qbserve
