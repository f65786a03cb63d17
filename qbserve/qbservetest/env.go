package qbservetest

import (
	"strconv"
	"testing"
)

// Env provides a chainable builder for setting [qbserve.BaseEnvironment] env vars
// via t.Setenv. Create one with [SetBaseEnv].
type Env struct {
	t testing.TB
}

// SetBaseEnv sets the [qbserve.BaseEnvironment] env vars to sensible test defaults.
// Port is required because each test must use a unique port to avoid collisions.
//
// Defaults:
//   - QB_SERVICE_NAME: "test"
//   - QB_READINESS_CHECK_PATH: "/health"
//   - QB_OTEL_EXPORTER: "none"
//   - QB_CHUNK_SIZE: "4"
//
// Use the returned [Env] to override individual values:
//
//	qbservetest.SetBaseEnv(t, 18085).Root(dir).Bytes(true)
func SetBaseEnv(t testing.TB, port int) *Env {
	t.Helper()
	t.Setenv("QB_PORT", strconv.Itoa(port))
	t.Setenv("QB_SERVICE_NAME", "test")
	t.Setenv("QB_READINESS_CHECK_PATH", "/health")
	t.Setenv("QB_OTEL_EXPORTER", "none")
	t.Setenv("QB_CHUNK_SIZE", "4")
	return &Env{t: t}
}

// ServiceName overrides QB_SERVICE_NAME.
func (e *Env) ServiceName(name string) *Env {
	e.t.Helper()
	e.t.Setenv("QB_SERVICE_NAME", name)
	return e
}

// ReadinessCheckPath overrides QB_READINESS_CHECK_PATH.
func (e *Env) ReadinessCheckPath(path string) *Env {
	e.t.Helper()
	e.t.Setenv("QB_READINESS_CHECK_PATH", path)
	return e
}

// Root sets QB_ROOT.
func (e *Env) Root(dir string) *Env {
	e.t.Helper()
	e.t.Setenv("QB_ROOT", dir)
	return e
}

// Origin sets QB_ORIGIN.
func (e *Env) Origin(url string) *Env {
	e.t.Helper()
	e.t.Setenv("QB_ORIGIN", url)
	return e
}

// ConfigFile sets QB_CONFIG_FILE.
func (e *Env) ConfigFile(path string) *Env {
	e.t.Helper()
	e.t.Setenv("QB_CONFIG_FILE", path)
	return e
}

// Bytes sets QB_BYTES.
func (e *Env) Bytes(on bool) *Env {
	e.t.Helper()
	e.t.Setenv("QB_BYTES", strconv.FormatBool(on))
	return e
}

// ChunkSize overrides QB_CHUNK_SIZE.
func (e *Env) ChunkSize(n int) *Env {
	e.t.Helper()
	e.t.Setenv("QB_CHUNK_SIZE", strconv.Itoa(n))
	return e
}

// MaxBuffers sets QB_MAX_BUFFERS.
func (e *Env) MaxBuffers(n int) *Env {
	e.t.Helper()
	e.t.Setenv("QB_MAX_BUFFERS", strconv.Itoa(n))
	return e
}
