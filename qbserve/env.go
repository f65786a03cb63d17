package qbserve

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap/zapcore"
)

// Environment defines the interface that all environment configurations must implement.
// Embed BaseEnvironment in your struct to satisfy this interface.
type Environment interface {
	port() int
	serviceName() string
	readinessCheckPath() string
	logLevel() zapcore.Level
	otelExporter() string
	root() string
	origin() string
	configFile() string
	bytes() *bool
	bufferLimit() int
	maxBuffers() int
	chunkSize() int
	serverTimeouts() (read, write, idle time.Duration)
}

// BaseEnvironment contains the environment variables of the daemon.
// Embed this in your custom environment struct.
type BaseEnvironment struct {
	Port               int           `env:"QB_PORT,required"`
	ServiceName        string        `env:"QB_SERVICE_NAME,required"`
	ReadinessCheckPath string        `env:"QB_READINESS_CHECK_PATH" envDefault:"/health"`
	LogLevel           zapcore.Level `env:"QB_LOG_LEVEL" envDefault:"info"`
	OtelExporter       string        `env:"QB_OTEL_EXPORTER" envDefault:"none"`

	// Root is the directory served under the "files" routes. Nothing is served from disk when it is empty.
	Root string `env:"QB_ROOT"`
	// Origin is the upstream the "origin" routes proxy to.
	Origin string `env:"QB_ORIGIN"`
	// ConfigFile is an optional YAML file with the bytes filter scopes.
	ConfigFile string `env:"QB_CONFIG_FILE"`
	// Bytes switches the bytes filter for the whole server, it overrides the config file.
	Bytes *bool `env:"QB_BYTES"`

	BufferLimit int `env:"QB_BUFFER_LIMIT" envDefault:"-1"`
	MaxBuffers  int `env:"QB_MAX_BUFFERS" envDefault:"-1"`
	ChunkSize   int `env:"QB_CHUNK_SIZE" envDefault:"32768"`

	ReadTimeout  time.Duration `env:"QB_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout time.Duration `env:"QB_WRITE_TIMEOUT" envDefault:"5m"`
	IdleTimeout  time.Duration `env:"QB_IDLE_TIMEOUT" envDefault:"2m"`
}

func (e BaseEnvironment) port() int {
	return e.Port
}

func (e BaseEnvironment) serviceName() string {
	return e.ServiceName
}

func (e BaseEnvironment) readinessCheckPath() string {
	return e.ReadinessCheckPath
}

func (e BaseEnvironment) logLevel() zapcore.Level {
	return e.LogLevel
}

func (e BaseEnvironment) otelExporter() string {
	return e.OtelExporter
}

func (e BaseEnvironment) root() string {
	return e.Root
}

func (e BaseEnvironment) origin() string {
	return e.Origin
}

func (e BaseEnvironment) configFile() string {
	return e.ConfigFile
}

func (e BaseEnvironment) bytes() *bool {
	return e.Bytes
}

func (e BaseEnvironment) bufferLimit() int {
	return e.BufferLimit
}

func (e BaseEnvironment) maxBuffers() int {
	return e.MaxBuffers
}

func (e BaseEnvironment) chunkSize() int {
	return e.ChunkSize
}

func (e BaseEnvironment) serverTimeouts() (read, write, idle time.Duration) {
	return e.ReadTimeout, e.WriteTimeout, e.IdleTimeout
}

var _ Environment = BaseEnvironment{}

// ParseEnv parses environment variables into the given Environment type.
func ParseEnv[E Environment]() func() (E, error) {
	return func() (e E, err error) {
		if err := env.Parse(&e); err != nil {
			return e, errors.Wrap(err, "failed to parse environment")
		}

		if e.chunkSize() <= 0 {
			return e, errors.Newf("QB_CHUNK_SIZE must be positive, got %d", e.chunkSize())
		}

		return e, nil
	}
}
