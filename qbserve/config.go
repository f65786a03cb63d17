package qbserve

import (
	"os"
	"strings"

	"github.com/advdv/qbytes"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Route sources.
const (
	SourceFiles  = "files"
	SourceOrigin = "origin"
)

// FileConfig is the YAML configuration of the daemon. The top-level settings are the server scope, every route
// is an inner scope that inherits what it leaves unset.
//
//	bytes: true
//	routes:
//	  - prefix: /media/
//	    source: files
//	  - prefix: /api/
//	    source: origin
//	    bytes: false
type FileConfig struct {
	qbytes.Config `yaml:",inline"`

	Routes []RouteConfig `yaml:"routes"`
}

// RouteConfig mounts a content source at a path prefix. A trailing slash in the prefix is ignored.
type RouteConfig struct {
	qbytes.Config `yaml:",inline"`

	Prefix string `yaml:"prefix"`
	Source string `yaml:"source"`
}

// LoadConfig reads the config file named by the environment, if any, and applies the environment overrides.
// Without routes in the file, the root directory or else the origin is served at "/".
func LoadConfig(env Environment) (*FileConfig, error) {
	var cfg FileConfig

	if path := env.configFile(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config file %s", path)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config file %s", path)
		}
	}

	if on := env.bytes(); on != nil {
		cfg.Enabled = on
	}

	if len(cfg.Routes) == 0 {
		switch {
		case env.root() != "":
			cfg.Routes = []RouteConfig{{Prefix: "/", Source: SourceFiles}}
		case env.origin() != "":
			cfg.Routes = []RouteConfig{{Prefix: "/", Source: SourceOrigin}}
		}
	}

	if err := cfg.validate(env); err != nil {
		return nil, errors.Wrap(err, "config validation")
	}

	return &cfg, nil
}

func (c *FileConfig) validate(env Environment) error {
	seen := map[string]bool{}

	for i, rc := range c.Routes {
		if !strings.HasPrefix(rc.Prefix, "/") {
			return errors.Newf("routes[%d]: prefix %q must start with '/'", i, rc.Prefix)
		}

		rc.Prefix = "/" + strings.Trim(rc.Prefix, "/")
		c.Routes[i].Prefix = rc.Prefix

		if seen[rc.Prefix] {
			return errors.Newf("routes[%d]: duplicate prefix %q", i, rc.Prefix)
		}

		seen[rc.Prefix] = true

		switch rc.Source {
		case SourceFiles:
			if env.root() == "" {
				return errors.Newf("routes[%d]: source %q requires QB_ROOT", i, rc.Source)
			}
		case SourceOrigin:
			if env.origin() == "" {
				return errors.Newf("routes[%d]: source %q requires QB_ORIGIN", i, rc.Source)
			}
		default:
			return errors.Newf("routes[%d]: unknown source %q (supported: files, origin)", i, rc.Source)
		}
	}

	return nil
}
