package qbserve

import (
	"context"
	"net/http"

	"github.com/advdv/qbytes"
	"github.com/cockroachdb/errors"
	"go.uber.org/fx"
)

// NewFilesSource opens the root directory, it returns nil when no root is configured.
func NewFilesSource(lc fx.Lifecycle, env Environment) (*Files, error) {
	if env.root() == "" {
		return nil, nil //nolint:nilnil // no root configured
	}

	files, err := NewFiles(env.root(), env.chunkSize())
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return files.Close()
		},
	})

	return files, nil
}

// NewOriginSource creates the origin proxy, it returns nil when no origin is configured.
func NewOriginSource(env Environment, transport http.RoundTripper) (*Origin, error) {
	if env.origin() == "" {
		return nil, nil //nolint:nilnil // no origin configured
	}

	return NewOrigin(env.origin(), transport, env.chunkSize())
}

// RoutesParams holds the dependencies for registering the content routes.
type RoutesParams struct {
	fx.In

	Mux    *Mux
	Config *FileConfig
	Files  *Files
	Origin *Origin
}

// registerRoutes mounts every configured route with its own scope.
func registerRoutes(p RoutesParams) error {
	for _, rc := range p.Config.Routes {
		var h qbytes.Handler

		switch {
		case rc.Source == SourceFiles && p.Files != nil:
			h = p.Files
		case rc.Source == SourceOrigin && p.Origin != nil:
			h = p.Origin
		default:
			return errors.Newf("route %s: source %q is not configured", rc.Prefix, rc.Source)
		}

		if rc.Prefix == "/" {
			p.Mux.Handle("GET /", h, rc.Config)
			continue
		}

		p.Mux.Mount("GET "+rc.Prefix, h, rc.Config)
	}

	return nil
}
