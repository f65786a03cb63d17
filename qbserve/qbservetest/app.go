// Package qbservetest provides test helpers for qbserve applications.
//
// It constructs the identical DI graph as [qbserve.NewApp] but uses
// [fxtest.App] which fails the test immediately on DI errors.
//
// Example:
//
//	qbservetest.SetBaseEnv(t, 18081).Root(dir)
//	app := qbservetest.New[qbserve.BaseEnvironment](t, nil)
//	app.RequireStart()
//	t.Cleanup(app.RequireStop)
package qbservetest

import (
	"testing"

	"github.com/advdv/qbytes/qbserve"
	"go.uber.org/fx/fxtest"
)

// App embeds *fxtest.App for testing qbserve applications.
type App struct {
	*fxtest.App
}

// New creates a test app with the same DI graph as [qbserve.NewApp].
func New[E qbserve.Environment](t testing.TB, routing any, opts ...qbserve.Option) *App {
	return &App{App: fxtest.New(t, qbserve.FxOptions[E](routing, opts...)...)}
}
