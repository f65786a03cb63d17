package qbytes_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/advdv/qbytes"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

// echoPath writes the path the mounted handler sees.
func echoPath() qbytes.BareHandler {
	return qbytes.BareHandlerFunc(func(w qbytes.ResponseWriter, r *http.Request) error {
		fmt.Fprintf(w, "path:%s", r.URL.Path)
		return nil
	})
}

func TestMountBareSubPath(t *testing.T) {
	mux := qbytes.NewServeMux()
	mux.MountBare("/api", echoPath(), qbytes.Enabled(true))

	rec := serve(t, mux, "/api/users")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "path:/users", rec.Body.String())

	// the ranges apply to what the mounted handler writes, after the prefix was stripped.
	rec = serve(t, mux, "/api/users?bytes=5-")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "/users", rec.Body.String())
	require.Equal(t, "6", rec.Header().Get("Content-Length"))
}

func TestMountBareExactPrefix(t *testing.T) {
	mux := qbytes.NewServeMux()
	mux.MountBare("/api", echoPath())

	rec, req := httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api", nil)
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "path:/", rec.Body.String())
}

func TestMountBareTrailingSlash(t *testing.T) {
	mux := qbytes.NewServeMux()
	mux.MountBare("/api", echoPath())

	rec, req := httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/", nil)
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "path:/", rec.Body.String())
}

func TestMountBareDeeplyNested(t *testing.T) {
	mux := qbytes.NewServeMux()
	mux.MountBare("/api", echoPath(), qbytes.Enabled(true))

	rec := serve(t, mux, "/api/v1/users/123")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "path:/v1/users/123", rec.Body.String())

	rec = serve(t, mux, "/api/v1/users/123?bytes=-3,5-8")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "123/v1/", rec.Body.String())
}

type ctxKey string

func TestMountBareMiddlewareSeesOriginalPath(t *testing.T) {
	mux := qbytes.NewServeMux()

	mux.Use(func(next qbytes.BareHandler) qbytes.BareHandler {
		return qbytes.BareHandlerFunc(func(w qbytes.ResponseWriter, r *http.Request) error {
			ctx := context.WithValue(r.Context(), ctxKey("mw_path"), r.URL.Path)
			return next.ServeBareBHTTP(w, r.WithContext(ctx))
		})
	})

	mux.MountBare("/api", qbytes.BareHandlerFunc(func(w qbytes.ResponseWriter, r *http.Request) error {
		mwPath := r.Context().Value(ctxKey("mw_path")).(string)
		fmt.Fprintf(w, "mw:%s,handler:%s", mwPath, r.URL.Path)
		return nil
	}))

	rec, req := httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/users", nil)
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "mw:/api/users,handler:/users", rec.Body.String())
}

func TestMountBareMiddlewareContextForwarding(t *testing.T) {
	mux := qbytes.NewServeMux()

	mux.Use(func(next qbytes.BareHandler) qbytes.BareHandler {
		return qbytes.BareHandlerFunc(func(w qbytes.ResponseWriter, r *http.Request) error {
			ctx := context.WithValue(r.Context(), ctxKey("from_mw"), "hello")
			return next.ServeBareBHTTP(w, r.WithContext(ctx))
		})
	})

	mux.MountBare("/api", qbytes.BareHandlerFunc(func(w qbytes.ResponseWriter, r *http.Request) error {
		val := r.Context().Value(ctxKey("from_mw")).(string)
		fmt.Fprintf(w, "val:%s", val)
		return nil
	}))

	rec, req := httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/test", nil)
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "val:hello", rec.Body.String())
}

func TestMountBareErrorHandling(t *testing.T) {
	mux := qbytes.NewServeMux()
	mux.MountBare("/api", qbytes.BareHandlerFunc(func(w qbytes.ResponseWriter, r *http.Request) error {
		return errors.New("something broke")
	}), qbytes.Enabled(true))

	rec := serve(t, mux, "/api/fail?bytes=0-3")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Internal Server Error\n", rec.Body.String(), "error pages are never ranged")
}

func TestMountBareUseAfterMount(t *testing.T) {
	mux := qbytes.NewServeMux()
	mux.MountBare("/api", echoPath())

	require.PanicsWithValue(t, "qbytes: cannot call Use() after calling Handle", func() {
		mux.Use(middleware1)
	})
}

func TestMountBareCoexistsWithHandle(t *testing.T) {
	mux := qbytes.NewServeMux()
	mux.HandleFunc("GET /health", func(_ context.Context, w qbytes.ResponseWriter, _ *http.Request) error {
		fmt.Fprint(w, "ok")
		return nil
	})
	mux.MountBare("/api", echoPath())

	t.Run("handle route", func(t *testing.T) {
		rec, req := httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil)
		mux.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "ok", rec.Body.String())
	})

	t.Run("mount route", func(t *testing.T) {
		rec, req := httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/items", nil)
		mux.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "path:/items", rec.Body.String())
	})
}

func TestMountSubPath(t *testing.T) {
	mux := qbytes.NewServeMux()
	mux.Mount("/api", qbytes.HandlerFunc(func(ctx context.Context, w qbytes.ResponseWriter, r *http.Request) error {
		fmt.Fprintf(w, "path:%s", r.URL.Path)
		return nil
	}))

	rec, req := httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/users", nil)
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "path:/users", rec.Body.String())
}

func TestMountError(t *testing.T) {
	mux := qbytes.NewServeMux()
	mux.Mount("/api", qbytes.HandlerFunc(func(_ context.Context, _ qbytes.ResponseWriter, _ *http.Request) error {
		return errors.New("mount error")
	}), qbytes.Enabled(true))

	rec, req := httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/fail", nil)
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Internal Server Error\n", rec.Body.String())
}

func TestMountContextAndMiddleware(t *testing.T) {
	mux := qbytes.NewServeMux()
	mux.Use(func(next qbytes.BareHandler) qbytes.BareHandler {
		return qbytes.BareHandlerFunc(func(w qbytes.ResponseWriter, r *http.Request) error {
			ctx := context.WithValue(r.Context(), ctxKey("user"), "alice")
			return next.ServeBareBHTTP(w, r.WithContext(ctx))
		})
	})
	mux.Mount("/api", qbytes.HandlerFunc(func(ctx context.Context, w qbytes.ResponseWriter, r *http.Request) error {
		user := ctx.Value(ctxKey("user")).(string)
		fmt.Fprintf(w, "user:%s,path:%s", user, r.URL.Path)
		return nil
	}), qbytes.Enabled(true))

	rec := serve(t, mux, "/api/profile")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "user:alice,path:/profile", rec.Body.String())

	rec = serve(t, mux, "/api/profile?bytes=5-9&bytes=0-0")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "alice", rec.Body.String(), "only the first bytes parameter counts")
}

func TestMountFuncSubPath(t *testing.T) {
	mux := qbytes.NewServeMux()
	mux.MountFunc("/api", func(_ context.Context, w qbytes.ResponseWriter, r *http.Request) error {
		fmt.Fprintf(w, "path:%s", r.URL.Path)
		return nil
	})

	rec, req := httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/items", nil)
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "path:/items", rec.Body.String())
}

func TestMountFuncError(t *testing.T) {
	mux := qbytes.NewServeMux()
	mux.MountFunc("/api", func(_ context.Context, _ qbytes.ResponseWriter, _ *http.Request) error {
		return qbytes.NewError(qbytes.CodeNotFound, errors.New("not found"))
	})

	rec, req := httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/missing", nil)
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Not Found: not found\n", rec.Body.String())
}

func TestMountFuncWithMethodPattern(t *testing.T) {
	mux := qbytes.NewServeMux()
	mux.MountFunc("POST /api", func(_ context.Context, w qbytes.ResponseWriter, r *http.Request) error {
		fmt.Fprintf(w, "posted:%s", r.URL.Path)
		return nil
	}, qbytes.Enabled(true))

	t.Run("POST works", func(t *testing.T) {
		rec, req := httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/create?bytes=0-5", nil)
		mux.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "posted", rec.Body.String())
	})

	t.Run("GET returns 405", func(t *testing.T) {
		rec, req := httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/create", nil)
		mux.ServeHTTP(rec, req)
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestMountStdSubPath(t *testing.T) {
	stdHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "std:%s", r.URL.Path)
	})

	mux := qbytes.NewServeMux()
	mux.MountStd("/static", stdHandler)

	rec, req := httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/static/style.css", nil)
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "std:/style.css", rec.Body.String())
}

func TestMountStdExactPrefix(t *testing.T) {
	stdHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "std:%s", r.URL.Path)
	})

	mux := qbytes.NewServeMux()
	mux.MountStd("/static", stdHandler)

	rec, req := httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/static", nil)
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "std:/", rec.Body.String())
}

func TestMountStdHandlerOwnsErrorResponse(t *testing.T) {
	stdHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "custom not found", http.StatusNotFound)
	})

	mux := qbytes.NewServeMux()
	mux.MountStd("/static", stdHandler)

	rec, req := httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/static/missing", nil)
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "custom not found\n", rec.Body.String())
}

func TestMountStdMiddlewareApplied(t *testing.T) {
	mux := qbytes.NewServeMux()
	mux.Use(func(next qbytes.BareHandler) qbytes.BareHandler {
		return qbytes.BareHandlerFunc(func(w qbytes.ResponseWriter, r *http.Request) error {
			ctx := context.WithValue(r.Context(), ctxKey("auth"), "token123")
			return next.ServeBareBHTTP(w, r.WithContext(ctx))
		})
	})

	stdHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth, _ := r.Context().Value(ctxKey("auth")).(string)
		fmt.Fprintf(w, "auth:%s", auth)
	})
	mux.MountStd("/static", stdHandler)

	rec, req := httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/static/file", nil)
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "auth:token123", rec.Body.String())
}

func TestMountStdWithMethodPattern(t *testing.T) {
	stdHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "std:%s", r.URL.Path)
	})

	mux := qbytes.NewServeMuxWith(qbytes.NoLimits, qbytes.NewTestLogger(t), http.NewServeMux(), qbytes.Enabled(true))
	mux.MountStd("GET /static", stdHandler)
	mux.MountStd("GET /raw", stdHandler, qbytes.Enabled(false))

	t.Run("GET works", func(t *testing.T) {
		rec := serve(t, mux, "/static/file?bytes=4-")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "/file", rec.Body.String())
	})

	t.Run("mount scope switches ranges off", func(t *testing.T) {
		rec := serve(t, mux, "/raw/file?bytes=4-")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "std:/file", rec.Body.String())
	})

	t.Run("POST returns 405", func(t *testing.T) {
		rec, req := httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/static/file", nil)
		mux.ServeHTTP(rec, req)
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestMountStdCoexistsWithMount(t *testing.T) {
	mux := qbytes.NewServeMux()

	mux.MountFunc("/api", func(_ context.Context, w qbytes.ResponseWriter, r *http.Request) error {
		fmt.Fprintf(w, "api:%s", r.URL.Path)
		return nil
	})
	mux.MountStd("/static", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "static:%s", r.URL.Path)
	}))

	t.Run("api mount", func(t *testing.T) {
		rec, req := httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/users", nil)
		mux.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "api:/users", rec.Body.String())
	})

	t.Run("std mount", func(t *testing.T) {
		rec, req := httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/static/img.png", nil)
		mux.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "static:/img.png", rec.Body.String())
	})
}

func TestMountBareWithMethodPattern(t *testing.T) {
	mux := qbytes.NewServeMux()
	mux.MountBare("GET /api", echoPath())

	t.Run("GET works", func(t *testing.T) {
		rec, req := httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/foo", nil)
		mux.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "path:/foo", rec.Body.String())
	})

	t.Run("POST returns 405", func(t *testing.T) {
		rec, req := httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/foo", nil)
		mux.ServeHTTP(rec, req)
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestMountBytesScope(t *testing.T) {
	mux := qbytes.NewServeMuxWith(qbytes.NoLimits, qbytes.NewTestLogger(t), http.NewServeMux(), qbytes.Config{})
	mux.MountFunc("/on", serveAlphabet, qbytes.Enabled(true))
	mux.MountFunc("/off", serveAlphabet)

	rec := serve(t, mux, "/on/x?bytes=1-2")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "bc", rec.Body.String())

	rec = serve(t, mux, "/off/x?bytes=1-2")
	require.Equal(t, alphabet, rec.Body.String())
}
