package qbserve

import (
	"context"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/advdv/qbytes"
	"github.com/cockroachdb/errors"
)

// Files serves regular files below a root directory. File content is handed to the response as file buffers
// of at most chunk bytes, each flushed before the next one is added.
type Files struct {
	root  *os.Root
	chunk int64
}

// NewFiles opens the root directory.
func NewFiles(dir string, chunk int) (*Files, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "open root %s", dir)
	}

	return &Files{root: root, chunk: int64(chunk)}, nil
}

// Close closes the root directory.
func (s *Files) Close() error {
	return s.root.Close()
}

// ServeBHTTP implements [qbytes.Handler].
func (s *Files) ServeBHTTP(_ context.Context, w qbytes.ResponseWriter, r *http.Request) error {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" {
		return qbytes.NewError(qbytes.CodeNotFound, errors.New("not found"))
	}

	f, err := s.root.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return qbytes.NewError(qbytes.CodeNotFound, errors.New("not found"))
		}

		return errors.Wrapf(err, "open %s", name)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return errors.Wrapf(err, "stat %s", name)
	}

	if !fi.Mode().IsRegular() {
		return qbytes.NewError(qbytes.CodeNotFound, errors.New("not found"))
	}

	ctype := mime.TypeByExtension(path.Ext(name))
	if ctype == "" {
		ctype = "application/octet-stream"
	}

	size := fi.Size()
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.Header().Set("Last-Modified", fi.ModTime().UTC().Format(http.TimeFormat))

	if r.Method == http.MethodHead {
		return nil
	}

	rc := http.NewResponseController(w)
	for off := int64(0); off < size; off += s.chunk {
		if err := w.SendFile(f, off, min(s.chunk, size-off)); err != nil {
			return errors.Wrap(err, "send file")
		}

		if off+s.chunk < size {
			if err := rc.Flush(); err != nil {
				return errors.Wrap(err, "flush")
			}
		}
	}

	// the file buffers are read on the final flush, before f is closed.
	return w.FlushBuffer()
}
