// Package storage keeps uploaded resumes on local disk.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTooLarge    = errors.New("file exceeds maximum size")
	ErrInvalidName = errors.New("invalid stored file name")
)

// LocalStore writes files into a directory that is also served over HTTP
// under URLPrefix.
type LocalStore struct {
	dir       string
	urlPrefix string
	now       func() time.Time
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	return &LocalStore{
		dir:       dir,
		urlPrefix: strings.TrimSuffix(urlPrefix, "/"),
		now:       time.Now,
	}, nil
}

// Stored describes a saved file.
type Stored struct {
	Name string // name inside the store
	URL  string // public path, e.g. /uploads/<name>
	Size int64
}

// Save streams r into a new file named <unix-millis>-<uuid><ext>. At most
// maxBytes are accepted; larger input is removed and ErrTooLarge returned.
// The write is staged in a temp file so readers never see partial content.
func (s *LocalStore) Save(ctx context.Context, r io.Reader, ext string, maxBytes int64) (Stored, error) {
	name := fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), uuid.NewString(), strings.ToLower(ext))

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return Stored{}, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(contextReader{ctx: ctx, r: r}, maxBytes+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return Stored{}, fmt.Errorf("writing upload: %w", err)
	}
	if n > maxBytes {
		return Stored{}, ErrTooLarge
	}

	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return Stored{}, fmt.Errorf("finalising upload: %w", err)
	}

	return Stored{Name: name, URL: s.urlPrefix + "/" + name, Size: n}, nil
}

// Remove deletes a stored file by its public URL or bare name. Missing files are not an error.
func (s *LocalStore) Remove(ref string) error {
	name := path.Base(strings.TrimPrefix(ref, s.urlPrefix+"/"))
	if name == "." || name == "/" || name == ".." || strings.HasPrefix(name, ".") {
		return ErrInvalidName
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Handler serves stored files. Directory listings and dot-files are hidden.
func (s *LocalStore) Handler() http.Handler {
	files := http.FileServer(http.Dir(s.dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Base(r.URL.Path)
		if strings.HasSuffix(r.URL.Path, "/") || strings.HasPrefix(name, ".") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Content-Disposition", "attachment")
		files.ServeHTTP(w, r)
	})
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
