// Package source locates and reads raw provider extracts from a content
// store and turns them into typed raw records.
package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/model-inputs-cli/internal/fetcher"
)

// ErrNotFound is returned by a Store when the named file does not exist.
var ErrNotFound = fetcher.ErrNotFound

// Store reads named files. Names use forward slashes relative to the base.
type Store interface {
	Open(ctx context.Context, name string) (io.ReadCloser, time.Time, error)
}

// Options configures remote stores.
type Options struct {
	HTTP fetcher.HTTPOptions
	FTP  fetcher.FTPOptions
}

// New picks a Store for base: http(s):// and ftp:// prefixes read remotely,
// anything else (including file://) is a local directory.
func New(base string, opts Options) Store {
	switch {
	case strings.HasPrefix(base, "http://"), strings.HasPrefix(base, "https://"):
		return NewRemoteStore(base, fetcher.NewHTTPFetcher(opts.HTTP))
	case strings.HasPrefix(base, "ftp://"):
		return NewRemoteStore(base, fetcher.NewFTPFetcher(opts.FTP))
	default:
		return NewDirStore(strings.TrimPrefix(base, "file://"))
	}
}

// DirStore reads files from a local directory.
type DirStore struct {
	root string
}

// NewDirStore creates a DirStore rooted at root.
func NewDirStore(root string) *DirStore {
	if root == "" {
		root = "."
	}
	return &DirStore{root: root}
}

// Open opens name under the root. The mtime is the file's modification time.
func (s *DirStore) Open(_ context.Context, name string) (io.ReadCloser, time.Time, error) {
	p := filepath.Join(s.root, filepath.FromSlash(name))
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, time.Time{}, eris.Wrapf(ErrNotFound, "source: %s", p)
		}
		return nil, time.Time{}, eris.Wrapf(err, "source: open %s", p)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, time.Time{}, eris.Wrapf(err, "source: stat %s", p)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, time.Time{}, eris.Wrapf(ErrNotFound, "source: %s is a directory", p)
	}
	return f, info.ModTime(), nil
}

// RemoteStore reads files below a base URL through a fetcher.
type RemoteStore struct {
	base string
	f    fetcher.Fetcher
}

// NewRemoteStore creates a RemoteStore for base.
func NewRemoteStore(base string, f fetcher.Fetcher) *RemoteStore {
	return &RemoteStore{base: strings.TrimRight(base, "/"), f: f}
}

// Open fetches base/name. The mtime is whatever the server reports.
func (s *RemoteStore) Open(ctx context.Context, name string) (io.ReadCloser, time.Time, error) {
	res, err := s.f.Fetch(ctx, s.base+"/"+strings.TrimLeft(name, "/"))
	if err != nil {
		return nil, time.Time{}, err
	}
	return res.Body, res.ModTime, nil
}
