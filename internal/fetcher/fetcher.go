// Package fetcher opens remote extract files over HTTP or FTP and decodes
// JSON, CSV and XLSX tables into header-keyed records.
package fetcher

import (
	"context"
	"io"
	"time"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when the remote file does not exist.
var ErrNotFound = eris.New("fetcher: not found")

// Resource is an opened remote file. ModTime is zero when the server did
// not report one.
type Resource struct {
	Body    io.ReadCloser
	ModTime time.Time
}

// Fetcher opens remote files.
type Fetcher interface {
	// Fetch opens rawURL. The caller must close the returned Body.
	Fetch(ctx context.Context, rawURL string) (*Resource, error)
}
