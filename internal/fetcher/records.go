package fetcher

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/rotisserie/eris"
)

// Record is one table row keyed by lower-cased, trimmed column name.
type Record map[string]string

// First returns the first non-blank value among keys.
func (r Record) First(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r[k]); v != "" {
			return v
		}
	}
	return ""
}

func newRecord(header, cells []string) Record {
	rec := make(Record, len(header))
	for i, h := range header {
		key := normalizeKey(h)
		if key == "" {
			continue
		}
		if i < len(cells) {
			rec[key] = strings.TrimSpace(cells[i])
		} else {
			rec[key] = ""
		}
	}
	return rec
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

// Format is a supported extract file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Formats lists the formats in lookup order.
var Formats = []Format{FormatJSON, FormatCSV, FormatXLSX}

// FormatOf returns the format for a file name by extension.
func FormatOf(name string) (Format, bool) {
	ext := Format(strings.TrimPrefix(strings.ToLower(path.Ext(name)), "."))
	for _, f := range Formats {
		if f == ext {
			return f, true
		}
	}
	return "", false
}

// DecodeRecords reads every row of r in the given format.
func DecodeRecords(ctx context.Context, format Format, r io.Reader) ([]Record, error) {
	switch format {
	case FormatJSON:
		return Collect(DecodeJSONRecords(ctx, r))
	case FormatCSV:
		return Collect(StreamCSV(ctx, r, CSVOptions{}))
	case FormatXLSX:
		return ReadXLSX(r, XLSXOptions{})
	default:
		return nil, eris.Errorf("fetcher: unsupported format %q", format)
	}
}

// Collect drains a row channel and its error channel.
func Collect[T any](rows <-chan T, errs <-chan error) ([]T, error) {
	var out []T
	for row := range rows {
		out = append(out, row)
	}
	if err := <-errs; err != nil {
		return out, err
	}
	return out, nil
}
