package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
)

// DecodeJSONArray streams the elements of a top-level JSON array.
// Both channels are closed when decoding ends.
func DecodeJSONArray[T any](ctx context.Context, r io.Reader) (<-chan T, <-chan error) {
	outCh := make(chan T, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(outCh)
		defer close(errCh)

		dec := json.NewDecoder(r)
		dec.UseNumber()

		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			errCh <- eris.Wrap(err, "json: read opening token")
			return
		}
		if d, ok := tok.(json.Delim); !ok || d != '[' {
			errCh <- eris.Errorf("json: expected '[', got %v", tok)
			return
		}

		for dec.More() {
			var item T
			if err := dec.Decode(&item); err != nil {
				errCh <- eris.Wrap(err, "json: decode element")
				return
			}
			select {
			case outCh <- item:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "json: context cancelled")
				return
			}
		}

		if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
			errCh <- eris.Wrap(err, "json: read closing token")
		}
	}()

	return outCh, errCh
}

// DecodeJSONObject decodes a single JSON value from r.
func DecodeJSONObject[T any](r io.Reader) (*T, error) {
	var v T
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		return nil, eris.Wrap(err, "json: decode object")
	}
	return &v, nil
}

// DecodeJSONRecords streams an array of flat objects as records. Scalars
// are rendered as strings, null becomes blank and nested values are kept
// as JSON text.
func DecodeJSONRecords(ctx context.Context, r io.Reader) (<-chan Record, <-chan error) {
	objs, objErrs := DecodeJSONArray[map[string]any](ctx, r)
	out := make(chan Record, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)
		for obj := range objs {
			rec := make(Record, len(obj))
			for k, v := range obj {
				rec[normalizeKey(k)] = cellString(v)
			}
			select {
			case out <- rec:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "json: context cancelled")
				for range objs {
				}
				<-objErrs
				return
			}
		}
		if err := <-objErrs; err != nil {
			errCh <- err
		}
	}()

	return out, errCh
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
