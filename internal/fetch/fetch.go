// Package fetch acquires raw bank text from local files, HTTP endpoints,
// Cloud Storage objects, Google Sheets ranges and xlsx workbooks.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tally/internal/table"
)

var (
	ErrUnsupportedSource = errors.New("unsupported source")
	ErrSourceNotAllowed  = errors.New("source not allowed")
)

// Fetcher returns the raw text behind source.
type Fetcher interface {
	Fetch(ctx context.Context, source string) (string, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, source string) (string, error)

func (f FetcherFunc) Fetch(ctx context.Context, source string) (string, error) {
	return f(ctx, source)
}

// Router dispatches a source to the fetcher for its kind. A nil fetcher means
// the kind is not configured.
type Router struct {
	HTTP   Fetcher
	GCS    Fetcher
	Sheets Fetcher
	XLSX   Fetcher
	File   Fetcher
}

// Checker is implemented by fetchers that can reject a source before any I/O.
type Checker interface {
	Check(source string) error
}

// Kind names the fetcher a source is routed to.
func Kind(source string) string {
	s := strings.ToLower(strings.TrimSpace(source))
	switch {
	case strings.HasPrefix(s, "http://"), strings.HasPrefix(s, "https://"):
		return "http"
	case strings.HasPrefix(s, gcsScheme):
		return "gcs"
	case strings.HasPrefix(s, sheetsScheme):
		return "sheets"
	case strings.HasSuffix(s, ".xlsx"):
		return "xlsx"
	default:
		return "file"
	}
}

func (r *Router) route(source string) (Fetcher, error) {
	if source == "" {
		return nil, fmt.Errorf("%w: empty source", ErrUnsupportedSource)
	}
	kind := Kind(source)
	var f Fetcher
	switch kind {
	case "http":
		f = r.HTTP
	case "gcs":
		f = r.GCS
	case "sheets":
		f = r.Sheets
	case "xlsx":
		f = r.XLSX
	default:
		f = r.File
	}
	if f == nil {
		return nil, fmt.Errorf("%w: no %s fetcher configured for %s", ErrUnsupportedSource, kind, source)
	}
	return f, nil
}

// Check reports whether source would be routed to a configured fetcher that
// accepts it.
func (r *Router) Check(source string) error {
	source = strings.TrimSpace(source)
	f, err := r.route(source)
	if err != nil {
		return err
	}
	if c, ok := f.(Checker); ok {
		return c.Check(source)
	}
	return nil
}

func (r *Router) Fetch(ctx context.Context, source string) (string, error) {
	source = strings.TrimSpace(source)
	if err := r.Check(source); err != nil {
		return "", err
	}
	f, _ := r.route(source)

	text, err := f.Fetch(ctx, source)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", source, err)
	}
	return text, nil
}

// renderRecords turns a header record plus data records into quoted bank text.
func renderRecords(records [][]string) string {
	if len(records) == 0 {
		return ""
	}
	return table.Export(table.FromRecords(records[0], records[1:]))
}
