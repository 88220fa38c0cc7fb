package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"tally/internal/core"
	"tally/internal/summary"
)

// ParseQuery builds a transaction query from start, end, entity, type, min,
// max, sort and order parameters. Date bounds accept YYYY-MM-DD, where an end
// date covers the whole day, or any transaction date format.
func ParseQuery(values url.Values) (summary.Query, error) {
	var q summary.Query
	var err error

	if q.Start, err = core.ParseDateBound(values.Get("start"), false); err != nil {
		return q, fmt.Errorf("%w: start: %w", errBadRequest, err)
	}
	if q.End, err = core.ParseDateBound(values.Get("end"), true); err != nil {
		return q, fmt.Errorf("%w: end: %w", errBadRequest, err)
	}
	if !q.Start.IsZero() && !q.End.IsZero() && q.Start.After(q.End) {
		return q, fmt.Errorf("%w: %w", errBadRequest, core.ErrDateBoundsOrder)
	}

	q.Entity = sanitizeInput(values.Get("entity"))

	q.Type = summary.TxType(strings.ToLower(strings.TrimSpace(values.Get("type"))))
	if q.Type == "all" {
		q.Type = summary.TypeAll
	}
	if !q.Type.IsValid() {
		return q, fmt.Errorf("%w: unknown type %q", errBadRequest, q.Type)
	}

	if q.MinAmount, err = parseAmountParam(values, "min"); err != nil {
		return q, err
	}
	if q.MaxAmount, err = parseAmountParam(values, "max"); err != nil {
		return q, err
	}

	q.SortBy = summary.SortField(strings.ToLower(strings.TrimSpace(values.Get("sort"))))
	if !q.SortBy.IsValid() {
		return q, fmt.Errorf("%w: unknown sort field %q", errBadRequest, q.SortBy)
	}
	switch order := strings.ToLower(strings.TrimSpace(values.Get("order"))); order {
	case "", "asc":
	case "desc":
		q.Descending = true
	default:
		return q, fmt.Errorf("%w: unknown order %q", errBadRequest, order)
	}
	return q, nil
}

func parseAmountParam(values url.Values, key string) (*float64, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number", errBadRequest, key)
	}
	return &v, nil
}

// readBody reads at most maxBodyBytes from the request.
func readBody(w http.ResponseWriter, r *http.Request) (string, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %w", errBadRequest, err)
	}
	return string(data), nil
}

// decodeJSON decodes a single JSON value and rejects unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON: %w", errBadRequest, err)
	}
	return nil
}
