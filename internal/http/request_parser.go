package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"dompet/internal/core"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

// ParseFilter builds a transaction filter from query parameters:
// from, to (YYYY-MM-DD or RFC 3339), type and repeated or comma-separated category.
func ParseFilter(query url.Values) (core.Filter, error) {
	var f core.Filter

	if v := strings.TrimSpace(query.Get("from")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return f, fmt.Errorf("%w: from: %v", errBadRequest, err)
		}
		f.From = &d
	}
	if v := strings.TrimSpace(query.Get("to")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return f, fmt.Errorf("%w: to: %v", errBadRequest, err)
		}
		f.To = &d
	}
	if f.From != nil && f.To != nil && f.To.Before(f.From.Time) {
		return f, fmt.Errorf("%w: to is before from", errBadRequest)
	}
	if v := strings.TrimSpace(query.Get("type")); v != "" {
		t, err := core.ParseTxType(v)
		if err != nil {
			return f, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		f.Type = t
	}
	for _, raw := range query["category"] {
		for _, c := range strings.Split(raw, ",") {
			if c = strings.TrimSpace(sanitizeInput(c)); c != "" {
				f.Categories = append(f.Categories, c)
			}
		}
	}
	return f, nil
}

// ParsePeriodParam reads ?period=, defaulting to monthly.
func ParsePeriodParam(query url.Values) (core.Period, error) {
	v := strings.TrimSpace(query.Get("period"))
	if v == "" {
		return core.Monthly, nil
	}
	p, err := core.ParsePeriod(v)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return p, nil
}

// decodeJSON reads a single JSON document into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: body exceeds %d bytes", errBadRequest, maxErr.Limit)
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: empty body", errBadRequest)
		default:
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON body", errBadRequest)
	}
	return nil
}

// sanitizeInput drops control characters from free text.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\t' || r == 0x7f {
			return -1
		}
		return r
	}, s)
}

// cleanTransaction normalises the free-text fields of a submitted transaction.
func cleanTransaction(t core.Transaction) core.Transaction {
	t.ID = strings.TrimSpace(t.ID)
	t.Category = strings.TrimSpace(sanitizeInput(t.Category))
	t.Description = strings.TrimSpace(sanitizeInput(t.Description))
	t.PaymentMethod = strings.TrimSpace(sanitizeInput(t.PaymentMethod))
	return t
}
