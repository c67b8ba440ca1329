// Package http exposes the JSON API.
//
// This file implements utilities for parsing and validating request data.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"kakeibo/internal/core"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters, using
// now as the default for missing values.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	params := MonthParams{Month: int(now.Month())}

	var err error
	if params.Year, err = ParseYearQuery(query, "year", now.Year()); err != nil {
		return MonthParams{}, err
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return MonthParams{}, fmt.Errorf("month %q: %w", v, core.ErrInvalidMonth)
		}
		params.Month = m
	}
	return params, nil
}

// ParseYearQuery parses an optional year query parameter, returning def
// when it is missing.
func ParseYearQuery(query url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	y, err := strconv.Atoi(v)
	if err != nil || y < 2000 || y > 2100 {
		return 0, fmt.Errorf("%s %q: %w", key, v, core.ErrInvalidYear)
	}
	return y, nil
}

// ParseDateQuery parses an optional YYYY-MM-DD query parameter. A missing
// value yields the zero date.
func ParseDateQuery(query url.Values, key string) (core.Date, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(v)
}

// ParseIntQuery parses an optional non-negative integer query parameter.
func ParseIntQuery(query url.Values, key string) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer: %w", key, errBadRequest)
	}
	return n, nil
}

// DecodeJSON reads a single JSON object from the request body into dst.
// Unknown fields and trailing data are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %v: %w", err, errBadRequest)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("body must contain a single JSON object: %w", errBadRequest)
	}
	return nil
}

// ParseAmount parses a decimal amount such as "12.34" or "12,34".
func ParseAmount(s string) (core.Money, error) {
	m, err := core.ParseMoney(s)
	if err != nil {
		return core.Money{}, fmt.Errorf("amount %q: %w", s, err)
	}
	return m, nil
}

// optionalAmount parses s when it is set.
func optionalAmount(s *string) (*core.Money, error) {
	if s == nil {
		return nil, nil
	}
	m, err := ParseAmount(*s)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// optionalDate parses s when it is set.
func optionalDate(s *string) (*core.Date, error) {
	if s == nil {
		return nil, nil
	}
	d, err := core.ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// sanitizeInput removes control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// sanitizePtr applies sanitizeInput to an optional field.
func sanitizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := sanitizeInput(*s)
	return &v
}
