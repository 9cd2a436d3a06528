package httputil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// HeaderActor carries the authenticated principal set by the gateway.
const HeaderActor = "X-Lendline-Actor"

// maxBodyBytes bounds request bodies decoded by DecodeJSON.
const maxBodyBytes = 1 << 20

// Actor returns the principal making the request, or fallback when the gateway
// did not set one.
func Actor(r *http.Request, fallback string) string {
	if a := strings.TrimSpace(r.Header.Get(HeaderActor)); a != "" {
		return a
	}
	return fallback
}

// GetClientIP extracts the client address, preferring proxy headers:
// the first X-Forwarded-For entry, then X-Real-IP, then RemoteAddr.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// DecodeJSON decodes the request body into v, rejecting unknown fields and
// trailing data.
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return fmt.Errorf("invalid request body: trailing data")
	}
	return nil
}

// ParseIntParam parses an integer query parameter, returning defaultVal when
// it is empty or invalid.
func ParseIntParam(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return defaultVal
}

// ParseID parses a positive entity id.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// PathID returns the path segment following prefix, e.g. "42" for
// "/api/v1/scores/42" and prefix "/api/v1/scores".
func PathID(path, prefix string) string {
	remaining := strings.TrimPrefix(strings.TrimPrefix(path, prefix), "/")
	id, _, _ := strings.Cut(remaining, "/")
	return id
}

// Pagination holds page parameters and, in responses, the total count.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total,omitempty"`
}

// ParsePagination reads page and limit from the query string, clamping limit
// to maxLimit and page to at least 1.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	page := ParseIntParam(r.URL.Query().Get("page"), 1)
	limit := ParseIntParam(r.URL.Query().Get("limit"), defaultLimit)
	if limit > maxLimit {
		limit = maxLimit
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if page < 1 {
		page = 1
	}
	return Pagination{Page: page, Limit: limit}
}

// Offset is the SQL OFFSET of the page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}
