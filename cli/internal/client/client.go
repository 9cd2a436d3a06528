// Package client talks to the lendline service APIs.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lendline/lendline-stack/common/httputil"
)

// APIError is a non-2xx answer from a service.
type APIError struct {
	StatusCode int
	Code       string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("%s (status %d)", e.Detail, e.StatusCode)
}

// base holds what every service client shares.
type base struct {
	baseURL string
	actor   string
	client  *http.Client
}

func newBase(baseURL string) base {
	return base{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// do sends body as JSON and decodes a 2xx response into out when out is not nil.
func (c *base) do(ctx context.Context, method, path string, body, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/vnd.api+json")
	if c.actor != "" {
		req.Header.Set(httputil.HeaderActor, c.actor)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, _ := io.ReadAll(resp.Body)
	var body jsonAPIErrors
	if err := json.Unmarshal(data, &body); err == nil && len(body.Errors) > 0 {
		apiErr.Code = body.Errors[0].Code
		apiErr.Detail = body.Errors[0].Detail
		if apiErr.Detail == "" {
			apiErr.Detail = body.Errors[0].Title
		}
	} else {
		apiErr.Detail = strings.TrimSpace(string(data))
	}
	return apiErr
}

// getResource fetches one resource and decodes its attributes into out.
func (c *base) getResource(ctx context.Context, path string, out interface{}) error {
	return c.sendResource(ctx, http.MethodGet, path, nil, out)
}

func (c *base) sendResource(ctx context.Context, method, path string, body, out interface{}) error {
	var doc jsonAPIDocument
	if err := c.do(ctx, method, path, body, &doc); err != nil {
		return err
	}
	return json.Unmarshal(doc.Data.Attributes, out)
}

// list fetches a collection and decodes each resource through decode.
func (c *base) list(ctx context.Context, path string, decode func(json.RawMessage) error) (Pagination, error) {
	var coll jsonAPICollection
	if err := c.do(ctx, http.MethodGet, path, nil, &coll); err != nil {
		return Pagination{}, err
	}
	for _, r := range coll.Data {
		if err := decode(r.Attributes); err != nil {
			return Pagination{}, fmt.Errorf("decode %s %s: %w", r.Type, r.ID, err)
		}
	}
	return coll.Meta.Pagination, nil
}
