package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lendline/lendline-stack/common/dlq"
)

// DLQClient inspects the dead-letter store of one service.
type DLQClient struct {
	base
}

// NewDLQClient creates a DLQClient pointing at a service base URL.
func NewDLQClient(baseURL string) *DLQClient {
	return &DLQClient{base: newBase(baseURL)}
}

// List returns up to limit dead-lettered entries.
func (c *DLQClient) List(ctx context.Context, limit int) ([]dlq.Entry, error) {
	var entries []dlq.Entry
	_, err := c.list(ctx, fmt.Sprintf("/api/v1/dlq?limit=%d", limit), func(raw json.RawMessage) error {
		var e dlq.Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return err
		}
		entries = append(entries, e)
		return nil
	})
	return entries, err
}

// Stats returns the backend statistics of the store.
func (c *DLQClient) Stats(ctx context.Context) (map[string]interface{}, error) {
	var body struct {
		Meta map[string]interface{} `json:"meta"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/dlq/stats", nil, &body); err != nil {
		return nil, err
	}
	return body.Meta, nil
}

// Purge removes every entry.
func (c *DLQClient) Purge(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/dlq", nil, nil)
}
