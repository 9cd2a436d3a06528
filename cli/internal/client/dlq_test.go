package client

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendline/lendline-stack/common/dlq"
)

func TestDLQClient(t *testing.T) {
	store := dlq.NewMemory()
	ctx := context.Background()
	require.NoError(t, store.Write(ctx, dlq.Entry{Service: "scoring", Class: dlq.ClassReferential, Channel: "loan-application", Key: "loan-application-10"}))
	require.NoError(t, store.Write(ctx, dlq.Entry{Service: "scoring", Class: dlq.ClassDecode, Channel: "loan-application"}))

	server := httptest.NewServer(dlq.Handler(store, nil))
	defer server.Close()
	c := NewDLQClient(server.URL)

	entries, err := c.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, dlq.ClassReferential, entries[0].Class)
	assert.Equal(t, "loan-application-10", entries[0].Key)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, stats)

	require.NoError(t, c.Purge(ctx))
	entries, err = c.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
