package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeoutContexts(t *testing.T) {
	tests := []struct {
		name    string
		make    func(context.Context) (context.Context, context.CancelFunc)
		timeout time.Duration
	}{
		{"query", QueryContext, DefaultQueryTimeout},
		{"write", WriteContext, DefaultWriteTimeout},
		{"bulk", BulkContext, DefaultBulkTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now()
			ctx, cancel := tt.make(context.Background())
			defer cancel()

			deadline, ok := ctx.Deadline()
			assert.True(t, ok)
			assert.WithinDuration(t, start.Add(tt.timeout), deadline, time.Second)
		})
	}
}

func TestTimeoutContexts_InheritCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx, done := WriteContext(parent)
	defer done()

	cancel()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestDefaultPoolOptions(t *testing.T) {
	opts := DefaultPoolOptions()
	assert.Greater(t, opts.MaxConns, opts.MinConns)
	assert.Positive(t, opts.MaxConnLifetime)
}
