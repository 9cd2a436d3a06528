package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendline/lendline-stack/common/messaging"
)

func TestNewClient_RequiresBrokers(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)

	c, err := NewClient(DefaultConfig())
	require.NoError(t, err)
	assert.True(t, c.IsConnected())
	assert.IsType(t, &kafka.Hash{}, c.writer.Balancer)
	assert.True(t, c.writer.Async)
}

func TestToKafka_FromKafka(t *testing.T) {
	msg := messaging.NewMessage("loan-application", "loan-application-3", []byte("v"),
		messaging.WithHeader("trace", "t-1"))

	km := toKafka(msg)
	assert.Equal(t, "loan-application", km.Topic)
	assert.Equal(t, []byte("loan-application-3"), km.Key)
	assert.Equal(t, "t-1", headerValue(km.Headers, "trace"))

	km.Partition = 4
	km.Offset = 120
	km.Headers = append(km.Headers, kafka.Header{Key: headerPublishID, Value: []byte("9")})

	back := fromKafka(km)
	assert.Equal(t, "loan-application-3", back.Key)
	assert.Equal(t, 4, back.Partition)
	assert.Equal(t, int64(120), back.Offset)
	assert.Equal(t, map[string]string{"trace": "t-1"}, back.Metadata)
}

func TestComplete_RoutesReportsToCallbacks(t *testing.T) {
	c, err := NewClient(DefaultConfig())
	require.NoError(t, err)

	var reports []messaging.DeliveryReport
	record := func(r messaging.DeliveryReport) { reports = append(reports, r) }

	ok := messaging.NewMessage("borrower-created", "borrower-1", nil)
	failed := messaging.NewMessage("borrower-created", "borrower-2", nil)
	c.pending.Store("1", pendingPublish{msg: ok, cb: record})
	c.pending.Store("2", pendingPublish{msg: failed, cb: record})

	c.complete([]kafka.Message{{
		Partition: 1,
		Offset:    77,
		Headers:   []kafka.Header{{Key: headerPublishID, Value: []byte("1")}},
	}}, nil)

	boom := errors.New("not leader for partition")
	c.complete([]kafka.Message{{
		Partition: 2,
		Headers:   []kafka.Header{{Key: headerPublishID, Value: []byte("2")}},
	}}, boom)

	// unknown ids are ignored
	c.complete([]kafka.Message{{Headers: []kafka.Header{{Key: headerPublishID, Value: []byte("404")}}}}, nil)

	require.Len(t, reports, 2)
	assert.Equal(t, "borrower-1", reports[0].Key)
	assert.Equal(t, 1, reports[0].Partition)
	assert.Equal(t, int64(77), reports[0].Offset)
	assert.NoError(t, reports[0].Err)

	assert.Equal(t, "borrower-2", reports[1].Key)
	assert.ErrorIs(t, reports[1].Err, boom)

	_, stillPending := c.pending.Load("1")
	assert.False(t, stillPending)
}

type fakeReader struct {
	fetches atomic.Int32
	fetch   func(ctx context.Context, n int32) (kafka.Message, error)

	mu        sync.Mutex
	committed []kafka.Message
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	return r.fetch(ctx, r.fetches.Add(1))
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func TestConsume_BacksOffOnFetchErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FetchBackoff = 20 * time.Millisecond
	cfg.MaxFetchBackoff = 40 * time.Millisecond
	c, err := NewClient(cfg)
	require.NoError(t, err)

	r := &fakeReader{fetch: func(context.Context, int32) (kafka.Message, error) {
		return kafka.Message{}, errors.New("connection refused")
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	err = c.consume(ctx, r, func(context.Context, *messaging.Message) error { return nil }, slog.Default())
	require.NoError(t, err)

	// 0, 20, 60, 100 and 140ms without jitter
	fetches := r.fetches.Load()
	assert.GreaterOrEqual(t, fetches, int32(2))
	assert.LessOrEqual(t, fetches, int32(8))
}

func TestConsume_CommitsAfterFetchRecovery(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FetchBackoff = time.Millisecond
	c, err := NewClient(cfg)
	require.NoError(t, err)

	r := &fakeReader{fetch: func(ctx context.Context, n int32) (kafka.Message, error) {
		switch n {
		case 1:
			return kafka.Message{}, errors.New("leader not available")
		case 2:
			return kafka.Message{Topic: "borrower-created", Key: []byte("borrower-1"), Offset: 9}, nil
		}
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var handled []string
	handler := func(_ context.Context, msg *messaging.Message) error {
		handled = append(handled, msg.Key)
		cancel()
		return errors.New("handler failure")
	}
	require.NoError(t, c.consume(ctx, r, handler, slog.Default()))

	assert.Equal(t, []string{"borrower-1"}, handled)
	require.Len(t, r.committed, 1)
	assert.Equal(t, int64(9), r.committed[0].Offset)
}
