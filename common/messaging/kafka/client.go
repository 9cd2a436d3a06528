// Package kafka provides a Kafka implementation of the messaging interfaces on
// segmentio/kafka-go. Channels map to topics and keys drive the hash partitioner.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/lendline/lendline-stack/common/logging"
	"github.com/lendline/lendline-stack/common/messaging"
)

// headerPublishID correlates a completed write with the callback of its publish.
const headerPublishID = "lendline-publish-id"

// Config holds Kafka client configuration.
type Config struct {
	Brokers      []string
	BatchTimeout time.Duration
	RequiredAcks int
	MinBytes     int
	MaxBytes     int

	// FetchBackoff is the first pause after a failed fetch. It doubles on each
	// consecutive failure up to MaxFetchBackoff.
	FetchBackoff    time.Duration
	MaxFetchBackoff time.Duration

	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Brokers:      []string{"localhost:9092"},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: int(kafka.RequireAll),
		MinBytes:     1,
		MaxBytes:     10 << 20,

		FetchBackoff:    100 * time.Millisecond,
		MaxFetchBackoff: 5 * time.Second,
	}
}

type pendingPublish struct {
	msg *messaging.Message
	cb  messaging.DeliveryCallback
}

// Client implements messaging.Client. It owns one async writer shared by all
// channels; each Consume call owns its reader.
type Client struct {
	cfg    Config
	writer *kafka.Writer
	logger *slog.Logger

	seq     atomic.Uint64
	pending sync.Map // publish id -> pendingPublish

	mu     sync.RWMutex
	closed bool
}

// NewClient builds a client. No connection is opened until the first write or read.
func NewClient(cfg Config) (*Client, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.FetchBackoff <= 0 {
		cfg.FetchBackoff = 100 * time.Millisecond
	}
	if cfg.MaxFetchBackoff < cfg.FetchBackoff {
		cfg.MaxFetchBackoff = cfg.FetchBackoff
	}

	c := &Client{cfg: cfg, logger: logger.With("component", "kafka")}
	c.writer = &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		Async:        true,
		Completion:   c.complete,
	}
	return c, nil
}

// PublishAsync queues msg on the writer. The outcome reaches cb from the writer's
// completion goroutine once the batch holding msg was written or failed.
func (c *Client) PublishAsync(ctx context.Context, msg *messaging.Message, cb messaging.DeliveryCallback) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return messaging.ErrClosed
	}

	id := strconv.FormatUint(c.seq.Add(1), 10)
	c.pending.Store(id, pendingPublish{msg: msg, cb: cb})

	km := toKafka(msg)
	km.Headers = append(km.Headers, kafka.Header{Key: headerPublishID, Value: []byte(id)})

	if err := c.writer.WriteMessages(ctx, km); err != nil {
		c.pending.Delete(id)
		return fmt.Errorf("publish to %s: %w", msg.Channel, err)
	}
	return nil
}

// complete is the writer's Completion hook.
func (c *Client) complete(messages []kafka.Message, err error) {
	for _, m := range messages {
		id := headerValue(m.Headers, headerPublishID)
		v, ok := c.pending.LoadAndDelete(id)
		if !ok {
			continue
		}
		p := v.(pendingPublish)
		if p.cb == nil {
			continue
		}
		if err != nil {
			p.cb(messaging.Report(p.msg, m.Partition, -1, err))
			continue
		}
		p.cb(messaging.Report(p.msg, m.Partition, m.Offset, nil))
	}
}

// Consume runs the fetch/handle/commit loop of a group reader on topic channel.
// Offsets are committed whatever the handler returns.
func (c *Client) Consume(ctx context.Context, channel, group string, handler messaging.MessageHandler) error {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     c.cfg.Brokers,
		GroupID:     group,
		Topic:       channel,
		MinBytes:    c.cfg.MinBytes,
		MaxBytes:    c.cfg.MaxBytes,
		StartOffset: kafka.FirstOffset,
	})
	defer r.Close()

	logger := c.logger.With(logging.Channel(channel), "group", group)
	return c.consume(ctx, r, handler, logger)
}

// reader is the part of *kafka.Reader the consume loop needs.
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

func (c *Client) consume(ctx context.Context, r reader, handler messaging.MessageHandler, logger *slog.Logger) error {
	backoff := c.cfg.FetchBackoff
	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn("fetch failed", logging.Error(err), "retry_in", backoff)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, c.cfg.MaxFetchBackoff)
			continue
		}
		backoff = c.cfg.FetchBackoff

		msg := fromKafka(m)
		if err := handler(ctx, msg); err != nil {
			logger.Debug("handler returned error, committing anyway",
				logging.Partition(m.Partition), logging.Offset(m.Offset), logging.Error(err))
		}
		if err := r.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			logger.Warn("commit failed", logging.Partition(m.Partition), logging.Offset(m.Offset), logging.Error(err))
		}
	}
}

// Ping dials the first reachable broker.
func (c *Client) Ping(ctx context.Context) error {
	var lastErr error
	for _, addr := range c.cfg.Brokers {
		conn, err := kafka.DialContext(ctx, "tcp", addr)
		if err != nil {
			lastErr = err
			continue
		}
		return conn.Close()
	}
	return lastErr
}

// IsConnected reports whether the client is still open. kafka-go dials lazily.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed
}

// Close flushes the writer; pending callbacks fire before it returns.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	return c.writer.Close()
}

func toKafka(msg *messaging.Message) kafka.Message {
	km := kafka.Message{
		Topic: msg.Channel,
		Value: msg.Data,
		Time:  msg.Timestamp,
	}
	if msg.Key != "" {
		km.Key = []byte(msg.Key)
	}
	for k, v := range msg.Metadata {
		km.Headers = append(km.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return km
}

func fromKafka(m kafka.Message) *messaging.Message {
	msg := &messaging.Message{
		Channel:   m.Topic,
		Key:       string(m.Key),
		Data:      m.Value,
		Partition: m.Partition,
		Offset:    m.Offset,
		Timestamp: m.Time,
	}
	for _, h := range m.Headers {
		if h.Key == headerPublishID {
			continue
		}
		if msg.Metadata == nil {
			msg.Metadata = make(map[string]string)
		}
		msg.Metadata[h.Key] = string(h.Value)
	}
	return msg
}

func headerValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
