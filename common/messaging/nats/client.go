// Package nats provides a JetStream implementation of the messaging interfaces.
package nats

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/lendline/lendline-stack/common/logging"
	"github.com/lendline/lendline-stack/common/messaging"
)

// HeaderKey carries the partition key of a message. JetStream has no native key.
const HeaderKey = "Lendline-Key"

// Client implements messaging.Client on a single JetStream stream that
// captures every channel of the bus.
type Client struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	cfg    Config
	logger *slog.Logger

	mu      sync.RWMutex
	closed  bool
	pending sync.WaitGroup
}

// Config holds NATS client configuration.
type Config struct {
	// URL is the NATS server URL (e.g., "nats://localhost:4222").
	URL string

	// Name is the client name for connection identification.
	Name string

	// MaxReconnects is the maximum number of reconnection attempts.
	// Use -1 for infinite reconnects.
	MaxReconnects int

	// ReconnectWait is the time to wait between reconnection attempts.
	ReconnectWait time.Duration

	// Timeout is the connection timeout.
	Timeout time.Duration

	// Username for authentication (optional).
	Username string

	// Password for authentication (optional).
	Password string

	// Token for token-based authentication (optional).
	Token string

	// Stream is created (or updated) on connect over Channels.
	Stream   StreamConfig
	Channels []string

	// PublishTimeout bounds how long an async publish waits for its ack.
	PublishTimeout time.Duration

	// Consumer tuning for durable consumers created by Consume.
	AckWait       time.Duration
	MaxAckPending int

	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	channels := messaging.DefaultChannels()
	return Config{
		URL:            nats.DefaultURL,
		Name:           "lendline-client",
		MaxReconnects:  -1, // Infinite reconnects
		ReconnectWait:  2 * time.Second,
		Timeout:        5 * time.Second,
		Stream:         DefaultStreamConfig(DefaultStreamName, channels),
		Channels:       channels,
		PublishTimeout: 10 * time.Second,
		AckWait:        30 * time.Second,
		MaxAckPending:  256,
	}
}

// NewClient connects, opens JetStream and makes sure the event stream exists.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "nats")

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", logging.Error(err))
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("NATS reconnected")
		}),
	}

	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	c := &Client{conn: conn, js: js, cfg: cfg, logger: logger}

	if cfg.Stream.Name != "" {
		stream := cfg.Stream
		if len(stream.Subjects) == 0 {
			stream.Subjects = cfg.Channels
		}
		if _, err := c.CreateOrUpdateStream(ctx, stream); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return c, nil
}

// JetStream exposes the underlying JetStream context for sinks sharing the connection.
func (c *Client) JetStream() jetstream.JetStream {
	return c.js
}

// PublishAsync publishes to JetStream and reports the ack through cb.
// The reported offset is the stream sequence; partition is always 0.
func (c *Client) PublishAsync(ctx context.Context, msg *messaging.Message, cb messaging.DeliveryCallback) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return messaging.ErrClosed
	}

	future, err := c.js.PublishMsgAsync(toNatsMsg(msg))
	if err != nil {
		return fmt.Errorf("publish to %s: %w", msg.Channel, err)
	}

	c.pending.Add(1)
	go c.awaitAck(msg, future, cb)
	return nil
}

func (c *Client) awaitAck(msg *messaging.Message, future jetstream.PubAckFuture, cb messaging.DeliveryCallback) {
	defer c.pending.Done()

	timeout := c.cfg.PublishTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var report messaging.DeliveryReport
	select {
	case ack := <-future.Ok():
		report = messaging.Report(msg, 0, int64(ack.Sequence), nil)
	case err := <-future.Err():
		report = messaging.Report(msg, 0, -1, err)
	case <-timer.C:
		report = messaging.Report(msg, 0, -1, fmt.Errorf("no publish ack within %s", timeout))
	}

	if cb != nil {
		cb(report)
	}
}

// Consume attaches a durable consumer named group, filtered on channel, and
// blocks until ctx is done. Every delivered message is acked once the handler returns.
func (c *Client) Consume(ctx context.Context, channel, group string, handler messaging.MessageHandler) error {
	consumer, err := c.CreateOrUpdateConsumer(ctx, c.cfg.Stream.Name, ConsumerConfig{
		Name:          group,
		FilterSubject: channel,
		AckWait:       c.cfg.AckWait,
		MaxAckPending: c.cfg.MaxAckPending,
	})
	if err != nil {
		return err
	}

	logger := c.logger.With(logging.Channel(channel), "group", group)

	cons, err := consumer.Consume(func(m jetstream.Msg) {
		msg := fromJetStream(m)
		if err := handler(ctx, msg); err != nil {
			logger.Debug("handler returned error, acknowledging anyway",
				logging.Offset(msg.Offset), logging.Error(err))
		}
		if err := m.Ack(); err != nil {
			logger.Warn("failed to ack message", logging.Offset(msg.Offset), logging.Error(err))
		}
	}, jetstream.ConsumeErrHandler(func(_ jetstream.ConsumeContext, err error) {
		logger.Warn("consume error", logging.Error(err))
	}))
	if err != nil {
		return fmt.Errorf("failed to start consuming %s: %w", channel, err)
	}
	defer cons.Stop()

	<-ctx.Done()
	return nil
}

// Ping round-trips to the server.
func (c *Client) Ping(ctx context.Context) error {
	return c.conn.FlushWithContext(ctx)
}

// IsConnected returns true if connected to NATS.
func (c *Client) IsConnected() bool {
	return c.conn.IsConnected()
}

// Close waits for outstanding publish acks, then closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.pending.Wait()
	c.conn.Close()
	return nil
}

func toNatsMsg(msg *messaging.Message) *nats.Msg {
	m := nats.NewMsg(msg.Channel)
	m.Data = msg.Data
	for k, v := range msg.Metadata {
		m.Header.Set(k, v)
	}
	if msg.Key != "" {
		m.Header.Set(HeaderKey, msg.Key)
	}
	return m
}

func fromJetStream(m jetstream.Msg) *messaging.Message {
	msg := &messaging.Message{
		Channel:   m.Subject(),
		Data:      m.Data(),
		Timestamp: time.Now(),
	}
	msg.Key, msg.Metadata = splitHeaders(m.Headers())

	if meta, err := m.Metadata(); err == nil {
		msg.Offset = int64(meta.Sequence.Stream)
		msg.Timestamp = meta.Timestamp
	}
	return msg
}

// splitHeaders separates the partition key from the remaining headers.
func splitHeaders(h nats.Header) (string, map[string]string) {
	if len(h) == 0 {
		return "", nil
	}
	key := h.Get(HeaderKey)
	var md map[string]string
	for k := range h {
		if k == HeaderKey {
			continue
		}
		if md == nil {
			md = make(map[string]string)
		}
		md[k] = h.Get(k)
	}
	return key, md
}
