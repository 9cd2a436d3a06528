// Package messaging provides abstractions for message broker communication.
// It defines interfaces that allow services to publish and consume keyed messages
// without being coupled to a specific broker implementation.
package messaging

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned when a client is used after Close.
var ErrClosed = errors.New("messaging: client closed")

// Message represents a message received from or sent to a message broker.
type Message struct {
	// Channel is the topic/subject the message was published to.
	Channel string

	// Key is the partition key. Messages with the same key keep their relative order.
	Key string

	// Data is the raw message payload.
	Data []byte

	// Partition and Offset locate the message in the broker log once it has been
	// written. JetStream has a single partition and reports the stream sequence.
	Partition int
	Offset    int64

	// Metadata contains optional key-value pairs for message headers.
	Metadata map[string]string

	// Timestamp is when the message was published.
	Timestamp time.Time
}

// DeliveryReport is handed to a DeliveryCallback once the broker confirmed or
// refused a message.
type DeliveryReport struct {
	Channel   string
	Key       string
	Partition int
	Offset    int64
	Err       error
}

// DeliveryCallback is invoked exactly once per published message, from a broker goroutine.
type DeliveryCallback func(DeliveryReport)

// MessageHandler processes a received message.
// The returned error is reported but never causes redelivery: every message is
// acknowledged after the handler returns.
type MessageHandler func(ctx context.Context, msg *Message) error

// Producer sends keyed messages asynchronously.
type Producer interface {
	// PublishAsync hands msg to the broker and returns without waiting for the
	// broker acknowledgement. cb, if non-nil, receives the outcome. An error is
	// returned only when the message could not even be queued; cb is not called then.
	PublishAsync(ctx context.Context, msg *Message, cb DeliveryCallback) error
}

// Consumer reads a channel as a member of a consumer group.
type Consumer interface {
	// Consume blocks, dispatching messages of channel to handler, until ctx is
	// cancelled or the subscription fails. Members of the same group share the
	// channel; distinct groups each see every message.
	Consume(ctx context.Context, channel, group string, handler MessageHandler) error
}

// Client combines Producer and Consumer.
// Most services will use Client for full messaging capabilities.
type Client interface {
	Producer
	Consumer

	// IsConnected returns true if the client is connected to the broker.
	IsConnected() bool

	// Close flushes pending publishes and releases the connection.
	Close() error
}

// PublishOption configures message publishing behavior.
type PublishOption func(*Message)

// WithHeader adds a header to the published message.
func WithHeader(key, value string) PublishOption {
	return func(m *Message) {
		if m.Metadata == nil {
			m.Metadata = make(map[string]string)
		}
		m.Metadata[key] = value
	}
}

// NewMessage builds an outgoing message.
func NewMessage(channel, key string, data []byte, opts ...PublishOption) *Message {
	m := &Message{
		Channel:   channel,
		Key:       key,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Report builds the DeliveryReport of msg.
func Report(msg *Message, partition int, offset int64, err error) DeliveryReport {
	return DeliveryReport{
		Channel:   msg.Channel,
		Key:       msg.Key,
		Partition: partition,
		Offset:    offset,
		Err:       err,
	}
}
