// Package memory provides an in-process messaging.Client backed by an append-only
// log per channel. It is used for tests and single-binary development setups.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/lendline/lendline-stack/common/messaging"
)

// Broker keeps every channel as a single partition. Consumer groups own a cursor
// per channel; members of the same group share it.
type Broker struct {
	mu       sync.Mutex
	logs     map[string][]*messaging.Message
	cursors  map[string]int
	notify   chan struct{}
	closed   bool
	failWith error

	pending sync.WaitGroup
}

// NewBroker returns an empty broker.
func NewBroker() *Broker {
	return &Broker{
		logs:    make(map[string][]*messaging.Message),
		cursors: make(map[string]int),
		notify:  make(chan struct{}),
	}
}

// FailPublishes makes every later publish report err to its callback instead of
// appending the message. Pass nil to recover.
func (b *Broker) FailPublishes(err error) {
	b.mu.Lock()
	b.failWith = err
	b.mu.Unlock()
}

// PublishAsync appends msg to its channel log and reports the offset through cb
// from another goroutine.
func (b *Broker) PublishAsync(ctx context.Context, msg *messaging.Message, cb messaging.DeliveryCallback) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return messaging.ErrClosed
	}

	var report messaging.DeliveryReport
	if b.failWith != nil {
		report = messaging.Report(msg, 0, -1, b.failWith)
	} else {
		stored := clone(msg)
		stored.Offset = int64(len(b.logs[msg.Channel]))
		if stored.Timestamp.IsZero() {
			stored.Timestamp = time.Now().UTC()
		}
		b.logs[msg.Channel] = append(b.logs[msg.Channel], stored)
		report = messaging.Report(msg, 0, stored.Offset, nil)

		close(b.notify)
		b.notify = make(chan struct{})
	}
	b.pending.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.pending.Done()
		if cb != nil {
			cb(report)
		}
	}()
	return nil
}

// Consume delivers messages of channel to handler until ctx is done.
func (b *Broker) Consume(ctx context.Context, channel, group string, handler messaging.MessageHandler) error {
	for {
		msg, wait, err := b.next(channel, group)
		if err != nil {
			return err
		}
		if msg != nil {
			_ = handler(ctx, msg)
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-wait:
		}
	}
}

// Drain synchronously hands every message the group has not seen yet to handler
// and returns how many were delivered. Tests use it instead of a consumer goroutine.
func (b *Broker) Drain(ctx context.Context, channel, group string, handler messaging.MessageHandler) int {
	n := 0
	for {
		msg, _, err := b.next(channel, group)
		if err != nil || msg == nil {
			return n
		}
		_ = handler(ctx, msg)
		n++
	}
}

func (b *Broker) next(channel, group string) (*messaging.Message, <-chan struct{}, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, nil, messaging.ErrClosed
	}

	k := channel + "/" + group
	cursor := b.cursors[k]
	log := b.logs[channel]
	if cursor < len(log) {
		b.cursors[k] = cursor + 1
		return clone(log[cursor]), nil, nil
	}
	return nil, b.notify, nil
}

// Messages returns a copy of the channel log.
func (b *Broker) Messages(channel string) []*messaging.Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]*messaging.Message, 0, len(b.logs[channel]))
	for _, m := range b.logs[channel] {
		out = append(out, clone(m))
	}
	return out
}

// Wait blocks until every delivery callback issued so far has returned.
func (b *Broker) Wait() {
	b.pending.Wait()
}

// IsConnected reports false once the broker is closed.
func (b *Broker) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.closed
}

// Ping succeeds while the broker is open.
func (b *Broker) Ping(context.Context) error {
	if !b.IsConnected() {
		return messaging.ErrClosed
	}
	return nil
}

// Close waits for outstanding callbacks and wakes blocked consumers.
func (b *Broker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.notify)
	b.mu.Unlock()

	b.pending.Wait()
	return nil
}

func clone(m *messaging.Message) *messaging.Message {
	c := *m
	if m.Data != nil {
		c.Data = append([]byte(nil), m.Data...)
	}
	if m.Metadata != nil {
		c.Metadata = make(map[string]string, len(m.Metadata))
		for k, v := range m.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
