package dlq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/lendline/lendline-stack/common/logging"
)

// SubjectPrefix prefixes every dead-letter subject: lendline.dlq.<service>.<class>
const SubjectPrefix = "lendline.dlq"

// JetStreamQueue writes dead letters to a JetStream stream so every service
// instance shares one queue.
type JetStreamQueue struct {
	js      jetstream.JetStream
	stream  jetstream.Stream
	service string
	logger  *slog.Logger
	written uint64
}

// NewJetStreamQueue creates the dead-letter stream if needed.
func NewJetStreamQueue(ctx context.Context, js jetstream.JetStream, streamName, service string, logger *slog.Logger) (*JetStreamQueue, error) {
	if js == nil {
		return nil, fmt.Errorf("jetstream client is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      streamName,
		Subjects:  []string{SubjectPrefix + ".>"},
		MaxAge:    30 * 24 * time.Hour,
		MaxBytes:  512 * 1024 * 1024,
		Retention: jetstream.LimitsPolicy,
		Storage:   jetstream.FileStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("create dlq stream: %w", err)
	}

	return &JetStreamQueue{
		js:      js,
		stream:  stream,
		service: service,
		logger:  logger.With("component", "dlq"),
	}, nil
}

// Subject returns the subject entries of service and class are written to.
func Subject(service, class string) string {
	return strings.Join([]string{SubjectPrefix, service, class}, ".")
}

// Write publishes entry and waits for the stream ack.
func (q *JetStreamQueue) Write(ctx context.Context, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal dlq entry: %w", err)
	}

	service := entry.Service
	if service == "" {
		service = q.service
	}

	if _, err := q.js.Publish(ctx, Subject(service, entry.Class), data); err != nil {
		return fmt.Errorf("publish dlq entry: %w", err)
	}

	atomic.AddUint64(&q.written, 1)
	q.logger.Info("published dead letter", "class", entry.Class, logging.Channel(entry.Channel))
	return nil
}

// List reads up to limit entries of this service with an ephemeral consumer.
func (q *JetStreamQueue) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}

	consumer, err := q.stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		FilterSubject: Subject(q.service, ">"),
		AckPolicy:     jetstream.AckNonePolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		MaxDeliver:    1,
	})
	if err != nil {
		return nil, fmt.Errorf("create list consumer: %w", err)
	}

	msgs, err := consumer.Fetch(limit, jetstream.FetchMaxWait(2*time.Second))
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}

	var entries []Entry
	for msg := range msgs.Messages() {
		var entry Entry
		if err := json.Unmarshal(msg.Data(), &entry); err != nil {
			q.logger.Error("failed to parse dlq message", logging.Error(err))
			continue
		}
		entries = append(entries, entry)
	}

	if msgs.Error() != nil {
		q.logger.Warn("fetch completed with error", logging.Error(msgs.Error()))
	}

	return entries, nil
}

// Purge removes this service's entries from the stream.
func (q *JetStreamQueue) Purge(ctx context.Context) error {
	if err := q.stream.Purge(ctx, jetstream.WithPurgeSubject(Subject(q.service, ">"))); err != nil {
		return fmt.Errorf("purge dlq stream: %w", err)
	}
	q.logger.Info("purged dead letters", "service", q.service)
	return nil
}

// Stats returns DLQ metrics from JetStream.
func (q *JetStreamQueue) Stats(ctx context.Context) map[string]interface{} {
	info, err := q.stream.Info(ctx)
	if err != nil {
		return map[string]interface{}{
			"enabled":       true,
			"backend":       "jetstream",
			"written_local": atomic.LoadUint64(&q.written),
			"error":         err.Error(),
		}
	}

	return map[string]interface{}{
		"enabled":        true,
		"backend":        "jetstream",
		"written_local":  atomic.LoadUint64(&q.written),
		"total_messages": info.State.Msgs,
		"total_bytes":    info.State.Bytes,
		"first_seq":      info.State.FirstSeq,
		"last_seq":       info.State.LastSeq,
	}
}
