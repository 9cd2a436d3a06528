package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lendline/lendline-stack/common/config"
	"github.com/lendline/lendline-stack/common/logging"
	"github.com/lendline/lendline-stack/common/messaging"
	"github.com/lendline/lendline-stack/common/metrics"
)

// Publisher hands envelopes to the broker, fire-and-forget. Nothing it does is
// reported to the caller: a failed send is logged and counted, never retried, and
// never undoes the local change that produced the envelope.
type Publisher struct {
	producer messaging.Producer
	routes   map[Kind]string
	actor    string
	logger   *slog.Logger
	now      func() time.Time
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithClock overrides the clock used for EventTimestamp.
func WithClock(now func() time.Time) PublisherOption {
	return func(p *Publisher) { p.now = now }
}

// NewPublisher routes every kind to its configured channel. actor is stamped on
// envelopes that do not carry one.
func NewPublisher(producer messaging.Producer, channels config.ChannelsConfig, actor string, logger *logging.Logger, opts ...PublisherOption) *Publisher {
	if logger == nil {
		logger = logging.Default()
	}
	p := &Publisher{
		producer: producer,
		routes:   Routes(channels),
		actor:    actor,
		logger:   logger.With("component", "publisher").Logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Routes maps each kind to its channel.
func Routes(c config.ChannelsConfig) map[Kind]string {
	return map[Kind]string{
		KindBorrowerCreated:      c.BorrowerCreated,
		KindLoanApplicationEvent: c.LoanApplication,
		KindDocumentUploaded:     c.DocumentsUpload,
		KindLoanStatusUpdate:     c.LoanStatus,
		KindDocumentStatusUpdate: c.DocumentsStatus,
	}
}

// Publish stamps metadata on env, encodes it and submits it keyed by entity id.
func (p *Publisher) Publish(ctx context.Context, env Envelope) {
	channel := p.routes[env.Kind()]
	key := env.Key()
	logger := p.logger.With(logging.Channel(channel), logging.Key(key), logging.EventKind(string(env.Kind())))

	meta := env.Meta()
	if meta.EventID == "" {
		meta.EventID = uuid.NewString()
	}
	if meta.EventTimestamp == "" {
		meta.EventTimestamp = FormatTimestamp(p.now())
	}
	if meta.Actor == "" {
		meta.Actor = p.actor
	}
	logger = logger.With(logging.EventID(meta.EventID))

	if channel == "" {
		logger.Error("no channel configured for event kind")
		metrics.EventsPublished.WithLabelValues("unrouted", metrics.StatusFailure).Inc()
		return
	}

	data, err := Marshal(env)
	if err != nil {
		logger.Error("failed to encode event", logging.Error(err))
		metrics.EventsPublished.WithLabelValues(channel, metrics.StatusFailure).Inc()
		return
	}

	msg := messaging.NewMessage(channel, key, data)
	if err := p.producer.PublishAsync(ctx, msg, func(r messaging.DeliveryReport) {
		if r.Err != nil {
			logger.Error("failed to publish event", logging.Error(r.Err))
			metrics.EventsPublished.WithLabelValues(channel, metrics.StatusFailure).Inc()
			return
		}
		logger.Info("published event", logging.Partition(r.Partition), logging.Offset(r.Offset))
		metrics.EventsPublished.WithLabelValues(channel, metrics.StatusSuccess).Inc()
	}); err != nil {
		logger.Error("failed to submit event", logging.Error(err))
		metrics.EventsPublished.WithLabelValues(channel, metrics.StatusFailure).Inc()
	}
}
