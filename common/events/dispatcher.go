package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lendline/lendline-stack/common/dlq"
	"github.com/lendline/lendline-stack/common/logging"
	"github.com/lendline/lendline-stack/common/messaging"
	"github.com/lendline/lendline-stack/common/metrics"
)

// HandleFunc applies one decoded envelope to the local store.
type HandleFunc func(ctx context.Context, env Envelope, msg *messaging.Message) error

// Route binds a channel to the envelope kind it carries and the handler that applies it.
type Route struct {
	Channel string
	New     func() Envelope
	Handle  HandleFunc
}

// Dispatcher turns routes into broker handlers. Every message is acknowledged:
// handler errors are classified, logged, counted and dead-lettered, never returned
// to the broker.
type Dispatcher struct {
	service string
	logger  *logging.Logger
	sink    dlq.Sink
	now     func() time.Time
}

// NewDispatcher creates a dispatcher for service. A nil sink discards dead letters.
func NewDispatcher(service string, logger *logging.Logger, sink dlq.Sink) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	if sink == nil {
		sink = dlq.Nop{}
	}
	return &Dispatcher{
		service: service,
		logger:  logger.With(logging.Service(service), "component", "dispatcher"),
		sink:    sink,
		now:     time.Now,
	}
}

// Handler returns the broker handler for route. It always returns nil.
func (d *Dispatcher) Handler(route Route) messaging.MessageHandler {
	return func(ctx context.Context, msg *messaging.Message) error {
		start := time.Now()
		outcome, eventID, err := d.handle(ctx, route, msg)
		metrics.ConsumeDuration.WithLabelValues(msg.Channel).Observe(time.Since(start).Seconds())
		metrics.EventsConsumed.WithLabelValues(msg.Channel, string(outcome)).Inc()

		logger := d.logger.With(
			logging.Channel(msg.Channel),
			logging.Key(msg.Key),
			logging.Partition(msg.Partition),
			logging.Offset(msg.Offset),
			logging.Outcome(string(outcome)),
		)
		if eventID != "" {
			logger = logger.With(logging.EventID(eventID))
		}

		switch outcome {
		case OutcomeApplied:
			logger.Debug("applied event")
		case OutcomeDuplicate:
			logger.Info("skipped duplicate event")
		case OutcomeSecurity:
			logger.Warn("rejected event with mismatched owner", logging.Error(err))
		default:
			logger.Error("failed to apply event", logging.Error(err))
		}

		if outcome.DeadLettered() {
			d.deadLetter(ctx, logger, outcome, eventID, msg, err)
		}
		return nil
	}
}

func (d *Dispatcher) handle(ctx context.Context, route Route, msg *messaging.Message) (outcome Outcome, eventID string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
			outcome = OutcomeProcessing
		}
	}()

	env := route.New()
	if err := Unmarshal(msg.Data, env); err != nil {
		return OutcomeDecode, "", err
	}
	eventID = env.Meta().EventID
	if eventID != "" {
		ctx = logging.ContextWithEventID(ctx, eventID)
	}

	err = route.Handle(ctx, env, msg)
	return Classify(err), eventID, err
}

func (d *Dispatcher) deadLetter(ctx context.Context, logger *logging.Logger, outcome Outcome, eventID string, msg *messaging.Message, cause error) {
	entry := dlq.Entry{
		Timestamp: d.now().UTC(),
		Service:   d.service,
		Class:     string(outcome),
		Channel:   msg.Channel,
		Key:       msg.Key,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		EventID:   eventID,
		Payload:   msg.Data,
	}
	if cause != nil {
		entry.Error = cause.Error()
	}
	if err := d.sink.Write(ctx, entry); err != nil {
		logger.Error("failed to write dead letter", logging.Error(err))
		return
	}
	metrics.DeadLettered.WithLabelValues(string(outcome)).Inc()
}

// Run consumes every route on its own goroutine, in the consumer group
// "{service}-{channel}", until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context, consumer messaging.Consumer, routes ...Route) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, route := range routes {
		wg.Add(1)
		go func(route Route) {
			defer wg.Done()
			group := messaging.ConsumerGroup(d.service, route.Channel)
			d.logger.Info("consuming channel", logging.Channel(route.Channel), slog.String("group", group))
			err := consumer.Consume(ctx, route.Channel, group, d.Handler(route))
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, messaging.ErrClosed) {
				d.logger.Error("consumer stopped", logging.Channel(route.Channel), logging.Error(err))
				mu.Lock()
				errs = append(errs, fmt.Errorf("consume %s: %w", route.Channel, err))
				mu.Unlock()
			}
		}(route)
	}
	wg.Wait()
	return errors.Join(errs...)
}
