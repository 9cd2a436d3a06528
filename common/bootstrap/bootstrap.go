// Package bootstrap wires the shared infrastructure of a service from its
// configuration: logger, broker client, dead-letter store and HTTP lifecycle.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lendline/lendline-stack/common/config"
	"github.com/lendline/lendline-stack/common/dlq"
	"github.com/lendline/lendline-stack/common/logging"
	"github.com/lendline/lendline-stack/common/messaging"
	"github.com/lendline/lendline-stack/common/messaging/kafka"
	"github.com/lendline/lendline-stack/common/messaging/memory"
	"github.com/lendline/lendline-stack/common/messaging/nats"
)

// Logger builds the service logger and installs it as the slog default.
func Logger(cfg config.LoggingConfig, service string) *logging.Logger {
	logger := logging.New(logging.ParseLevel(cfg.Level), cfg.Format).With(logging.Service(service))
	logging.SetDefault(logger)
	return logger
}

// Broker connects the configured broker backend.
func Broker(ctx context.Context, infra config.Infra, service string, logger *logging.Logger) (messaging.Client, error) {
	switch infra.Broker.Backend {
	case config.BrokerNATS:
		cfg := nats.DefaultConfig()
		cfg.URL = infra.Broker.NATS.URL
		cfg.Name = "lendline-" + service
		cfg.MaxReconnects = infra.Broker.NATS.MaxReconnects
		cfg.ReconnectWait = infra.Broker.NATS.ReconnectWait
		cfg.Channels = infra.Channels.All()
		cfg.Stream = nats.DefaultStreamConfig(infra.Broker.NATS.Stream, cfg.Channels)
		if infra.Broker.NATS.PublishTimeout > 0 {
			cfg.PublishTimeout = infra.Broker.NATS.PublishTimeout
		}
		if infra.Broker.NATS.AckWait > 0 {
			cfg.AckWait = infra.Broker.NATS.AckWait
		}
		if infra.Broker.NATS.MaxAckPending > 0 {
			cfg.MaxAckPending = infra.Broker.NATS.MaxAckPending
		}
		cfg.Logger = logger.Logger
		client, err := nats.NewClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		logger.Info("connected to NATS", "url", cfg.URL, "stream", cfg.Stream.Name)
		return client, nil

	case config.BrokerKafka:
		cfg := kafka.DefaultConfig()
		cfg.Brokers = infra.Broker.Kafka.Brokers
		if infra.Broker.Kafka.BatchTimeout > 0 {
			cfg.BatchTimeout = infra.Broker.Kafka.BatchTimeout
		}
		cfg.RequiredAcks = infra.Broker.Kafka.RequiredAcks
		cfg.Logger = logger.Logger
		client, err := kafka.NewClient(cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("using Kafka", "brokers", cfg.Brokers)
		return client, nil

	case config.BrokerMemory:
		logger.Warn("using in-process broker, events stay inside this process")
		return memory.NewBroker(), nil
	}
	return nil, fmt.Errorf("unknown broker backend %q", infra.Broker.Backend)
}

// DeadLetters opens the configured dead-letter store. The jetstream backend
// shares the connection of a NATS broker client.
func DeadLetters(ctx context.Context, infra config.Infra, service string, client messaging.Client, logger *logging.Logger) (dlq.Store, error) {
	switch infra.DLQ.Backend {
	case config.DLQJetStream:
		nc, ok := client.(*nats.Client)
		if !ok {
			return nil, errors.New("dlq backend jetstream requires the nats broker")
		}
		q, err := dlq.NewJetStreamQueue(ctx, nc.JetStream(), infra.DLQ.Stream, service, logger.Logger)
		if err != nil {
			return nil, err
		}
		logger.Info("dead letters go to JetStream", "stream", infra.DLQ.Stream)
		return q, nil
	case config.DLQFile:
		q, err := dlq.NewFileQueue(infra.DLQ.BasePath, logger.Logger)
		if err != nil {
			return nil, err
		}
		logger.Info("dead letters go to disk", "path", infra.DLQ.BasePath)
		return q, nil
	case config.DLQNone:
		logger.Warn("dead-letter sink disabled, failed messages are only logged")
		return dlq.Nop{}, nil
	}
	return nil, fmt.Errorf("unknown dlq backend %q", infra.DLQ.Backend)
}

// NewServer builds the HTTP server of a service.
func NewServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// Serve runs srv until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server, logger *logging.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
