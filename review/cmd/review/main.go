package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lendline/lendline-stack/common/bootstrap"
	"github.com/lendline/lendline-stack/common/database"
	"github.com/lendline/lendline-stack/common/events"
	"github.com/lendline/lendline-stack/common/logging"
	"github.com/lendline/lendline-stack/review/internal/config"
	"github.com/lendline/lendline-stack/review/internal/consumer"
	"github.com/lendline/lendline-stack/review/internal/handlers"
	"github.com/lendline/lendline-stack/review/internal/publisher"
	"github.com/lendline/lendline-stack/review/internal/repository"
	"github.com/lendline/lendline-stack/review/internal/server"
	"github.com/lendline/lendline-stack/review/internal/service"
	"github.com/lendline/lendline-stack/review/migrations"
)

const serviceName = "review"

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := bootstrap.Logger(cfg.Logging, serviceName)
	if err := run(cfg, logger); err != nil {
		logger.Error("review service failed", logging.Error(err))
		os.Exit(1)
	}
	logger.Info("review service stopped")
}

func run(cfg *config.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	client, err := bootstrap.Broker(ctx, cfg.Infra, serviceName, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	deadLetters, err := bootstrap.DeadLetters(ctx, cfg.Infra, serviceName, client, logger)
	if err != nil {
		return err
	}

	sender := events.NewPublisher(client, cfg.Channels, cfg.Events.Actor, logger)
	svc := service.NewService(repo, publisher.NewPublisher(sender), logger)

	c := consumer.New(repo, logger)
	dispatcher := events.NewDispatcher(serviceName, logger, deadLetters)
	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- dispatcher.Run(ctx, client, c.Routes(cfg.Channels)...)
	}()

	h := handlers.NewHandler(svc, cfg.Events.Actor, logger)
	health := bootstrap.HealthHandler(serviceName, client, repo)
	srv := bootstrap.NewServer(cfg.Server, server.NewRouter(h, health, deadLetters, cfg.CORS, logger))

	serveErr := bootstrap.Serve(ctx, srv, logger)
	stop()
	if err := <-consumeErr; err != nil {
		return err
	}
	return serveErr
}

func openRepository(ctx context.Context, cfg *config.Config, logger *logging.Logger) (repository.Repository, error) {
	if cfg.Database.InMemory {
		logger.Warn("using in-memory repository, data is lost on restart")
		return repository.NewMemoryRepository(), nil
	}

	dsn := cfg.Database.DSN()
	logger.Info("running database migrations")
	if err := database.Migrate(dsn, migrations.FS); err != nil {
		return nil, err
	}

	repo, err := repository.NewPostgresRepository(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to PostgreSQL: %w", err)
	}
	return repo, nil
}
