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
	"github.com/lendline/lendline-stack/scoring/internal/cache"
	"github.com/lendline/lendline-stack/scoring/internal/config"
	"github.com/lendline/lendline-stack/scoring/internal/consumer"
	"github.com/lendline/lendline-stack/scoring/internal/handlers"
	"github.com/lendline/lendline-stack/scoring/internal/index"
	"github.com/lendline/lendline-stack/scoring/internal/repository"
	"github.com/lendline/lendline-stack/scoring/internal/server"
	"github.com/lendline/lendline-stack/scoring/internal/service"
	"github.com/lendline/lendline-stack/scoring/migrations"
	"github.com/lendline/lendline-stack/scoring/pkg/engine"
)

const serviceName = "scoring"

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := bootstrap.Logger(cfg.Logging, serviceName)
	if err := run(cfg, logger); err != nil {
		logger.Error("scoring service failed", logging.Error(err))
		os.Exit(1)
	}
	logger.Info("scoring service stopped")
}

func run(cfg *config.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	weights, err := cfg.EngineWeights()
	if err != nil {
		return fmt.Errorf("load scoring weights: %w", err)
	}
	eng, err := engine.New(weights)
	if err != nil {
		return fmt.Errorf("create scoring engine: %w", err)
	}

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

	var scoreCache service.ScoreCache
	if cfg.Redis.Enabled {
		c, err := cache.Connect(ctx, cfg.Redis.URL, cfg.Redis.PoolSize, cfg.Redis.TTL)
		if err != nil {
			return err
		}
		defer c.Close()
		scoreCache = c
		logger.Info("score cache enabled", "ttl", cfg.Redis.TTL)
	}

	var opts []consumer.Option
	if cfg.OpenSearch.Enabled {
		ix, err := index.New(cfg.OpenSearch)
		if err != nil {
			return err
		}
		if err := ix.EnsureIndex(ctx); err != nil {
			return err
		}
		opts = append(opts, consumer.WithIndexer(ix))
		logger.Info("score indexing enabled", "index", cfg.OpenSearch.Index)
	}

	c := consumer.New(repo, eng, logger, opts...)
	dispatcher := events.NewDispatcher(serviceName, logger, deadLetters)
	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- dispatcher.Run(ctx, client, c.Routes(cfg.Channels)...)
	}()

	svc := service.NewService(repo, scoreCache, logger)
	h := handlers.NewHandler(svc, logger)
	health := bootstrap.HealthHandler(serviceName, client, repo)
	srv := bootstrap.NewServer(cfg.Server, server.NewRouter(h, health, deadLetters, logger))

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
