package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/Irine7/securetech-sub001/internal/config"
	"github.com/Irine7/securetech-sub001/internal/domain"
	"github.com/Irine7/securetech-sub001/internal/messaging"
	"github.com/Irine7/securetech-sub001/internal/reporting"
	"github.com/Irine7/securetech-sub001/internal/storage"
	"github.com/Irine7/securetech-sub001/internal/telemetry"
	"github.com/Irine7/securetech-sub001/internal/worker"
)

const consumerGroup = "order-journal"

func main() {
	cfg := config.Load("worker")
	logger := telemetry.NewLogger(cfg.ServiceName, cfg.LogLevel)

	if err := cfg.Require("POSTGRES_URL", "KAFKA_BROKERS"); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.ServiceName, cfg.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	db, err := storage.Open(ctx, cfg.PostgresURL, cfg.PostgresSchema)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	var cache worker.CacheInvalidator
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		client := redis.NewClient(redisOpts)
		defer func() { _ = client.Close() }()

		cache = reporting.NewRedisCache(client, "", cfg.StatsCacheTTL)
	}

	handler := worker.NewJournalHandler(worker.NewJournalRepository(db), cache, logger)

	topics := []string{domain.TopicOrderCreated, domain.TopicOrderStatusChanged}
	group, groupCtx := errgroup.WithContext(ctx)

	for _, topic := range topics {
		consumer := messaging.NewConsumer(cfg.KafkaBrokers, topic, consumerGroup)
		defer func() { _ = consumer.Close() }()

		group.Go(func() error {
			logger.Info("consuming order events", "topic", consumer.Topic(), "group", consumerGroup)
			return consumer.Consume(groupCtx, handler.Handle)
		})
	}

	logger.Info("starting order journal worker", "brokers", cfg.KafkaBrokers)

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer error", "error", err)
		os.Exit(1)
	}
	logger.Info("consumers stopped")
}
