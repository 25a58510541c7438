package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Irine7/securetech-sub001/internal/catalog"
	"github.com/Irine7/securetech-sub001/internal/config"
	"github.com/Irine7/securetech-sub001/internal/orders"
	"github.com/Irine7/securetech-sub001/internal/reporting"
	"github.com/Irine7/securetech-sub001/internal/storage"
	"github.com/Irine7/securetech-sub001/internal/telemetry"
)

func main() {
	ctx := context.Background()
	cfg := config.Load("reporting")
	logger := telemetry.NewLogger(cfg.ServiceName, cfg.LogLevel)

	if err := cfg.Require("POSTGRES_URL"); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.ServiceName, cfg.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(cfg.ServiceName, cfg.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	db, err := storage.Open(ctx, cfg.PostgresURL, cfg.PostgresSchema)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	opts := []reporting.Option{reporting.WithPopularLimit(cfg.PopularProductsLimit)}
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		client := redis.NewClient(redisOpts)
		defer func() { _ = client.Close() }()

		opts = append(opts, reporting.WithCache(reporting.NewRedisCache(client, "", cfg.StatsCacheTTL)))
	} else {
		logger.Warn("REDIS_URL not set, dashboard stats are not cached")
	}

	aggregator := reporting.NewAggregator(
		orders.NewOrderRepository(db, logger),
		catalog.NewProductRepository(db),
		logger,
		opts...,
	)
	handler := reporting.NewHandler(aggregator, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /stats", telemetry.WithHTTPRoute(handler.HandleStats))
	mux.Handle("GET /metrics", metricsHandler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelhttp.NewHandler(mux, cfg.ServiceName, otelhttp.WithSpanNameFormatter(telemetry.SpanName)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting reporting service", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	waitForShutdown(logger, server)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
