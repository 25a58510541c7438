package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Irine7/securetech-sub001/internal/catalog"
	"github.com/Irine7/securetech-sub001/internal/config"
	"github.com/Irine7/securetech-sub001/internal/messaging"
	"github.com/Irine7/securetech-sub001/internal/orders"
	"github.com/Irine7/securetech-sub001/internal/storage"
	"github.com/Irine7/securetech-sub001/internal/telemetry"
)

func main() {
	ctx := context.Background()
	cfg := config.Load("orders")
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

	var repoOpts []orders.RepositoryOption
	if cfg.PlaceholderItems {
		repoOpts = append(repoOpts, orders.WithPlaceholderItems(cfg.PlaceholderImage))
	}
	repo := orders.NewOrderRepository(db, logger, repoOpts...)

	resolver := orders.NewResolver(catalog.NewProductRepository(db), logger)
	normalizer := orders.NewNormalizer(resolver, logger, orders.WithPlaceholderImage(cfg.PlaceholderImage))

	var statusOpts []orders.StatusOption
	var serviceOpts []orders.ServiceOption
	if cfg.StrictTransitions {
		statusOpts = append(statusOpts, orders.WithTransitionPolicy(orders.LifecycleTransitions))
	}
	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers)
		defer func() { _ = producer.Close() }()

		statusOpts = append(statusOpts, orders.WithStatusEvents(producer))
		serviceOpts = append(serviceOpts, orders.WithOrderEvents(producer))
	} else {
		logger.Warn("KAFKA_BROKERS not set, order events are disabled")
	}

	statuses := orders.NewStatusManager(repo, logger, statusOpts...)
	service := orders.NewService(repo, normalizer, statuses, logger, serviceOpts...)
	handler := orders.NewHandler(service, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders", telemetry.WithHTTPRoute(handler.HandleList))
	mux.HandleFunc("POST /orders", telemetry.WithHTTPRoute(handler.HandleCreate))
	mux.HandleFunc("GET /orders/{id}", telemetry.WithHTTPRoute(handler.HandleGet))
	mux.HandleFunc("PATCH /orders/{id}/status", telemetry.WithHTTPRoute(handler.HandleUpdateStatus))
	mux.Handle("GET /metrics", metricsHandler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelhttp.NewHandler(mux, cfg.ServiceName, otelhttp.WithSpanNameFormatter(telemetry.SpanName)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting orders service", "port", cfg.Port, "strict_transitions", cfg.StrictTransitions)
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
