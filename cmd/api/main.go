package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hotelpos/internal/api"
	"hotelpos/internal/config"
	"hotelpos/internal/database"
	"hotelpos/internal/events"
	"hotelpos/internal/logging"
	"hotelpos/internal/metrics"
	"hotelpos/internal/report"
	"hotelpos/internal/repository"
	"hotelpos/internal/seed"
	"hotelpos/internal/service"
	"hotelpos/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := initDatabase(cfg, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	cache := initCatalogCache(cfg, redisClient, &logger)

	bus, forwarder := initEvents(cfg, &logger)
	if forwarder != nil {
		defer forwarder.Close()
	}

	svc := service.New(db, cache, bus, cfg, &logger)

	if cfg.Seed.Path != "" {
		if err := seedCatalog(ctx, cfg.Seed.Path, svc, &logger); err != nil {
			return err
		}
	}

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	exporter := report.NewExporter(svc.Orders, svc.Invoices, cfg.App.Location(), cfg.Reports.Path, &logger)
	httpServer := api.NewHTTPServer(cfg.API, api.Deps{
		Reservations: svc.Reservations,
		Invoices:     svc.Invoices,
		Orders:       svc.Orders,
		Guests:       svc.Guests,
		Catalog:      svc.Catalog,
		Rooms:        svc.Rooms,
		Tasks:        svc.Tasks,
		Reports:      exporter,
		Ready:        db.Ping,
	}, &logger)

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(&cfg.API, api.NewFrontDeskService(svc.Invoices, svc.Reservations), &logger)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
	}

	startMetrics(ctx, cfg, &logger)
	startBackground(ctx, cfg, db, svc, &logger)

	return startServers(ctx, grpcServer, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func initDatabase(cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Database.Driver).Msg("init database")
		return nil, err
	}
	return db, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initCatalogCache puts Redis in front of an in-process fallback. Without
// Redis the fallback serves alone.
func initCatalogCache(cfg *config.Config, client *redis.Client, logger *zerolog.Logger) *repository.FailoverCatalog {
	var primary repository.CatalogStore
	if client != nil {
		primary = repository.NewRedisCatalog(client, cfg.Redis.CatalogTTL)
	}
	cacheLogger := logging.Component(logger, "catalog_cache")
	return repository.NewFailoverCatalog(primary, repository.NewMemoryCatalog(cfg.Redis.CatalogTTL), &cacheLogger)
}

func initEvents(cfg *config.Config, logger *zerolog.Logger) (*events.EventBus, *events.Forwarder) {
	bus := events.NewEventBus()
	bus.OnError(func(event *events.Event, err error) {
		logger.Error().Err(err).Str("event_type", event.Type).Msg("event handler failed")
	})
	if cfg.Broker.URL == "" {
		return bus, nil
	}

	brokerLogger := logging.Component(logger, "broker")
	forwarder, err := events.DialForwarder(cfg.Broker.URL, cfg.Broker.Exchange, &brokerLogger)
	if err != nil {
		logger.Warn().Err(err).Msg("rabbitmq unavailable, events stay in process")
		return bus, nil
	}
	forwarder.Attach(bus, events.AllTypes...)
	logger.Info().Str("exchange", cfg.Broker.Exchange).Msg("forwarding events to rabbitmq")
	return bus, forwarder
}

func seedCatalog(ctx context.Context, path string, svc *service.Services, logger *zerolog.Logger) error {
	catalog, err := seed.Load(path)
	if err != nil {
		logger.Error().Err(err).Str("seed_path", path).Msg("read seed catalog")
		return err
	}
	if _, err := seed.Apply(ctx, catalog, svc.Rooms, svc.Catalog, logger); err != nil {
		logger.Error().Err(err).Str("seed_path", path).Msg("apply seed catalog")
		return err
	}
	return nil
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startBackground(ctx context.Context, cfg *config.Config, db *database.DB, svc *service.Services, logger *zerolog.Logger) {
	if db.Driver() == "sqlite" {
		backupLogger := logging.Component(logger, "backup")
		go database.NewBackupService(db.Path(), cfg.Backup, &backupLogger).Start(ctx)
	}
	go worker.NewReconcileWorker(db, svc.Invoices, cfg.Worker, logger).Start(ctx)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(); err != nil {
				logger.Error().Err(err).Msg("grpc server stopped")
			}
		}()
	}

	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	ev := logger.Info().Int("http_port", cfg.API.HTTP.Port)
	if grpcServer != nil {
		ev = ev.Str("grpc_addr", grpcServer.Addr())
	}
	ev.Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
