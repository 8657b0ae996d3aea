package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"lotto/application"
	"lotto/config"
	"lotto/database"
	"lotto/domain/interfaces"
	"lotto/httpapi"
	"lotto/infrastructure"
	"lotto/infrastructure/observability"
	"lotto/repository"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// Run initializes and starts the engine
func Run(ctx context.Context) error {
	cfg := config.Get()
	SetupLogging(cfg)

	log.WithField("environment", cfg.Environment).Info("Starting lotto engine...")

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("Closing database connection...")
		db.Close()
	}()
	log.Info("Database connection established successfully")

	// Initialize metrics
	metrics := observability.NewMetricsProvider(cfg)
	if err := metrics.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := metrics.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Error shutting down metrics provider")
		}
	}()

	healthChecks := map[string]httpapi.HealthCheck{
		"database": func(ctx context.Context) error { return db.Ping(ctx) },
	}

	// Redis is optional: without it settlement relies on the draw state alone
	var locker application.DrawLocker
	var decorate repository.SettingsDecorator
	var invalidator application.SettingsInvalidator
	if cfg.RedisAddr != "" {
		redisClient, err := infrastructure.NewRedisClient(ctx, infrastructure.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return err
		}
		defer closeRedis(redisClient)

		locker = infrastructure.NewRedisDrawLocker(redisClient)
		decorate = infrastructure.SettingsCacheDecorator(redisClient, cfg.SettingsCacheTTL)
		invalidator = infrastructure.NewSettingsCacheInvalidator(redisClient)
		healthChecks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	} else {
		log.Warn("REDIS_ADDR not set, draw locks and the settings cache are disabled")
	}

	// NATS is optional: without it events are dropped and results arrive over HTTP only
	var publisher interfaces.EventPublisher = infrastructure.NewNoopEventPublisher()
	var natsClient *infrastructure.NATSClient
	if cfg.NATSServers != "" {
		natsClient = infrastructure.NewNATSClient(cfg.NATSServers, infrastructure.NATSOptions{
			MaxDeliver: cfg.NATSMaxDeliver,
			AckWait:    cfg.NATSAckWait,
		})
		if err := natsClient.Connect(ctx); err != nil {
			return err
		}
		defer func() {
			if err := natsClient.Close(); err != nil {
				log.WithError(err).Error("Error closing NATS connection")
			}
		}()

		natsPublisher := infrastructure.NewNATSEventPublisher(natsClient, infrastructure.NewEventSubjectMapper())
		if err := natsPublisher.EnsureEventStream(natsClient); err != nil {
			return err
		}
		natsPublisher.OnPublished(metrics.RecordNATSMessagePublished)
		publisher = natsPublisher
		healthChecks["nats"] = func(context.Context) error {
			if !natsClient.IsConnected() {
				return errors.New("not connected")
			}
			return nil
		}
	} else {
		log.Warn("NATS_SERVERS not set, domain events will not be published")
	}

	// Initialize unit of work factory and handlers
	uowFactory := infrastructure.NewUnitOfWorkFactory(db, metrics.ObserveEvents(publisher), decorate)
	clock := interfaces.SystemClock{Location: cfg.Location()}
	opts := cfg.HandlerOptions()

	plays := application.NewPlayHandler(uowFactory, clock, metrics, opts)
	settlement := application.NewSettlementHandler(uowFactory, locker, clock, metrics, opts)
	results := application.NewDrawResultHandler(uowFactory, settlement, clock, opts)
	queries := application.NewQueryHandler(uowFactory, opts)
	games := application.NewGameAdminHandler(uowFactory, invalidator, opts)
	recovery := application.NewSettlementRecoveryWorker(uowFactory, settlement, clock, opts)
	log.Info("Application handlers initialized successfully")

	if natsClient != nil {
		subscriber := infrastructure.NewNATSResultSubscriber(natsClient, results, natsClient.ProcessTimeout())
		if err := subscriber.Start(); err != nil {
			return fmt.Errorf("failed to start result subscriber: %w", err)
		}
	}

	stopRecovery := recovery.Start(ctx)
	defer stopRecovery()

	router := httpapi.NewRouter(httpapi.Services{
		Plays:        plays,
		Settlements:  settlement,
		Results:      results,
		Queries:      queries,
		Games:        games,
		HealthChecks: healthChecks,
	}, cfg.Environment)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down lotto engine...")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down HTTP server")
	}

	log.Info("Shutdown completed")
	return nil
}

// SetupLogging configures the logrus formatter and level for the environment
func SetupLogging(cfg *config.Config) {
	if cfg.Environment == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown LOG_LEVEL, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func closeRedis(client *redis.Client) {
	if err := client.Close(); err != nil {
		log.WithError(err).Error("Error closing Redis connection")
	}
}
