package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"

	"github.com/couchcryptid/water-quality-monitor/internal/adapter/geocode"
	"github.com/couchcryptid/water-quality-monitor/internal/adapter/httpapi"
	"github.com/couchcryptid/water-quality-monitor/internal/adapter/kafkaingest"
	"github.com/couchcryptid/water-quality-monitor/internal/alert"
	"github.com/couchcryptid/water-quality-monitor/internal/config"
	"github.com/couchcryptid/water-quality-monitor/internal/domain"
	"github.com/couchcryptid/water-quality-monitor/internal/observability"
	"github.com/couchcryptid/water-quality-monitor/internal/pipeline"
	"github.com/couchcryptid/water-quality-monitor/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Stores: Postgres when configured, in-memory otherwise.
	thresholds, readings, db, err := buildStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close() //nolint:errcheck // process is exiting
	}

	// Notifier selection (log, webhook, or mqtt).
	notifier, closeNotifier, err := buildNotifier(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize notifier", "error", err)
		os.Exit(1)
	}
	defer closeNotifier()

	dispatcher := alert.NewDispatcher(notifier, logger, metrics, alert.Options{
		Policy:    alert.NotifyAtOrAbove(cfg.AlertMinSeverity),
		Cooldown:  buildCooldown(cfg, logger),
		Timeout:   cfg.NotifyTimeout,
		QueueSize: cfg.AlertQueueSize,
	})

	p := pipeline.New(thresholds, readings, dispatcher, logger, metrics)

	// Geocoder (feature-flagged via MAPBOX_TOKEN / MAPBOX_ENABLED).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := geocode.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		geocoder = geocode.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled",
			"cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	srv := httpapi.NewServer(cfg.HTTPAddr, p, readings, thresholds, p, geocoder, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	var consumer *kafkaingest.Consumer
	if cfg.KafkaEnabled {
		consumer = kafkaingest.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, p, logger, metrics)
		go func() {
			if err := consumer.Run(ctx); err != nil {
				logger.Error("kafka consumer error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			logger.Error("kafka consumer close error", "error", err)
		}
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Error("alert dispatcher close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// buildStores wires either Postgres-backed or in-memory stores. The returned
// *sql.DB is nil in the in-memory case.
func buildStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (httpapi.ThresholdManager, *storePair, *sql.DB, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory stores")
		return store.NewMemoryThresholds(), &storePair{memory: store.NewMemoryReadings()}, nil, nil
	}

	db, err := store.Open(cfg.DatabaseURL, cfg.DatabaseMaxConns)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := store.EnsureSchema(ctx, db); err != nil {
		db.Close() //nolint:errcheck // already failing
		return nil, nil, nil, err
	}

	thresholds, err := store.NewThresholdRepository(ctx, db, logger)
	if err != nil {
		db.Close() //nolint:errcheck // already failing
		return nil, nil, nil, err
	}

	logger.Info("postgres storage ready", "max_conns", cfg.DatabaseMaxConns)
	return thresholds, &storePair{postgres: store.NewReadingRepository(db, logger)}, db, nil
}

// storePair lets main treat the two reading store implementations uniformly.
type storePair struct {
	postgres *store.ReadingRepository
	memory   *store.MemoryReadings
}

func (s *storePair) Insert(ctx context.Context, in domain.ReadingInput, severity domain.Severity) (domain.StoredReading, error) {
	if s.postgres != nil {
		return s.postgres.Insert(ctx, in, severity)
	}
	return s.memory.Insert(ctx, in, severity)
}

func (s *storePair) ListRecent(ctx context.Context, limit int) ([]domain.StoredReading, error) {
	if s.postgres != nil {
		return s.postgres.ListRecent(ctx, limit)
	}
	return s.memory.ListRecent(ctx, limit)
}

func (s *storePair) ListAll(ctx context.Context) ([]domain.StoredReading, error) {
	if s.postgres != nil {
		return s.postgres.ListAll(ctx)
	}
	return s.memory.ListAll(ctx)
}

func (s *storePair) Ping(ctx context.Context) error {
	if s.postgres != nil {
		return s.postgres.Ping(ctx)
	}
	return s.memory.Ping(ctx)
}

func buildNotifier(cfg *config.Config, logger *slog.Logger) (alert.Notifier, func(), error) {
	switch cfg.Notifier {
	case config.NotifierWebhook:
		logger.Info("webhook notifier enabled")
		return alert.NewWebhookNotifier(cfg.WebhookURL), func() {}, nil
	case config.NotifierMQTT:
		n, err := alert.NewMQTTNotifier(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopic)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("mqtt notifier enabled", "broker", cfg.MQTTBroker, "topic", cfg.MQTTTopic)
		return n, n.Close, nil
	default:
		logger.Info("log notifier enabled")
		return alert.NewLogNotifier(logger), func() {}, nil
	}
}

func buildCooldown(cfg *config.Config, logger *slog.Logger) alert.Cooldown {
	if cfg.AlertCooldown <= 0 {
		return nil
	}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		logger.Info("redis alert cooldown enabled", "addr", cfg.RedisAddr, "window", cfg.AlertCooldown)
		return alert.NewRedisCooldown(client, cfg.AlertCooldown)
	}
	logger.Info("in-memory alert cooldown enabled", "window", cfg.AlertCooldown)
	return alert.NewMemoryCooldown(cfg.AlertCooldown)
}
