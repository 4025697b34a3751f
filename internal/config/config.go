// Package config loads all service settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/water-quality-monitor/internal/domain"
)

// Notifier kinds selectable via the NOTIFIER variable.
const (
	NotifierLog     = "log"
	NotifierWebhook = "webhook"
	NotifierMQTT    = "mqtt"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Persistence. An empty DatabaseURL selects the in-memory stores, which
	// do not survive a restart; production deployments set it.
	DatabaseURL      string
	DatabaseMaxConns int

	// Kafka ingestion of probe readings.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	// Alerting.
	Notifier         string
	WebhookURL       string
	MQTTBroker       string
	MQTTTopic        string
	MQTTClientID     string
	NotifyTimeout    time.Duration
	AlertMinSeverity domain.Severity
	AlertQueueSize   int
	AlertCooldown    time.Duration // 0 disables the cooldown
	RedisAddr        string        // empty → in-process cooldown state

	// Mapbox geocoding of free-text place names.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := envDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	notifyTimeout, err := envDuration("NOTIFY_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	alertCooldown, err := envDuration("ALERT_COOLDOWN", 0)
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := envDuration("MAPBOX_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	minSeverity, err := domain.ParseSeverity(envOrDefault("ALERT_MIN_SEVERITY", "HIGH"))
	if err != nil {
		return nil, fmt.Errorf("invalid ALERT_MIN_SEVERITY: %w", err)
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DatabaseMaxConns: envInt("DATABASE_MAX_CONNS", 10),

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   envOrDefault("KAFKA_SOURCE_TOPIC", "water-quality-readings"),
		KafkaGroupID: envOrDefault("KAFKA_GROUP_ID", "water-quality-monitor"),

		Notifier:         envOrDefault("NOTIFIER", NotifierLog),
		WebhookURL:       os.Getenv("WEBHOOK_URL"),
		MQTTBroker:       os.Getenv("MQTT_BROKER"),
		MQTTTopic:        envOrDefault("MQTT_TOPIC", "water-quality/alerts"),
		MQTTClientID:     envOrDefault("MQTT_CLIENT_ID", "water-quality-monitor"),
		NotifyTimeout:    notifyTimeout,
		AlertMinSeverity: minSeverity,
		AlertQueueSize:   envInt("ALERT_QUEUE_SIZE", 64),
		AlertCooldown:    alertCooldown,
		RedisAddr:        os.Getenv("REDIS_ADDR"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: envInt("MAPBOX_CACHE_SIZE", 1000),
	}

	switch cfg.Notifier {
	case NotifierLog:
	case NotifierWebhook:
		if cfg.WebhookURL == "" {
			return nil, errors.New("NOTIFIER is webhook but WEBHOOK_URL is not set")
		}
	case NotifierMQTT:
		if cfg.MQTTBroker == "" {
			return nil, errors.New("NOTIFIER is mqtt but MQTT_BROKER is not set")
		}
	default:
		return nil, fmt.Errorf("unknown NOTIFIER %q", cfg.Notifier)
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_SOURCE_TOPIC is empty")
		}
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func envInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func parseBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
