package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr          string
	MongoURI          string
	MongoDatabase     string
	LogLevel          string
	LogFormat         string
	ShutdownTimeout   time.Duration
	DeleteBatchSize   int
	CORSAllowedOrigin string

	// Optional ingest-event publishing.
	KafkaBrokers     []string
	KafkaIngestTopic string
	KafkaEnabled     bool
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	batchSize, err := parseDeleteBatchSize()
	if err != nil {
		return nil, err
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:          envOrDefault("HTTP_ADDR", ":8080"),
		MongoURI:          envOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:     envOrDefault("MONGO_DATABASE", "hazemap"),
		LogLevel:          envOrDefault("LOG_LEVEL", "info"),
		LogFormat:         envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:   shutdownTimeout,
		DeleteBatchSize:   batchSize,
		CORSAllowedOrigin: envOrDefault("CORS_ALLOWED_ORIGIN", "*"),

		KafkaBrokers:     brokers,
		KafkaIngestTopic: envOrDefault("KAFKA_INGEST_TOPIC", "hazemap-ingest"),
		KafkaEnabled:     kafkaEnabled,
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	s := envOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

// parseDeleteBatchSize bounds the bulk-erase page size. Tiny pages make the
// erase loop pathological and very large $in batches stress the store, so the
// range is enforced at load time.
func parseDeleteBatchSize() (int, error) {
	s := envOrDefault("DELETE_BATCH_SIZE", "300")
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 1000 {
		return 0, fmt.Errorf("invalid DELETE_BATCH_SIZE: %q (want 1-1000)", s)
	}
	return n, nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
