package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr          string
	PostgresDSN       string
	KafkaBrokers      []string
	KafkaConsumeTopic string
	KafkaPublishTopic string
	SettlementDelay   time.Duration
	ProcessorWorkers  int
	ProcessorQueue    int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Warn("failed to load .env file, using default values", "error", err)
	}

	cfg := &Config{
		HTTPAddr:          os.Getenv("HTTP_ADDR"),
		PostgresDSN:       os.Getenv("POSTGRES_DSN"),
		KafkaConsumeTopic: os.Getenv("KAFKA_CONSUME_TOPIC"),
		KafkaPublishTopic: os.Getenv("KAFKA_PUBLISH_TOPIC"),
		SettlementDelay:   durationEnv("SETTLEMENT_DELAY", 30*time.Second),
		ProcessorWorkers:  intEnv("PROCESSOR_WORKERS", 4),
		ProcessorQueue:    intEnv("PROCESSOR_QUEUE_SIZE", 256),
	}

	if broker := os.Getenv("KAFKA_BROKER"); broker != "" {
		cfg.KafkaBrokers = []string{broker}
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.KafkaConsumeTopic == "" {
		cfg.KafkaConsumeTopic = "transactions.webhook"
	}
	if cfg.KafkaPublishTopic == "" {
		cfg.KafkaPublishTopic = "transactions.processed"
	}

	slog.Info("config loaded",
		"http_addr", cfg.HTTPAddr,
		"kafka_brokers", cfg.KafkaBrokers,
		"settlement_delay", cfg.SettlementDelay,
		"processor_workers", cfg.ProcessorWorkers)
	return cfg
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("invalid duration env var, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return d
}

func intEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("invalid integer env var, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return n
}
