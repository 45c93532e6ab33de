package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the process configuration, read from the environment.
type Config struct {
	HTTPAddr     string
	DatabaseURL  string   // empty means the in-memory store
	KafkaBrokers []string // empty means events are disabled
	KafkaTopic   string
	LogLevel     string
}

// Load reads configuration from a .env file (if present) and the
// environment, applying defaults for anything unset.
func Load() (*Config, error) {
	// a missing .env file is fine; real deployments set the environment
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		KafkaTopic:  getEnv("KAFKA_TOPIC", "transaction_completed"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}

	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
