// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// DatabaseURL is the Postgres DSN; required for anything that touches the store.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// OTLPEndpoint is the OTLP gRPC endpoint for traces and metrics (e.g. http://localhost:4317). Empty disables export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`
	// CacheMaxEntries bounds the in-process resolution cache. Zero means the package default.
	CacheMaxEntries int `mapstructure:"CACHE_MAX_ENTRIES"`
	// InvalidationKafkaBrokers is a comma-separated list of Kafka broker addresses. Empty disables the Kafka notifier.
	InvalidationKafkaBrokers string `mapstructure:"INVALIDATION_KAFKA_BROKERS"`
	// InvalidationKafkaTopic is the Kafka topic invalidation keys are published to.
	InvalidationKafkaTopic string `mapstructure:"INVALIDATION_KAFKA_TOPIC"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()
	// An env var explicitly set to "" must override the default, not fall
	// back to it; otherwise clearing the topic cannot be caught by validation.
	v.AllowEmptyEnv(true)

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("CACHE_MAX_ENTRIES", 0)
	v.SetDefault("INVALIDATION_KAFKA_BROKERS", "")
	v.SetDefault("INVALIDATION_KAFKA_TOPIC", "planhub-invalidation")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.CacheMaxEntries < 0 {
		return nil, errors.New("config: CACHE_MAX_ENTRIES must not be negative")
	}
	if cfg.InvalidationKafkaBrokers != "" && cfg.InvalidationKafkaTopic == "" {
		return nil, errors.New("config: INVALIDATION_KAFKA_TOPIC must be set when brokers are configured")
	}

	return &cfg, nil
}

// InvalidationKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if the Kafka notifier is enabled (non-empty list) and to create it.
func (c *Config) InvalidationKafkaBrokersList() []string {
	if c == nil || c.InvalidationKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.InvalidationKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
