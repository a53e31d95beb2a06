package config

import (
	"os"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
	if cfg.CacheMaxEntries != 0 {
		t.Errorf("CacheMaxEntries = %d, want 0", cfg.CacheMaxEntries)
	}
	if cfg.InvalidationKafkaTopic != "planhub-invalidation" {
		t.Errorf("InvalidationKafkaTopic = %q, want default", cfg.InvalidationKafkaTopic)
	}
	if cfg.OTLPInsecure {
		t.Error("OTLPInsecure should default to false")
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("DATABASE_URL", "postgres://localhost/planhub")
	os.Setenv("CACHE_MAX_ENTRIES", "512")
	os.Setenv("INVALIDATION_KAFKA_BROKERS", "localhost:9092")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DatabaseURL != "postgres://localhost/planhub" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.CacheMaxEntries != 512 {
		t.Errorf("CacheMaxEntries = %d, want 512", cfg.CacheMaxEntries)
	}
}

func TestLoad_NegativeCacheSize(t *testing.T) {
	os.Clearenv()
	os.Setenv("CACHE_MAX_ENTRIES", "-1")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load should reject negative CACHE_MAX_ENTRIES")
	}
}

func TestLoad_BrokersWithoutTopic(t *testing.T) {
	os.Clearenv()
	os.Setenv("INVALIDATION_KAFKA_BROKERS", "localhost:9092")
	os.Setenv("INVALIDATION_KAFKA_TOPIC", "")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load should reject brokers without a topic")
	}
}

func TestInvalidationKafkaBrokersList(t *testing.T) {
	cfg := &Config{InvalidationKafkaBrokers: " a:9092 , ,b:9092"}
	got := cfg.InvalidationKafkaBrokersList()
	if len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Errorf("brokers = %v", got)
	}

	var nilCfg *Config
	if nilCfg.InvalidationKafkaBrokersList() != nil {
		t.Error("nil config should return nil brokers")
	}
	if (&Config{}).InvalidationKafkaBrokersList() != nil {
		t.Error("empty brokers should return nil")
	}
}
