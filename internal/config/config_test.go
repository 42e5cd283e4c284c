package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MAX_FILE_SIZE", "")
	t.Setenv("SIGNED_URL_TTL", "")
	t.Setenv("ALLOWED_FILE_TYPES", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg := Load()
	if cfg.MaxFileSize != 5<<20 {
		t.Errorf("Expected 5MB, got %d", cfg.MaxFileSize)
	}
	if cfg.SignedURLTTL != 15*time.Minute {
		t.Errorf("Expected 15m, got %s", cfg.SignedURLTTL)
	}
	if len(cfg.AllowedFileTypes) != 4 {
		t.Errorf("Expected 4 allowed types, got %v", cfg.AllowedFileTypes)
	}
	if cfg.KafkaBrokers != nil {
		t.Errorf("Expected no brokers, got %v", cfg.KafkaBrokers)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("JWT_EXPIRY", "1h")
	t.Setenv("MAX_FILE_SIZE", "garbage")

	cfg := Load()
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.JWTExpiry != time.Hour {
		t.Errorf("Expected 1h, got %s", cfg.JWTExpiry)
	}
	if cfg.MaxFileSize != 5<<20 {
		t.Errorf("Expected fallback size, got %d", cfg.MaxFileSize)
	}
}

func TestValidate_RequiresSecrets(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for empty config")
	}
	cfg.DatabaseURL, cfg.JWTSecret = "postgres://x", "s"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
