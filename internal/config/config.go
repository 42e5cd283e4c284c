package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env  string
	Port string

	// Database
	DatabaseURL string

	// JWT
	JWTSecret string
	JWTExpiry time.Duration

	// CORS
	FrontendURL string

	// Storage
	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseBucket     string
	StorageFolder      string
	SignedURLTTL       time.Duration
	MaxFileSize        int64
	AllowedFileTypes   []string

	// Rate limiting, per client IP
	RateLimitRPS   float64
	RateLimitBurst int

	// Automation hand-off. Empty brokers means rules are only logged.
	KafkaBrokers    []string
	AutomationTopic string

	SentryDSN string
	LogLevel  string

	// Bootstrap admin (cmd/createadmin)
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

func Load() *Config {
	return &Config{
		Env:  getEnv("APP_ENV", "development"),
		Port: getEnv("PORT", "8080"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTExpiry: parseDuration(getEnv("JWT_EXPIRY", "168h"), 168*time.Hour),

		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseBucket:     getEnv("SUPABASE_BUCKET", "case-files"),
		StorageFolder:      getEnv("STORAGE_FOLDER", "glojourn/documents"),
		SignedURLTTL:       parseDuration(getEnv("SIGNED_URL_TTL", "15m"), 15*time.Minute),
		MaxFileSize:        parseInt64(getEnv("MAX_FILE_SIZE", "5242880"), 5<<20),
		AllowedFileTypes:   splitList(getEnv("ALLOWED_FILE_TYPES", "image/jpeg,image/png,image/gif,application/pdf")),

		RateLimitRPS:   parseFloat(getEnv("RATE_LIMIT_RPS", "10"), 10),
		RateLimitBurst: int(parseInt64(getEnv("RATE_LIMIT_BURST", "20"), 20)),

		KafkaBrokers:    splitList(getEnv("KAFKA_BROKERS", "")),
		AutomationTopic: getEnv("AUTOMATION_TOPIC", "case-automation"),

		SentryDSN: getEnv("SENTRY_DSN", ""),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "Administrator"),
	}
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt64(s string, fallback int64) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseFloat(s string, fallback float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
