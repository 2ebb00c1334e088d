package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultJWTSecret = "dev-secret-change-in-production"

type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseDriver string
	DatabaseDSN    string
	AutoMigrate    bool

	JWTSecret string
	JWTExpiry time.Duration

	UploadDir         string
	ResumeMaxBytes    int64
	FeaturedJobsLimit int

	RateLimitRPS   float64
	RateLimitBurst int
	CORSOrigins    []string

	NotifyEnabled   bool
	NotifyFrom      string
	NotifyQueueSize int
	NotifyWorkers   int
	NotifyTimeout   time.Duration

	GmailCredentialsFile string
	GmailTokenFile       string
}

func Load() Config {
	cfg := Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseDriver: getEnv("DATABASE_DRIVER", "mysql"),
		DatabaseDSN:    getEnv("DATABASE_DSN", "root:password@tcp(127.0.0.1:3306)/jobboard?parseTime=true"),
		AutoMigrate:    getEnvBool("AUTO_MIGRATE", false),

		JWTSecret: getEnv("JWT_SECRET", defaultJWTSecret),
		JWTExpiry: getEnvDuration("JWT_EXPIRY", 24*time.Hour),

		UploadDir:         getEnv("UPLOAD_DIR", "uploads"),
		ResumeMaxBytes:    getEnvInt64("RESUME_MAX_BYTES", 5<<20),
		FeaturedJobsLimit: getEnvInt("FEATURED_JOBS_LIMIT", 6),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 10),
		CORSOrigins:    getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		NotifyEnabled:   getEnvBool("NOTIFY_ENABLED", false),
		NotifyFrom:      getEnv("NOTIFY_FROM", "Job Board <noreply@jobboard.local>"),
		NotifyQueueSize: getEnvInt("NOTIFY_QUEUE_SIZE", 100),
		NotifyWorkers:   getEnvInt("NOTIFY_WORKERS", 2),
		NotifyTimeout:   getEnvDuration("NOTIFY_TIMEOUT", 30*time.Second),

		GmailCredentialsFile: getEnv("GMAIL_CREDENTIALS_FILE", ""),
		GmailTokenFile:       getEnv("GMAIL_TOKEN_FILE", ""),
	}

	if cfg.IsProduction() && cfg.JWTSecret == defaultJWTSecret {
		slog.Error("JWT_SECRET must be set in production environment")
		os.Exit(1)
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// SlogLevel maps LOG_LEVEL to a slog level; unknown values fall back to info.
func (c Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		slog.Warn("ignoring malformed integer env var", "key", key, "value", v)
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
		slog.Warn("ignoring malformed integer env var", "key", key, "value", v)
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		slog.Warn("ignoring malformed float env var", "key", key, "value", v)
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		slog.Warn("ignoring malformed boolean env var", "key", key, "value", v)
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		slog.Warn("ignoring malformed duration env var", "key", key, "value", v)
	}
	return fallback
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
