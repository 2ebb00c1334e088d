package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("RESUME_MAX_BYTES", "")
	t.Setenv("JWT_EXPIRY", "")

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.ResumeMaxBytes != 5<<20 {
		t.Errorf("ResumeMaxBytes = %d, want %d", cfg.ResumeMaxBytes, 5<<20)
	}
	if cfg.JWTExpiry != 24*time.Hour {
		t.Errorf("JWTExpiry = %v, want 24h", cfg.JWTExpiry)
	}
	if cfg.FeaturedJobsLimit != 6 {
		t.Errorf("FeaturedJobsLimit = %d, want 6", cfg.FeaturedJobsLimit)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("RESUME_MAX_BYTES", "2097152")
	t.Setenv("JWT_EXPIRY", "90m")
	t.Setenv("AUTO_MIGRATE", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173, https://jobs.example.com,")
	t.Setenv("RATE_LIMIT_RPS", "0.5")

	cfg := Load()

	if cfg.ResumeMaxBytes != 2<<20 {
		t.Errorf("ResumeMaxBytes = %d, want %d", cfg.ResumeMaxBytes, 2<<20)
	}
	if cfg.JWTExpiry != 90*time.Minute {
		t.Errorf("JWTExpiry = %v, want 90m", cfg.JWTExpiry)
	}
	if !cfg.AutoMigrate {
		t.Error("AutoMigrate = false, want true")
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://jobs.example.com" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.RateLimitRPS != 0.5 {
		t.Errorf("RateLimitRPS = %v, want 0.5", cfg.RateLimitRPS)
	}
}

func TestLoadMalformedFallsBack(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("FEATURED_JOBS_LIMIT", "lots")
	t.Setenv("NOTIFY_TIMEOUT", "soon")

	cfg := Load()

	if cfg.FeaturedJobsLimit != 6 {
		t.Errorf("FeaturedJobsLimit = %d, want fallback 6", cfg.FeaturedJobsLimit)
	}
	if cfg.NotifyTimeout != 30*time.Second {
		t.Errorf("NotifyTimeout = %v, want fallback 30s", cfg.NotifyTimeout)
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := (Config{LogLevel: tt.in}).SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
