package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := *New()
	cfg.DatabaseURL = "postgres://localhost/appraisal"
	cfg.JWTSecret = "test-secret"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults with database and secret", mutate: func(c *Config) {}},
		{name: "missing database url", mutate: func(c *Config) { c.DatabaseURL = "" }, wantErr: true},
		{name: "missing jwt secret", mutate: func(c *Config) { c.JWTSecret = " " }, wantErr: true},
		{name: "short secret in production", mutate: func(c *Config) {
			c.Environment = "production"
			c.SeedAdminPassword = "Password123"
		}, wantErr: true},
		{name: "production seed without password", mutate: func(c *Config) {
			c.Environment = "production"
			c.JWTSecret = "0123456789abcdef0123456789abcdef"
		}, wantErr: true},
		{name: "production without seed", mutate: func(c *Config) {
			c.Environment = "production"
			c.JWTSecret = "0123456789abcdef0123456789abcdef"
			c.RunSeed = false
		}},
		{name: "body limit too small", mutate: func(c *Config) { c.MaxBodyBytes = 10 }, wantErr: true},
		{name: "zero rate limit", mutate: func(c *Config) { c.RateLimitPerMinute = 0 }, wantErr: true},
		{name: "bad cron expression", mutate: func(c *Config) { c.ReminderSchedule = "every day" }, wantErr: true},
		{name: "reminders disabled", mutate: func(c *Config) { c.ReminderSchedule = "" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestLoadLayersFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "appraisal.yaml")
	content := "addr: \":9090\"\ndatabase_url: postgres://file/appraisal\ncache_ttl: 30s\nrate_limit_per_minute: 10\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv(FileEnvVar, path)
	t.Setenv("APPRAISAL_DATABASE_URL", "postgres://env/appraisal")
	t.Setenv("APPRAISAL_JWT_SECRET", "from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Fatalf("expected addr from file, got %q", cfg.Addr)
	}
	if cfg.DatabaseURL != "postgres://env/appraisal" {
		t.Fatalf("expected env to override file, got %q", cfg.DatabaseURL)
	}
	if cfg.JWTSecret != "from-env" {
		t.Fatalf("expected jwt secret from env, got %q", cfg.JWTSecret)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Fatalf("expected cache ttl 30s, got %v", cfg.CacheTTL)
	}
	if cfg.RateLimitPerMinute != 10 {
		t.Fatalf("expected rate limit 10, got %d", cfg.RateLimitPerMinute)
	}
	if cfg.TokenTTL != 8*time.Hour {
		t.Fatalf("expected default token ttl to survive, got %v", cfg.TokenTTL)
	}
}
