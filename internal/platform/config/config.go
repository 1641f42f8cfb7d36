package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	EnvPrefix  = "APPRAISAL_"
	FileEnvVar = "APPRAISAL_CONFIG"
)

type Config struct {
	Addr                   string        `koanf:"addr"`
	DatabaseURL            string        `koanf:"database_url"`
	JWTSecret              string        `koanf:"jwt_secret"`
	TokenTTL               time.Duration `koanf:"token_ttl"`
	Environment            string        `koanf:"environment"`
	SeedOrgName            string        `koanf:"seed_org_name"`
	SeedAdminEmail         string        `koanf:"seed_admin_email"`
	SeedAdminPassword      string        `koanf:"seed_admin_password"`
	SeedSuperAdminEmail    string        `koanf:"seed_super_admin_email"`
	SeedSuperAdminPassword string        `koanf:"seed_super_admin_password"`
	RunMigrations          bool          `koanf:"run_migrations"`
	RunSeed                bool          `koanf:"run_seed"`
	MigrationsDir          string        `koanf:"migrations_dir"`
	MaxBodyBytes           int64         `koanf:"max_body_bytes"`
	RateLimitPerMinute     int           `koanf:"rate_limit_per_minute"`
	RedisURL               string        `koanf:"redis_url"`
	CacheTTL               time.Duration `koanf:"cache_ttl"`
	MetricsEnabled         bool          `koanf:"metrics_enabled"`
	ReminderSchedule       string        `koanf:"reminder_schedule"`
	ReminderWindow         time.Duration `koanf:"reminder_window"`
}

// New returns the defaults every loaded configuration starts from.
func New() *Config {
	return &Config{
		Addr:               ":8080",
		TokenTTL:           8 * time.Hour,
		Environment:        "development",
		SeedOrgName:        "Default Organization",
		RunMigrations:      true,
		RunSeed:            true,
		MigrationsDir:      "migrations",
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 120,
		CacheTTL:           5 * time.Minute,
		MetricsEnabled:     true,
		ReminderSchedule:   "0 8 * * *",
		ReminderWindow:     72 * time.Hour,
	}
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("database_url is required")
	}
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if c.IsProduction() {
		if len(strings.TrimSpace(c.JWTSecret)) < 32 {
			return fmt.Errorf("jwt_secret must be at least 32 characters in production")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("seed_admin_password must be set or run_seed disabled in production")
		}
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token_ttl must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("max_body_bytes must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("rate_limit_per_minute must be positive")
	}
	if c.ReminderSchedule != "" {
		if _, err := cron.ParseStandard(c.ReminderSchedule); err != nil {
			return fmt.Errorf("reminder_schedule is invalid: %w", err)
		}
	}
	if c.ReminderWindow < 0 {
		return fmt.Errorf("reminder_window must not be negative")
	}
	return nil
}
