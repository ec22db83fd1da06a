// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"artfeed/internal/observability"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`
	DBPath     string `mapstructure:"DB_PATH"`

	RedisURL string `mapstructure:"REDIS_URL"`

	LogLevel      string `mapstructure:"LOG_LEVEL"`
	LogPath       string `mapstructure:"LOG_PATH"`
	LogMaxSizeMB  int    `mapstructure:"LOG_MAX_SIZE_MB"`
	LogMaxBackups int    `mapstructure:"LOG_MAX_BACKUPS"`
	LogMaxAgeDays int    `mapstructure:"LOG_MAX_AGE_DAYS"`
	LogCompress   bool   `mapstructure:"LOG_COMPRESS"`

	TracingEnabled     bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter    string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint       string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampleRatio float64 `mapstructure:"TRACING_SAMPLE_RATIO"`

	ScraperTimeoutSeconds int    `mapstructure:"SCRAPER_TIMEOUT_SECONDS"`
	ScraperRetryBackoffMS int    `mapstructure:"SCRAPER_RETRY_BACKOFF_MS"`
	ScraperUserAgent      string `mapstructure:"SCRAPER_USER_AGENT"`
	ScraperImagePrefix    string `mapstructure:"SCRAPER_IMAGE_PREFIX"`
	ScraperAllowPrivate   bool   `mapstructure:"SCRAPER_ALLOW_PRIVATE_NETWORKS"`

	MediaRoot         string `mapstructure:"MEDIA_ROOT"`
	AvatarMaxUploadMB int    `mapstructure:"AVATAR_MAX_UPLOAD_MB"`
}

// LoadConfig loads application configuration from .env, config files and environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		observability.Logger.Info("loaded profile-specific configuration", zap.String("file", "config."+env+".yml"))
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("PORT", "8375")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")

	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "artfeed")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_PATH", "artfeed.db")

	viper.SetDefault("REDIS_URL", "localhost:6379")

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_PATH", "")
	viper.SetDefault("LOG_MAX_SIZE_MB", 100)
	viper.SetDefault("LOG_MAX_BACKUPS", 3)
	viper.SetDefault("LOG_MAX_AGE_DAYS", 7)
	viper.SetDefault("LOG_COMPRESS", false)

	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLE_RATIO", 1.0)

	viper.SetDefault("SCRAPER_TIMEOUT_SECONDS", 10)
	viper.SetDefault("SCRAPER_RETRY_BACKOFF_MS", 500)
	viper.SetDefault("SCRAPER_USER_AGENT", "artfeed/1.0 (+https://github.com/artfeed)")
	viper.SetDefault("SCRAPER_IMAGE_PREFIX", "https://live.staticflickr.com/")
	viper.SetDefault("SCRAPER_ALLOW_PRIVATE_NETWORKS", false)

	viper.SetDefault("MEDIA_ROOT", "./media")
	viper.SetDefault("AVATAR_MAX_UPLOAD_MB", 5)
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
}

// IsProduction reports whether the app runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// ScraperTimeout is the per-attempt deadline for fetching a photo page.
func (c *Config) ScraperTimeout() time.Duration {
	if c.ScraperTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.ScraperTimeoutSeconds) * time.Second
}

// ScraperRetryBackoff is the pause before the single retry.
func (c *Config) ScraperRetryBackoff() time.Duration {
	if c.ScraperRetryBackoffMS < 0 {
		return 0
	}
	return time.Duration(c.ScraperRetryBackoffMS) * time.Millisecond
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.DBDriver {
	case "", "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver)
	}
	if c.AvatarMaxUploadMB < 0 {
		return errors.New("AVATAR_MAX_UPLOAD_MB must not be negative")
	}
	if c.TracingSampleRatio < 0 || c.TracingSampleRatio > 1 {
		return errors.New("TRACING_SAMPLE_RATIO must be between 0 and 1")
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			return errors.New("DB_SSLMODE must enable TLS in production")
		}
		if c.AllowedOrigins == "*" {
			observability.Logger.Warn("ALLOWED_ORIGINS is '*' in production")
		}
	} else if len(c.JWTSecret) < 32 {
		observability.Logger.Warn("JWT_SECRET is shorter than 32 characters")
	}

	return nil
}
