package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"artfeed/internal/observability"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{
				Env:        tt.env,
				DBSSLMode:  tt.sslMode,
				JWTSecret:  "secure-secret-at-least-32-chars-long",
				DBPassword: "secure-password",
				Port:       "8080",
			}

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateProductionSecrets(t *testing.T) {
	base := Config{
		Env:        "production",
		Port:       "8080",
		DBSSLMode:  "require",
		DBPassword: "secure-password",
	}

	c := base
	c.JWTSecret = defaultJWTSecret
	assert.Error(t, c.Validate())

	c.JWTSecret = "short"
	assert.Error(t, c.Validate())

	c.JWTSecret = "secure-secret-at-least-32-chars-long"
	c.DBPassword = "password"
	assert.Error(t, c.Validate())
}

func TestConfig_ValidateDriverAndRatio(t *testing.T) {
	c := &Config{Port: "1", JWTSecret: "x", DBDriver: "mysql"}
	assert.Error(t, c.Validate())

	c.DBDriver = "sqlite"
	c.TracingSampleRatio = 1.5
	assert.Error(t, c.Validate())

	c.TracingSampleRatio = 0.25
	assert.NoError(t, c.Validate())
}

func TestConfig_ScraperDurations(t *testing.T) {
	c := &Config{}
	assert.Equal(t, 10*time.Second, c.ScraperTimeout())
	assert.Equal(t, time.Duration(0), c.ScraperRetryBackoff())

	c.ScraperTimeoutSeconds = 3
	c.ScraperRetryBackoffMS = 250
	assert.Equal(t, 3*time.Second, c.ScraperTimeout())
	assert.Equal(t, 250*time.Millisecond, c.ScraperRetryBackoff())
}

func TestLoadConfig_EnvOverridesAndNormalization(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("DB_SSLMODE")
	defer os.Unsetenv("SCRAPER_TIMEOUT_SECONDS")
	defer viper.Reset()

	os.Setenv("APP_ENV", "development")
	os.Setenv("DB_SSLMODE", "  DISABLE  ")
	os.Setenv("SCRAPER_TIMEOUT_SECONDS", "4")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, 4, c.ScraperTimeoutSeconds)
	assert.Equal(t, "https://live.staticflickr.com/", c.ScraperImagePrefix)
	assert.Equal(t, "postgres", c.DBDriver)
}

func TestLoadConfig_ProfileFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.staging.yml"),
		[]byte("SCRAPER_USER_AGENT: staging-agent\n"), 0o600))
	chdirForTest(t, dir)
	t.Setenv("APP_ENV", "staging")
	defer viper.Reset()

	core, logs := observer.New(zapcore.InfoLevel)
	prev := observability.Logger
	observability.Logger = zap.New(core)
	defer func() { observability.Logger = prev }()

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "staging-agent", c.ScraperUserAgent)

	entries := logs.FilterMessage("loaded profile-specific configuration").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "config.staging.yml", entries[0].ContextMap()["file"])
}

func TestLoadConfig_MissingProfileFile(t *testing.T) {
	chdirForTest(t, t.TempDir())
	t.Setenv("APP_ENV", "qa")
	defer viper.Reset()

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "config.qa.yml")
}

// chdirForTest changes the working directory for the duration of the test,
// matching testing.T.Chdir on toolchains that predate it.
func chdirForTest(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
