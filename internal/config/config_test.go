package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:               "8375",
		Env:                "development",
		JWTSecret:          "secure-secret-at-least-32-chars-long",
		DBPath:             "peertutor.db",
		DBPassword:         "secure-password",
		SnapshotInterval:   time.Minute,
		HandoffTTL:         time.Minute,
		OTPTTL:             time.Minute,
		TracingSampleRatio: 1,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"valid defaults", func(*Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"sqlite without path", func(c *Config) { c.DBDriver = "sqlite"; c.DBPath = "" }, true},
		{"sqlite with path", func(c *Config) { c.DBDriver = "sqlite" }, false},
		{"zero snapshot interval with db", func(c *Config) { c.DBDriver = "sqlite"; c.SnapshotInterval = 0 }, true},
		{"zero otp ttl", func(c *Config) { c.OTPTTL = 0 }, true},
		{"sample ratio too high", func(c *Config) { c.TracingSampleRatio = 1.5 }, true},
		{"production default secret", func(c *Config) { c.Env = "production"; c.JWTSecret = defaultJWTSecret }, true},
		{"production short secret", func(c *Config) { c.Env = "prod"; c.JWTSecret = "short" }, true},
		{"production postgres without tls", func(c *Config) {
			c.Env = "production"
			c.DBDriver = "postgres"
			c.DBSSLMode = "disable"
		}, true},
		{"production postgres with tls", func(c *Config) {
			c.Env = "production"
			c.DBDriver = "postgres"
			c.DBSSLMode = "require"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "test")
	t.Setenv("PORT", "9999")
	t.Setenv("DB_DRIVER", "  SQLite ")
	t.Setenv("HANDOFF_TTL", "2m")
	t.Setenv("FEATURE_FLAGS", "search_mode_filter=on")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9999", c.Port)
	assert.Equal(t, "test", c.Env)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, 2*time.Minute, c.HandoffTTL)
	assert.Equal(t, 10*time.Minute, c.OTPTTL)
	assert.Equal(t, "search_mode_filter=on", c.FeatureFlags)
	assert.False(t, c.MailEnabled())
	assert.False(t, c.IsProduction())
}
