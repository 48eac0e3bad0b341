package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProductionConfig() *Config {
	return &Config{
		Env:              "production",
		Port:             "8080",
		BaseURL:          "https://homestead.example",
		DBSSLMode:        "require",
		DBPassword:       "secure-password",
		SessionSecret:    "secure-secret-at-least-32-chars-long",
		SiteGateEnabled:  true,
		SiteGateUser:     "admin",
		SiteGatePassword: "pre-launch-password",
		StorageDriver:    "local",
	}
}

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
		{"Prod with disable SSL mode", "prod", "disable", true},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validProductionConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

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
	c := validProductionConfig()
	c.SessionSecret = defaultSessionSecret
	assert.Error(t, c.Validate())

	c = validProductionConfig()
	c.SessionSecret = "short"
	assert.Error(t, c.Validate())

	c = validProductionConfig()
	c.SiteGatePassword = defaultSiteGatePassword
	assert.Error(t, c.Validate())

	c = validProductionConfig()
	c.SiteGateEnabled = false
	c.SiteGatePassword = defaultSiteGatePassword
	assert.NoError(t, c.Validate())
}

func TestConfig_ValidateStorageDriver(t *testing.T) {
	c := validProductionConfig()
	c.StorageDriver = "minio"
	assert.Error(t, c.Validate())

	c.MinioEndpoint = "minio:9000"
	c.MinioBucket = "images"
	assert.NoError(t, c.Validate())

	c.StorageDriver = "ftp"
	assert.Error(t, c.Validate())
}

func TestConfig_Durations(t *testing.T) {
	c := &Config{}
	assert.Equal(t, 30*24*time.Hour, c.SessionTTL())
	assert.Equal(t, int64(5<<20), c.UploadMaxBytes())

	c.SessionTTLHours = 2
	c.UploadMaxMB = 1
	assert.Equal(t, 2*time.Hour, c.SessionTTL())
	assert.Equal(t, int64(1<<20), c.UploadMaxBytes())
}

func TestLoadConfig_EnvOverridesAndNormalization(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("SITE_GATE_USER", "gatekeeper")
	t.Setenv("SESSION_TTL_HOURS", "12")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "gatekeeper", c.SiteGateUser)
	assert.Equal(t, 12*time.Hour, c.SessionTTL())
	assert.Equal(t, "session-token", c.SessionCookieName)
	assert.Equal(t, "Protected Area", c.SiteGateRealm)
}
