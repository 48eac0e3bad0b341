// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultSessionSecret    = "change-me-session-secret"
	defaultSiteGatePassword = "change-me"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port    string `mapstructure:"PORT"`
	Env     string `mapstructure:"APP_ENV"`
	BaseURL string `mapstructure:"BASE_URL"`

	DBHost                        string `mapstructure:"DB_HOST"`
	DBPort                        string `mapstructure:"DB_PORT"`
	DBUser                        string `mapstructure:"DB_USER"`
	DBPassword                    string `mapstructure:"DB_PASSWORD"`
	DBName                        string `mapstructure:"DB_NAME"`
	DBSSLMode                     string `mapstructure:"DB_SSLMODE"`
	DBSchemaMode                  string `mapstructure:"DB_SCHEMA_MODE"`
	DBAutoMigrateAllowDestructive bool   `mapstructure:"DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE"`
	DBMaxOpenConns                int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns                int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetimeMinutes      int    `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`

	RedisURL string `mapstructure:"REDIS_URL"`

	SessionSecret     string `mapstructure:"SESSION_SECRET"`
	SessionTTLHours   int    `mapstructure:"SESSION_TTL_HOURS"`
	SessionCookieName string `mapstructure:"SESSION_COOKIE_NAME"`

	SiteGateEnabled  bool   `mapstructure:"SITE_GATE_ENABLED"`
	SiteGateUser     string `mapstructure:"SITE_GATE_USER"`
	SiteGatePassword string `mapstructure:"SITE_GATE_PASSWORD"`
	SiteGateRealm    string `mapstructure:"SITE_GATE_REALM"`

	StorageDriver  string `mapstructure:"STORAGE_DRIVER"`
	StorageRoot    string `mapstructure:"STORAGE_ROOT"`
	UploadMaxMB    int    `mapstructure:"UPLOAD_MAX_MB"`
	MinioEndpoint  string `mapstructure:"MINIO_ENDPOINT"`
	MinioAccessKey string `mapstructure:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `mapstructure:"MINIO_SECRET_KEY"`
	MinioBucket    string `mapstructure:"MINIO_BUCKET"`
	MinioUseSSL    bool   `mapstructure:"MINIO_USE_SSL"`

	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	SiteDir        string `mapstructure:"SITE_DIR"`

	TracingEnabled      bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter     string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint        string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSamplerRatio float64 `mapstructure:"TRACING_SAMPLER_RATIO"`

	DevBootstrapAdmin bool   `mapstructure:"DEV_BOOTSTRAP_ADMIN"`
	DevAdminEmail     string `mapstructure:"DEV_ADMIN_EMAIL"`
	DevAdminPassword  string `mapstructure:"DEV_ADMIN_PASSWORD"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	// A local .env is optional; real deployments inject the environment.
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.AddConfigPath("../..")
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()

	// The base config file may not exist.
	_ = v.ReadInConfig()

	env := v.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		v.SetConfigName("config." + env)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.DBSSLMode = strings.ToLower(strings.TrimSpace(config.DBSSLMode))
	config.StorageDriver = strings.ToLower(strings.TrimSpace(config.StorageDriver))

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Every key needs a default so AutomaticEnv can bind it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("BASE_URL", "http://localhost:8080")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "user")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "homestead")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_SCHEMA_MODE", "hybrid")
	v.SetDefault("DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE", false)
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 5)

	v.SetDefault("REDIS_URL", "localhost:6379")

	v.SetDefault("SESSION_SECRET", defaultSessionSecret)
	v.SetDefault("SESSION_TTL_HOURS", 24*30)
	v.SetDefault("SESSION_COOKIE_NAME", "session-token")

	v.SetDefault("SITE_GATE_ENABLED", true)
	v.SetDefault("SITE_GATE_USER", "admin")
	v.SetDefault("SITE_GATE_PASSWORD", defaultSiteGatePassword)
	v.SetDefault("SITE_GATE_REALM", "Protected Area")

	v.SetDefault("STORAGE_DRIVER", "local")
	v.SetDefault("STORAGE_ROOT", "/storage/images")
	v.SetDefault("UPLOAD_MAX_MB", 5)
	v.SetDefault("MINIO_ENDPOINT", "")
	v.SetDefault("MINIO_ACCESS_KEY", "")
	v.SetDefault("MINIO_SECRET_KEY", "")
	v.SetDefault("MINIO_BUCKET", "homestead-images")
	v.SetDefault("MINIO_USE_SSL", false)

	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")
	v.SetDefault("SITE_DIR", "")

	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_EXPORTER", "stdout")
	v.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	v.SetDefault("TRACING_SAMPLER_RATIO", 1.0)

	v.SetDefault("DEV_BOOTSTRAP_ADMIN", false)
	v.SetDefault("DEV_ADMIN_EMAIL", "admin@homestead.local")
	v.SetDefault("DEV_ADMIN_PASSWORD", "")
}

// IsProduction reports whether the app runs with a production profile.
func (c *Config) IsProduction() bool {
	e := strings.ToLower(strings.TrimSpace(c.Env))
	return e == "production" || e == "prod"
}

// SessionTTL returns the lifetime of issued session tokens.
func (c *Config) SessionTTL() time.Duration {
	if c.SessionTTLHours <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// UploadMaxBytes returns the upload size ceiling in bytes.
func (c *Config) UploadMaxBytes() int64 {
	if c.UploadMaxMB <= 0 {
		return 5 << 20
	}
	return int64(c.UploadMaxMB) << 20
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if c.BaseURL == "" {
		return errors.New("BASE_URL is required")
	}

	switch strings.ToLower(c.StorageDriver) {
	case "", "local":
	case "minio":
		if c.MinioEndpoint == "" || c.MinioBucket == "" {
			return errors.New("MINIO_ENDPOINT and MINIO_BUCKET are required when STORAGE_DRIVER=minio")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}

	if c.SiteGateEnabled && (c.SiteGateUser == "" || c.SiteGatePassword == "") {
		return errors.New("SITE_GATE_USER and SITE_GATE_PASSWORD are required when the site gate is enabled")
	}

	if c.IsProduction() {
		if c.SessionSecret == defaultSessionSecret {
			return errors.New("SESSION_SECRET must be changed from the default value in production")
		}
		if len(c.SessionSecret) < 32 {
			return errors.New("SESSION_SECRET must be at least 32 characters in production")
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.SiteGateEnabled && c.SiteGatePassword == defaultSiteGatePassword {
			return errors.New("SITE_GATE_PASSWORD must be changed from the default value in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			return errors.New("DB_SSLMODE must enable SSL in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.SessionSecret) < 32 {
		log.Println("WARNING: SESSION_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
