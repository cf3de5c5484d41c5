// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	StorageDriver string `mapstructure:"STORAGE_DRIVER"`

	DBHost                   string `mapstructure:"DB_HOST"`
	DBPort                   string `mapstructure:"DB_PORT"`
	DBUser                   string `mapstructure:"DB_USER"`
	DBPassword               string `mapstructure:"DB_PASSWORD"`
	DBName                   string `mapstructure:"DB_NAME"`
	DBSSLMode                string `mapstructure:"DB_SSLMODE"`
	DBMaxOpenConns           int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns           int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetimeMinutes int    `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`
	DBAutoMigrate            bool   `mapstructure:"DB_AUTO_MIGRATE"`
	SQLitePath               string `mapstructure:"SQLITE_PATH"`

	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	RedisURL string `mapstructure:"REDIS_URL"`

	OCMBaseURL string `mapstructure:"OCM_BASE_URL"`
	OCMAPIKey  string `mapstructure:"OCM_API_KEY"`

	TracingEnabled      bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter     string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint        string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSamplerRatio float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// DefaultAllowedOrigins are the local frontends allowed when ALLOWED_ORIGINS
// is unset.
const DefaultAllowedOrigins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"

// defaults double as the list of keys viper binds to environment variables.
var defaults = map[string]interface{}{
	"PORT":                         "8375",
	"APP_ENV":                      "development",
	"JWT_SECRET":                   defaultJWTSecret,
	"ALLOWED_ORIGINS":              DefaultAllowedOrigins,
	"STORAGE_DRIVER":               DriverMemory,
	"DB_HOST":                      "localhost",
	"DB_PORT":                      "5432",
	"DB_USER":                      "user",
	"DB_PASSWORD":                  "password",
	"DB_NAME":                      "evcircle",
	"DB_SSLMODE":                   "disable",
	"DB_MAX_OPEN_CONNS":            25,
	"DB_MAX_IDLE_CONNS":            5,
	"DB_CONN_MAX_LIFETIME_MINUTES": 5,
	"DB_AUTO_MIGRATE":              true,
	"SQLITE_PATH":                  "evcircle.db",
	"MONGO_URI":                    "mongodb://localhost:27017",
	"MONGO_DATABASE":               "evcircle",
	"REDIS_URL":                    "localhost:6379",
	"OCM_BASE_URL":                 "https://api.openchargemap.io/v3",
	"OCM_API_KEY":                  "",
	"TRACING_ENABLED":              false,
	"TRACING_EXPORTER":             "stdout",
	"OTLP_ENDPOINT":                "localhost:4318",
	"TRACING_SAMPLER_RATIO":        1.0,
}

// LoadConfig reads config.yml, merges config.<APP_ENV>.yml for every profile
// other than development and test, and lets environment variables override
// both.
func LoadConfig() (*Config, error) {
	v := viper.New()
	for _, dir := range []string{".", "..", "../.."} {
		v.AddConfigPath(dir)
	}
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	// The base file is optional.
	_ = v.ReadInConfig()

	env := strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV")))
	if env != "development" && env != "test" {
		v.SetConfigName("config." + env)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		slog.Info("loaded profile configuration", "file", "config."+env+".yml")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	for _, f := range []*string{&c.Env, &c.StorageDriver, &c.DBSSLMode, &c.TracingExporter} {
		*f = strings.ToLower(strings.TrimSpace(*f))
	}
}

// IsProduction reports whether the app runs with production rules.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate reports every problem with c at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.StorageDriver {
	case DriverMemory, DriverPostgres, DriverSQLite:
	case DriverMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for the mongo storage driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver))
	}
	if c.TracingSamplerRatio < 0 || c.TracingSamplerRatio > 1 {
		errs = append(errs, errors.New("TRACING_SAMPLER_RATIO must be between 0 and 1"))
	}

	if c.IsProduction() {
		errs = append(errs, c.productionProblems()...)
	} else if len(c.JWTSecret) < 32 {
		slog.Warn("JWT_SECRET is shorter than 32 characters; use a stronger secret in production")
	}
	return errors.Join(errs...)
}

// AllowsAnyOrigin reports whether ALLOWED_ORIGINS contains the wildcard.
func (c *Config) AllowsAnyOrigin() bool {
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if strings.TrimSpace(origin) == "*" {
			return true
		}
	}
	return false
}

func (c *Config) productionProblems() []error {
	var errs []error
	switch {
	case c.JWTSecret == defaultJWTSecret:
		errs = append(errs, errors.New("JWT_SECRET must be changed from the default value in production"))
	case len(c.JWTSecret) < 32:
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters in production"))
	}
	if c.StorageDriver == DriverMemory {
		errs = append(errs, errors.New("STORAGE_DRIVER=memory is not allowed in production"))
	}
	if c.StorageDriver == DriverPostgres {
		if c.DBPassword == "password" || c.DBPassword == "" {
			errs = append(errs, errors.New("a strong DB_PASSWORD is required in production"))
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			errs = append(errs, errors.New("DB_SSLMODE must enable TLS in production"))
		}
	}
	if c.AllowsAnyOrigin() {
		errs = append(errs, errors.New("ALLOWED_ORIGINS must list explicit origins in production, not '*'"))
	}
	return errs
}
