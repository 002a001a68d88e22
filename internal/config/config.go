// Package config builds the typed configuration for Stocker programs.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dense-analysis/stocker/internal/env"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// DatabaseConfig holds the settings for the relational store.
type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         string
	Name         string
	Username     string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// QuoteConfig holds the settings for the price feed.
type QuoteConfig struct {
	URL      string
	APIKey   string
	Timeout  time.Duration
	Schedule string
}

// RedisConfig holds the settings for the optional quote cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// ClickHouseConfig holds the settings for the ledger analytics mirror.
type ClickHouseConfig struct {
	Host     string
	Port     string
	Name     string
	Username string
	Password string
}

// Config holds all application configuration.
type Config struct {
	Port             string
	SecretKey        string
	SecureCookies    bool
	AllowAdminSignup bool
	BcryptCost       int
	JWTSecret        string
	TokenTTL         time.Duration
	LogLevel         string
	LogFormat        string

	Database   DatabaseConfig
	Quote      QuoteConfig
	Redis      RedisConfig
	ClickHouse ClickHouseConfig
}

var ErrMissingSecretKey = errors.New("no SECRET_KEY variable set")

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	secretKey := os.Getenv("SECRET_KEY")

	cfg := &Config{
		Port:             env.Get("PORT", "8000"),
		SecretKey:        secretKey,
		SecureCookies:    env.GetBool("SECURE_COOKIES", false),
		AllowAdminSignup: env.GetBool("ALLOW_ADMIN_SIGNUP", false),
		BcryptCost:       env.GetInt("BCRYPT_COST", bcrypt.DefaultCost),
		JWTSecret:        env.Get("JWT_SECRET", secretKey),
		TokenTTL:         env.GetDuration("TOKEN_TTL", 24*time.Hour),
		LogLevel:         env.Get("LOG_LEVEL", "info"),
		LogFormat:        env.Get("LOG_FORMAT", "text"),
		Database: DatabaseConfig{
			Driver:       env.Get("DB_DRIVER", "postgres"),
			Host:         env.Get("DB_HOST", "localhost"),
			Port:         env.Get("DB_PORT", "5432"),
			Name:         env.Get("DB_NAME", "stocker"),
			Username:     os.Getenv("DB_USERNAME"),
			Password:     os.Getenv("DB_PASSWORD"),
			SSLMode:      env.Get("DB_SSLMODE", "disable"),
			MaxOpenConns: env.GetInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: env.GetInt("DB_MAX_IDLE_CONNS", 5),
		},
		Quote: QuoteConfig{
			URL:      os.Getenv("QUOTE_URL"),
			APIKey:   os.Getenv("QUOTE_API_KEY"),
			Timeout:  env.GetDuration("QUOTE_TIMEOUT", 10*time.Second),
			Schedule: os.Getenv("INGEST_SCHEDULE"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       env.GetInt("REDIS_DB", 0),
			TTL:      env.GetDuration("REDIS_PRICE_TTL", 24*time.Hour),
		},
		ClickHouse: ClickHouseConfig{
			Host:     env.Get("CLICKHOUSE_HOST", "localhost"),
			Port:     env.Get("CLICKHOUSE_PORT", "9000"),
			Name:     env.Get("CLICKHOUSE_DB", "default"),
			Username: env.Get("CLICKHOUSE_USERNAME", "default"),
			Password: os.Getenv("CLICKHOUSE_PASSWORD"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks settings which have no usable default.
func (cfg *Config) Validate() error {
	if len(cfg.SecretKey) == 0 {
		return ErrMissingSecretKey
	}

	switch cfg.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}

	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	return nil
}

// SetupLogging configures the global logger from the configuration.
func (cfg *Config) SetupLogging() error {
	level, err := log.ParseLevel(cfg.LogLevel)

	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	log.SetLevel(level)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	return nil
}

// MustLoad loads the environment and configuration or crashes the program.
func MustLoad() *Config {
	env.LoadEnvironmentVariables()

	cfg, err := Load()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %s\n", err)
		os.Exit(1)
	}

	if err := cfg.SetupLogging(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %s\n", err)
		os.Exit(1)
	}

	return cfg
}
