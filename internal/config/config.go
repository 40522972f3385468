package config

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

type DatabaseConfig struct {
	URL          string `toml:"url"`
	Host         string `toml:"host"`
	Port         string `toml:"port"`
	Username     string `toml:"username"`
	Password     string `toml:"password"`
	Name         string `toml:"name"`
	MaxOpenConns int    `toml:"max_open_conns"`
}

// DSN returns URL when set, otherwise a postgres URL assembled from the individual fields.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.Username, d.Password),
		Host:   d.Host + ":" + d.Port,
		Path:   "/" + d.Name,
	}
	return u.String()
}

type BatchConfig struct {
	Workers        int  `toml:"workers"`
	QueueSize      int  `toml:"queue_size"`
	ReconcileStale bool `toml:"reconcile_stale"`
}

type RateLimitConfig struct {
	RPS   float64 `toml:"rps"`
	Burst int     `toml:"burst"`
}

// R2Config points the batch archive at Cloudflare R2 or any S3-compatible endpoint.
// The archive is disabled when BucketName is empty.
type R2Config struct {
	AccountID       string `toml:"account_id"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	BucketName      string `toml:"bucket_name"`
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
}

func (r R2Config) Enabled() bool { return r.BucketName != "" }

type Config struct {
	Port           string          `toml:"port"`
	Environment    string          `toml:"environment"`
	LogLevel       string          `toml:"log_level"`
	AllowedOrigins []string        `toml:"allowed_origins"`
	Database       DatabaseConfig  `toml:"database"`
	Batch          BatchConfig     `toml:"batch"`
	RateLimit      RateLimitConfig `toml:"rate_limit"`
	R2             R2Config        `toml:"r2"`
}

// LoadOptions selects the files consulted by Load. Empty fields fall back to
// the ENV_FILE and CONFIG_FILE variables.
type LoadOptions struct {
	EnvFile    string
	ConfigFile string
}

// Defaults mirrors the settings of a local development database.
func Defaults() Config {
	return Config{
		Port:           "8080",
		Environment:    "development",
		LogLevel:       "info",
		AllowedOrigins: []string{"http://localhost:5173"},
		Database: DatabaseConfig{
			Host:         "0.0.0.0",
			Port:         "5432",
			Username:     "postgres",
			Password:     "dna",
			Name:         "dna",
			MaxOpenConns: 5,
		},
		Batch: BatchConfig{
			Workers:   2,
			QueueSize: 64,
		},
		RateLimit: RateLimitConfig{Burst: 20},
		R2:        R2Config{Region: "auto"},
	}
}

// Load layers configuration: defaults, then the TOML file (if any), then the
// env file and process environment, so environment variables always win.
// envFileLoaded reports whether the env file existed.
func Load(opts LoadOptions) (cfg Config, envFileLoaded bool, err error) {
	cfg = Defaults()

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = getEnv("ENV_FILE", ".env")
	}
	if err := godotenv.Load(envFile); err == nil {
		envFileLoaded = true
	} else if !errors.Is(err, os.ErrNotExist) {
		return cfg, false, fmt.Errorf("load %s: %w", envFile, err)
	}

	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = getEnv("CONFIG_FILE", "")
	}
	if configFile != "" {
		if _, err := toml.DecodeFile(configFile, &cfg); err != nil {
			return cfg, envFileLoaded, fmt.Errorf("parse config %s: %w", configFile, err)
		}
	}

	var errs []error
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Environment = getEnv("ENV", cfg.Environment)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	if origins := getEnv("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}

	cfg.Database.URL = getEnv("DB_URL", cfg.Database.URL)
	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnv("DB_PORT", cfg.Database.Port)
	cfg.Database.Username = getEnv("DB_USERNAME", cfg.Database.Username)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = getEnv("DB_NAME", cfg.Database.Name)
	cfg.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns, &errs)

	cfg.Batch.Workers = getEnvInt("BATCH_WORKERS", cfg.Batch.Workers, &errs)
	cfg.Batch.QueueSize = getEnvInt("BATCH_QUEUE_SIZE", cfg.Batch.QueueSize, &errs)
	cfg.Batch.ReconcileStale = getEnvBool("RECONCILE_STALE_BATCHES", cfg.Batch.ReconcileStale, &errs)

	cfg.RateLimit.RPS = getEnvFloat("RATE_LIMIT_RPS", cfg.RateLimit.RPS, &errs)
	cfg.RateLimit.Burst = getEnvInt("RATE_LIMIT_BURST", cfg.RateLimit.Burst, &errs)

	cfg.R2.AccountID = getEnv("R2_ACCOUNT_ID", cfg.R2.AccountID)
	cfg.R2.AccessKeyID = getEnv("R2_ACCESS_KEY_ID", cfg.R2.AccessKeyID)
	cfg.R2.SecretAccessKey = getEnv("R2_SECRET_ACCESS_KEY", cfg.R2.SecretAccessKey)
	cfg.R2.BucketName = getEnv("R2_BUCKET_NAME", cfg.R2.BucketName)
	cfg.R2.Region = getEnv("R2_REGION", cfg.R2.Region)
	cfg.R2.Endpoint = getEnv("R2_ENDPOINT", cfg.R2.Endpoint)

	if err := cfg.validate(); err != nil {
		errs = append(errs, err)
	}
	return cfg, envFileLoaded, errors.Join(errs...)
}

func (c Config) validate() error {
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch workers must be positive, got %d", c.Batch.Workers)
	}
	if c.Batch.QueueSize < 1 {
		return fmt.Errorf("batch queue size must be positive, got %d", c.Batch.QueueSize)
	}
	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("max open connections must be positive, got %d", c.Database.MaxOpenConns)
	}
	return nil
}

// CorsConfig returns the CORS policy for the configured origins.
func (c Config) CorsConfig() cors.Options {
	return cors.Options{
		AllowedOrigins:   c.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Total-Count", "X-Request-ID"},
		AllowCredentials: true,
	}
}

// Gets the env by key or fallbacks
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int, errs *[]error) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64, errs *[]error) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool, errs *[]error) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
