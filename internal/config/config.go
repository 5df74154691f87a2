package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host               string
	Port               int
	CORSAllowedOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	AccessSecret string
}

type QueueConfig struct {
	Backend      string
	Workers      int
	PollInterval time.Duration
	RetryDelay   time.Duration
	ClaimTimeout time.Duration
	MaxAttempts  int
}

type StorageConfig struct {
	Backend       string
	CloudinaryURL string
	Folder        string
	LocalDir      string
	PublicBaseURL string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	SuccessURL    string
	CancelURL     string
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Queue       QueueConfig
	Storage     StorageConfig
	Stripe      StripeConfig
}

const (
	QueueBackendMemory   = "memory"
	QueueBackendDatabase = "database"

	StorageBackendCloudinary = "cloudinary"
	StorageBackendLocal      = "local"
)

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", 3000)
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("QUEUE_BACKEND", QueueBackendDatabase)
	v.SetDefault("QUEUE_WORKERS", 1)
	v.SetDefault("QUEUE_POLL_INTERVAL", "1s")
	v.SetDefault("QUEUE_RETRY_DELAY", "30s")
	v.SetDefault("QUEUE_CLAIM_TIMEOUT", "15m")
	v.SetDefault("QUEUE_MAX_ATTEMPTS", 1)
	v.SetDefault("STORAGE_BACKEND", StorageBackendCloudinary)
	v.SetDefault("STORAGE_FOLDER", "agreements")
	v.SetDefault("STORAGE_LOCAL_DIR", "./data/agreements")
	v.SetDefault("STRIPE_CURRENCY", "inr")

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:               v.GetString("HTTP_HOST"),
			Port:               v.GetInt("HTTP_PORT"),
			CORSAllowedOrigins: parseList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Queue: QueueConfig{
			Backend:      strings.ToLower(v.GetString("QUEUE_BACKEND")),
			Workers:      v.GetInt("QUEUE_WORKERS"),
			PollInterval: v.GetDuration("QUEUE_POLL_INTERVAL"),
			RetryDelay:   v.GetDuration("QUEUE_RETRY_DELAY"),
			ClaimTimeout: v.GetDuration("QUEUE_CLAIM_TIMEOUT"),
			MaxAttempts:  v.GetInt("QUEUE_MAX_ATTEMPTS"),
		},
		Storage: StorageConfig{
			Backend:       strings.ToLower(v.GetString("STORAGE_BACKEND")),
			CloudinaryURL: v.GetString("CLOUDINARY_URL"),
			Folder:        v.GetString("STORAGE_FOLDER"),
			LocalDir:      v.GetString("STORAGE_LOCAL_DIR"),
			PublicBaseURL: v.GetString("STORAGE_PUBLIC_BASE_URL"),
		},
		Stripe: StripeConfig{
			SecretKey:     v.GetString("STRIPE_SECRET_KEY"),
			WebhookSecret: v.GetString("STRIPE_WEBHOOK_SECRET"),
			Currency:      strings.ToLower(v.GetString("STRIPE_CURRENCY")),
			SuccessURL:    v.GetString("CHECKOUT_SUCCESS_URL"),
			CancelURL:     v.GetString("CHECKOUT_CANCEL_URL"),
		},
	}

	if cfg.Storage.PublicBaseURL == "" {
		cfg.Storage.PublicBaseURL = fmt.Sprintf("http://localhost:%d/files", cfg.HTTP.Port)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Stripe.WebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required")
	}
	switch cfg.Queue.Backend {
	case QueueBackendMemory, QueueBackendDatabase:
	default:
		return fmt.Errorf("QUEUE_BACKEND must be %q or %q", QueueBackendMemory, QueueBackendDatabase)
	}
	switch cfg.Storage.Backend {
	case StorageBackendLocal:
	case StorageBackendCloudinary:
		if cfg.Storage.CloudinaryURL == "" {
			return fmt.Errorf("CLOUDINARY_URL is required for the cloudinary storage backend")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q", StorageBackendCloudinary, StorageBackendLocal)
	}
	if cfg.Queue.MaxAttempts < 1 {
		return fmt.Errorf("QUEUE_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.Queue.RetryDelay < 0 || cfg.Queue.ClaimTimeout < 0 {
		return fmt.Errorf("QUEUE_RETRY_DELAY and QUEUE_CLAIM_TIMEOUT must not be negative")
	}
	return nil
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
