package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://rentflow@localhost/rentflow")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_test")
	t.Setenv("STORAGE_BACKEND", "local")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, 3000, cfg.HTTP.Port)
	assert.Equal(t, 30*time.Minute, cfg.DB.ConnMaxLifetime)
	assert.Equal(t, QueueBackendDatabase, cfg.Queue.Backend)
	assert.Equal(t, 1, cfg.Queue.Workers)
	assert.Equal(t, time.Second, cfg.Queue.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.Queue.RetryDelay)
	assert.Equal(t, 15*time.Minute, cfg.Queue.ClaimTimeout)
	assert.Equal(t, 1, cfg.Queue.MaxAttempts)
	assert.Equal(t, "inr", cfg.Stripe.Currency)
	assert.Equal(t, "http://localhost:3000/files", cfg.Storage.PublicBaseURL)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("QUEUE_BACKEND", "Memory")
	t.Setenv("QUEUE_WORKERS", "4")
	t.Setenv("QUEUE_POLL_INTERVAL", "250ms")
	t.Setenv("QUEUE_MAX_ATTEMPTS", "3")
	t.Setenv("QUEUE_RETRY_DELAY", "5s")
	t.Setenv("QUEUE_CLAIM_TIMEOUT", "2m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("STRIPE_CURRENCY", "USD")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, QueueBackendMemory, cfg.Queue.Backend)
	assert.Equal(t, 4, cfg.Queue.Workers)
	assert.Equal(t, 250*time.Millisecond, cfg.Queue.PollInterval)
	assert.Equal(t, 3, cfg.Queue.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.Queue.RetryDelay)
	assert.Equal(t, 2*time.Minute, cfg.Queue.ClaimTimeout)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.HTTP.CORSAllowedOrigins)
	assert.Equal(t, "usd", cfg.Stripe.Currency)
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		msg  string
	}{
		{"missing dsn", map[string]string{"DB_DSN": ""}, "DB_DSN"},
		{"missing jwt secret", map[string]string{"JWT_ACCESS_SECRET": ""}, "JWT_ACCESS_SECRET"},
		{"missing webhook secret", map[string]string{"STRIPE_WEBHOOK_SECRET": ""}, "STRIPE_WEBHOOK_SECRET"},
		{"unknown queue backend", map[string]string{"QUEUE_BACKEND": "redis"}, "QUEUE_BACKEND"},
		{"cloudinary without url", map[string]string{"STORAGE_BACKEND": "cloudinary"}, "CLOUDINARY_URL"},
		{"unknown storage backend", map[string]string{"STORAGE_BACKEND": "s3"}, "STORAGE_BACKEND"},
		{"zero attempts", map[string]string{"QUEUE_MAX_ATTEMPTS": "0"}, "QUEUE_MAX_ATTEMPTS"},
		{"negative retry delay", map[string]string{"QUEUE_RETRY_DELAY": "-1s"}, "QUEUE_RETRY_DELAY"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestParseList(t *testing.T) {
	assert.Nil(t, parseList("  "))
	assert.Equal(t, []string{"a", "b"}, parseList("a, ,b"))
}
