package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	// Dream is the webhook-capable image/video generation provider.
	DreamAPIKey     string
	DreamBaseURL    string
	DreamImageModel string
	DreamVideoModel string
	// Public URL the provider calls back on; forwarded at submission time.
	WebhookBaseURL string

	// Textgen is the poll-based intermediary for text generation.
	TextgenBaseURL string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	// Reconciler settings (cmd/worker).
	ReconcileInterval time.Duration
	CallbackDeadline  time.Duration
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. The provider API key is deliberately not validated
// here: its absence surfaces as a credential error on first submission, so
// read-only deployments can still serve status traffic.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		DreamAPIKey:       os.Getenv("DREAM_API_KEY"),
		DreamBaseURL:      getEnv("DREAM_BASE_URL", "https://api.dream.example.com/v1"),
		DreamImageModel:   getEnv("DREAM_IMAGE_MODEL", "dream-image-xl"),
		DreamVideoModel:   getEnv("DREAM_VIDEO_MODEL", "dream-video-1"),
		WebhookBaseURL:    getEnv("WEBHOOK_BASE_URL", "http://localhost:8080"),
		TextgenBaseURL:    getEnv("TEXTGEN_BASE_URL", "http://localhost:8090"),
		HTTPReadTimeout:   time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:  time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 90)),
		HTTPIdleTimeout:   time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		ReconcileInterval: time.Second * time.Duration(getEnvInt("RECONCILE_INTERVAL_SECONDS", 60)),
		CallbackDeadline:  time.Minute * time.Duration(getEnvInt("CALLBACK_DEADLINE_MINUTES", 30)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
