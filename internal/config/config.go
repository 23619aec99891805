// Package config loads configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds runtime settings.
type Config struct {
	Addr            string
	AppURL          string
	AllowedOrigin   string
	LogLevel        string
	HumeAPIKey      string
	HumeSecretKey   string
	HumeConfigID    string
	OpenRouterKey   string
	GoogleAPIKey    string
	VisionModel     string
	WeatherAPIKey   string
	ResendAPIKey    string
	EmailFrom       string
	GreenInstanceID string
	GreenToken      string
	RedisURL        string
	DatabaseURL     string
	AdminPIN        string
	UploadDir       string

	PendingTTL      time.Duration
	WeatherCacheTTL time.Duration
	SessionTTL      time.Duration
	MaxImageBytes   int64
}

// Load reads env vars, applies defaults, and validates required fields.
func Load() Config {
	cfg := Config{
		Addr:            os.Getenv("ADDR"),
		AppURL:          os.Getenv("APP_URL"),
		AllowedOrigin:   os.Getenv("ALLOWED_ORIGIN"),
		LogLevel:        os.Getenv("LOG_LEVEL"),
		HumeAPIKey:      os.Getenv("HUME_API_KEY"),
		HumeSecretKey:   os.Getenv("HUME_SECRET_KEY"),
		HumeConfigID:    os.Getenv("HUME_CONFIG_ID"),
		OpenRouterKey:   os.Getenv("OPENROUTER_API_KEY"),
		GoogleAPIKey:    os.Getenv("GOOGLE_API_KEY"),
		VisionModel:     os.Getenv("VISION_MODEL"),
		WeatherAPIKey:   os.Getenv("WEATHER_API_KEY"),
		ResendAPIKey:    os.Getenv("RESEND_API_KEY"),
		EmailFrom:       os.Getenv("EMAIL_FROM"),
		GreenInstanceID: os.Getenv("GREEN_API_INSTANCE_ID"),
		GreenToken:      os.Getenv("GREEN_API_TOKEN"),
		RedisURL:        os.Getenv("REDIS_URL"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		AdminPIN:        os.Getenv("ADMIN_PIN"),
		UploadDir:       os.Getenv("UPLOAD_DIR"),
	}

	cfg.PendingTTL = getEnvDuration("PENDING_TOOL_CALL_TTL", 60*time.Second)
	cfg.WeatherCacheTTL = getEnvDuration("WEATHER_CACHE_TTL", 5*time.Minute)
	cfg.SessionTTL = getEnvDuration("SESSION_TTL", 24*time.Hour)
	cfg.MaxImageBytes = int64(getEnvInt("MAX_IMAGE_BYTES", 10*1024*1024))

	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.AppURL == "" {
		cfg.AppURL = "http://localhost:8080"
	}
	if cfg.AllowedOrigin == "" {
		cfg.AllowedOrigin = "*"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.EmailFrom == "" {
		cfg.EmailFrom = "NoVo <novo@updates.novolabs.app>"
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads"
	}

	if cfg.HumeAPIKey == "" {
		log.Fatal("HUME_API_KEY environment variable is required")
	}

	return cfg
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}
