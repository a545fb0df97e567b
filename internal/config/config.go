package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/chalense/muni-laip/internal/pkg"
	"github.com/chalense/muni-laip/internal/services"
)

// Config holds the application configuration, loaded from the environment
// with an optional .env file for development.
type Config struct {
	ServerAddress   string
	GinMode         string
	LogLevel        pkg.LogLevel
	ShutdownTimeout time.Duration

	MongoURI      string
	MongoDatabase string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret   string
	JWTIssuer   string
	JWTTokenTTL time.Duration

	NotificationQueueSize int

	Storage services.StorageConfig
	Email   services.EmailConfig
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() (*Config, error) {
	// Missing .env is the normal case in production.
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddress:   getEnv("SERVER_ADDRESS", ":8080"),
		GinMode:         getEnv("GIN_MODE", "release"),
		LogLevel:        pkg.ParseLogLevel(getEnv("LOG_LEVEL", "info")),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "muni_laip"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		JWTIssuer:   getEnv("JWT_ISSUER", "muni-laip"),
		JWTTokenTTL: getDuration("JWT_TOKEN_TTL", 12*time.Hour),

		NotificationQueueSize: getInt("NOTIFICATION_QUEUE_SIZE", 256),

		Storage: services.StorageConfig{
			Provider:  getEnv("STORAGE_PROVIDER", "local"),
			Bucket:    getEnv("STORAGE_BUCKET", ""),
			Region:    getEnv("STORAGE_REGION", ""),
			AccessKey: getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey: getEnv("STORAGE_SECRET_KEY", ""),
			Endpoint:  getEnv("STORAGE_ENDPOINT", ""),
			BasePath:  getEnv("STORAGE_BASE_PATH", "./storage"),
		},
		Email: services.EmailConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnv("SMTP_PORT", "587"),
			Username:   getEnv("SMTP_USERNAME", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			FromEmail:  getEnv("SMTP_FROM_EMAIL", "no-reply@municipalidad.gob.gt"),
			FromName:   getEnv("SMTP_FROM_NAME", "Portal de Información Pública"),
			StaffEmail: getEnv("SMTP_STAFF_EMAIL", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.Storage.Provider == "s3" || c.Storage.Provider == "aws" {
		if c.Storage.Bucket == "" {
			return fmt.Errorf("STORAGE_BUCKET is required for the s3 provider")
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return value
}
