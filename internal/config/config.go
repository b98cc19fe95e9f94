package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	JWTSecret   string
	TokenTTL    time.Duration
	AIServerURL string
	Env         string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

// Load читает .env.local, затем .env, затем переменные окружения.
func Load() Config {
	if err := godotenv.Load(".env.local"); err != nil {
		_ = godotenv.Load()
	}

	ttlHours, err := strconv.Atoi(getenv("TOKEN_TTL_HOURS", "24"))
	if err != nil || ttlHours <= 0 {
		ttlHours = 24
	}

	return Config{
		Port:        getenv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    getenv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:   getenv("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:    time.Duration(ttlHours) * time.Hour,
		AIServerURL: getenv("AI_SERVER_URL", "http://localhost:8000/api/ai"),
		Env:         getenv("APP_ENV", "dev"),
	}
}

// Validate проверяет минимально необходимые значения перед стартом.
func Validate(cfg Config) error {
	if cfg.Port == "" {
		return errors.New("PORT is empty")
	}
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set")
	}
	if cfg.Env != "dev" && cfg.JWTSecret == "dev-secret-change-me" {
		return errors.New("JWT_SECRET must be changed outside dev")
	}
	return nil
}
