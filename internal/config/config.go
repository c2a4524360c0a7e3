package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr            string
	DatabaseURL     string
	AllowedOrigins  []string
	TransitionGrace time.Duration
}

// Load reads configuration from the environment, with a .env file as a
// development convenience. Missing values fall back to defaults.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Addr:            getenv("ADDR", ":8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		AllowedOrigins:  strings.Split(getenv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),
		TransitionGrace: 2 * time.Second,
	}
	if raw := os.Getenv("TRANSITION_GRACE"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			cfg.TransitionGrace = d
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
