package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	PostgresDSN   string
	ValkeyAddr    string
	JWTSecret     string
	AllowedOrigin string
	StoreTimeout  time.Duration
}

// Load reads .env if present, then the environment. An empty PostgresDSN
// selects the in-memory stores; an empty ValkeyAddr selects the in-memory
// lease store.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return Config{
		Port:          getString("PORT", "8080"),
		PostgresDSN:   getString("POSTGRES_DSN", ""),
		ValkeyAddr:    getString("VALKEY_ADDR", ""),
		JWTSecret:     getString("JWT_SECRET", "dev-secret"),
		AllowedOrigin: getString("ALLOWED_ORIGIN", "http://127.0.0.1:5173"),
		StoreTimeout:  time.Duration(getInt("STORE_TIMEOUT_MS", 5000)) * time.Millisecond,
	}
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
