package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config carries everything the storefront binary needs to come up.
type Config struct {
	APIBaseURL   string // remote bookshop API, e.g. http://localhost:8000/api
	Backend      string // persistence backend: memory | sqlite | redis
	SQLitePath   string
	RedisAddr    string
	RedisPrefix  string
	OTLPEndpoint string // empty disables trace export
}

// Load reads configuration from the environment, after best-effort loading
// of a local .env file.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] .env not loaded: %v", err)
	}

	cfg := Config{
		APIBaseURL:   getEnv("BOOKSHOP_API_URL", "http://localhost:8000/api"),
		Backend:      getEnv("BOOKSHOP_PERSIST", "sqlite"),
		SQLitePath:   getEnv("BOOKSHOP_SQLITE_PATH", "bookshop.db"),
		RedisAddr:    getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPrefix:  getEnv("REDIS_PREFIX", "bookshop"),
		OTLPEndpoint: os.Getenv("OTLP_ENDPOINT"),
	}
	log.Printf("[config] API=%s PERSIST=%s", cfg.APIBaseURL, cfg.Backend)
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
