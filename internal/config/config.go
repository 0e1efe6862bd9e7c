package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds environment-driven settings shared across the service.
type Config struct {
	Port      string
	RedisAddr string
	JWTSecret string

	// Uploads (avatars, KYC documents)
	UploadDir     string
	PublicBaseURL string

	// Market data
	PriceCacheTTL time.Duration

	// Trade resolution sweep
	SweepInterval time.Duration
}

var App Config

// Load reads environment variables (optionally via .env) into App.
func Load() {
	// Ignore error so the service still starts when .env is missing.
	_ = godotenv.Load()

	App = Config{
		Port:          getEnv("PORT", "8080"),
		RedisAddr:     redisAddr(),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		UploadDir:     getEnv("UPLOAD_DIR", "./uploads"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		PriceCacheTTL: getDuration("PRICE_CACHE_TTL_SECONDS", 10*time.Second),
		SweepInterval: getDuration("TRADE_SWEEP_INTERVAL_SECONDS", 60*time.Second),
	}
}

func redisAddr() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}
	// Prefer docker hostname, fallback to localhost
	if host := os.Getenv("REDIS_HOST"); host != "" {
		port := os.Getenv("REDIS_PORT")
		if port == "" {
			port = "6379"
		}
		return host + ":" + port
	}
	if os.Getenv("RUN_LOCAL") == "true" {
		return "127.0.0.1:6379"
	}
	return "redis:6379"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return def
}
