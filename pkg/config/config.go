package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	DatabaseURL        string
	AppEnv             string
	BaseURL            string
	RootDomain         string   // host[:port] that subdomains hang off
	RouterExclude      []string // extra path prefixes the host rewrite skips
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	JWTSecret          string
	FrontendURL        string
	LogLevel           string
	ClickWorkers       int
	ClickQueueSize     int
	TrackRatePerSec    float64
	TrackRateBurst     int
	TrustProxy         bool // Honour X-Forwarded-For / X-Real-IP from a reverse proxy
}

func Load() *Config {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	return &Config{
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        getEnv("DATABASE_URL", "file:db.sqlite"),
		AppEnv:             getEnv("APP_ENV", "local"),
		BaseURL:            getEnv("BASE_URL", "http://localhost:8080"),
		RootDomain:         getEnv("ROOT_DOMAIN", "localhost:8080"),
		RouterExclude:      getEnvAsList("ROUTER_EXCLUDE"),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/google/callback"),
		JWTSecret:          getEnv("JWT_SECRET", "secret"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:8080/admin"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		ClickWorkers:       getEnvAsInt("CLICK_WORKERS", 4),
		ClickQueueSize:     getEnvAsInt("CLICK_QUEUE_SIZE", 1024),
		TrackRatePerSec:    getEnvAsFloat("TRACK_RATE_PER_SEC", 5),
		TrackRateBurst:     getEnvAsInt("TRACK_RATE_BURST", 20),
		TrustProxy:         getEnvAsBool("TRUST_PROXY", false),
	}
}

// IsProduction toggles Secure cookies and JSON logs
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// ProfileURL is where a user's public page lives: on its own subdomain
// keeping the base URL's scheme.
func (c *Config) ProfileURL(username string) string {
	scheme := "http"
	if strings.HasPrefix(c.BaseURL, "https://") {
		scheme = "https"
	}
	return scheme + "://" + username + "." + c.RootDomain
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil && intVal > 0 {
			return intVal
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f > 0 {
			return f
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
