package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port         string
	DatabasePath string
	LogLevel     string

	// Feed provider settings
	BrapiBaseURL        string
	BrapiToken          string
	StatusInvestBaseURL string
	FeedTimeout         time.Duration
	FeedCacheTTL        time.Duration

	// Eligibility window: how far back a payment date may lie and still be
	// imported.
	SyncWindowDays int
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	syncWindowDays := getEnvAsInt("SYNC_WINDOW_DAYS", 365)
	if syncWindowDays <= 0 {
		log.Printf("WARNING: SYNC_WINDOW_DAYS must be positive, got %d. Using default 365.", syncWindowDays)
		syncWindowDays = 365
	}

	Cfg = &AppConfig{
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./proventus.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		BrapiBaseURL:        getEnv("BRAPI_BASE_URL", "https://brapi.dev"),
		BrapiToken:          getEnv("BRAPI_TOKEN", ""),
		StatusInvestBaseURL: getEnv("STATUSINVEST_BASE_URL", "https://statusinvest.com.br"),
		FeedTimeout:         getEnvAsDuration("FEED_TIMEOUT", 10*time.Second),
		FeedCacheTTL:        getEnvAsDuration("FEED_CACHE_TTL", 30*time.Minute),

		SyncWindowDays: syncWindowDays,
	}

	if Cfg.BrapiToken == "" {
		log.Println("WARNING: BRAPI_TOKEN not set. brapi requests will run unauthenticated and may be heavily rate limited.")
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, SyncWindowDays=%d",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.SyncWindowDays)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Integer value for %s not set or empty, using default: %d", key, fallback)
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Duration value for %s not set or empty, using default: %s", key, fallback.String())
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
