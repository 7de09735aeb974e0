package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all process-wide settings. It is read once at startup and
// treated as read-only afterwards.
type Config struct {
	Port string

	// RapidAPI credentials. An adapter without its credential is skipped.
	AmazonAPIKey   string
	FlipkartAPIKey string

	// HTML scrapers need no credential but are opt-in.
	EnableHTMLScrapers bool

	AdapterTimeout time.Duration
	HistoryDBPath  string
}

// Load reads a .env file if present, then the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := Config{
		Port:           envOr("PORT", "9090"),
		AmazonAPIKey:   os.Getenv("RAPIDAPI_KEY"),
		FlipkartAPIKey: os.Getenv("RAPIDAPI_FLIPKART_KEY"),
		HistoryDBPath:  envOr("HISTORY_DB_PATH", "./history.db"),
		AdapterTimeout: 12 * time.Second,
	}

	if val := os.Getenv("ENABLE_HTML_SCRAPERS"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			cfg.EnableHTMLScrapers = parsed
		}
	}

	if val := os.Getenv("ADAPTER_TIMEOUT_SECONDS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			cfg.AdapterTimeout = time.Duration(parsed) * time.Second
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
