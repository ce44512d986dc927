package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	CoinGeckoURL          string
	CoinGeckoAPIKey       string
	CoinGeckoDelay        time.Duration
	CoinGeckoRetryMax     int
	AssetLimit            int
	MarketCacheTTL        time.Duration
	RefreshInterval       time.Duration
	DatabaseURL           string
	RedisURL              string
	NotifyChannel         string
	HTTPPort              string
	AdminAPIKey           string
	GoogleCredentialsJSON string
	SpreadsheetID         string
}

// Load reads configuration from environment variables with sensible defaults.
// The database, Redis and Google Sheets are optional and disabled when unset.
func Load() Config {
	return Config{
		CoinGeckoURL:          envOrDefault("COINGECKO_URL", "https://api.coingecko.com/api/v3"),
		CoinGeckoAPIKey:       envOrDefault("COINGECKO_API_KEY", ""),
		CoinGeckoDelay:        envOrDefaultDuration("COINGECKO_DELAY", 6*time.Second),
		CoinGeckoRetryMax:     envOrDefaultInt("COINGECKO_RETRY_MAX", 3),
		AssetLimit:            envOrDefaultInt("ASSET_LIMIT", 100),
		MarketCacheTTL:        envOrDefaultDuration("MARKET_CACHE_TTL", 60*time.Second),
		RefreshInterval:       envOrDefaultDuration("REFRESH_INTERVAL", 5*time.Minute),
		DatabaseURL:           envOrDefault("DATABASE_URL", ""),
		RedisURL:              envOrDefault("REDIS_URL", ""),
		NotifyChannel:         envOrDefault("NOTIFY_CHANNEL", "coinconv:notifications"),
		HTTPPort:              envOrDefault("HTTP_PORT", "8080"),
		AdminAPIKey:           envOrDefault("ADMIN_API_KEY", ""),
		GoogleCredentialsJSON: envOrDefault("GOOGLE_CREDENTIALS_JSON", ""),
		SpreadsheetID:         envOrDefault("SPREADSHEET_ID", ""),
	}
}

// SheetsEnabled reports whether both Google Sheets settings are present.
func (c Config) SheetsEnabled() bool {
	return c.GoogleCredentialsJSON != "" && c.SpreadsheetID != ""
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}
