// Package config provides configuration loading from environment variables.
package config

import (
	"os"
	"strconv"
	"time"
)

// Retry and pacing defaults shared by both network clients.
const (
	DefaultMaxAttemptsValue     = 4
	DefaultBackoffBaseMsValue   = 250
	DefaultSlowQueryMsValue     = 5000
	DefaultIndexerRPSValue      = 10
	DefaultProfilePageSizeValue = 25
)

// Cache capacity defaults per category.
const (
	LedgerCacheMaxValue   = 512
	AccountCacheMaxValue  = 256
	ContractCacheMaxValue = 128
	AuctionCacheMaxValue  = 128
	NetworkCacheMaxValue  = 64
)

// Config holds all configuration for the MCP server.
type Config struct {
	RPCBaseURL     string // LEDGERLENS_RPC_URL, default "http://localhost:8545"
	IndexerBaseURL string // LEDGERLENS_INDEXER_URL, default "https://indexer.ledgerlens.io"

	// Credential overrides. The API key takes precedence over login/password.
	APIKey   string // LEDGERLENS_API_KEY
	Login    string // LEDGERLENS_LOGIN
	Password string // LEDGERLENS_PASSWORD

	HTTPClientTimeout  time.Duration // HTTP_CLIENT_TIMEOUT_MS, default 30000ms (30s)
	SlowQueryThreshold time.Duration // SLOW_QUERY_THRESHOLD_MS, default 5000ms
	MaxAttempts        int           // RETRY_MAX_ATTEMPTS, default 4 (1 call + 3 retries)
	BackoffBase        time.Duration // RETRY_BACKOFF_BASE_MS, default 250ms
	IndexerRPS         int           // INDEXER_RPS, default 10 requests/second

	// Cache capacities per category
	LedgerCacheMax   int // LEDGER_CACHE_MAX, default 512
	AccountCacheMax  int // ACCOUNT_CACHE_MAX, default 256
	ContractCacheMax int // CONTRACT_CACHE_MAX, default 128
	AuctionCacheMax  int // AUCTION_CACHE_MAX, default 128
	NetworkCacheMax  int // NETWORK_CACHE_MAX, default 64

	// Composite layer
	ProfilePageSize  int           // PROFILE_PAGE_SIZE, default 25 transactions per profile
	CheckpointWindow time.Duration // CHECKPOINT_WINDOW_MS, default 10 minutes

	// Logging configuration
	LogLevel      string // LOG_LEVEL, default "info"
	LogFile       string // LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // LOG_MAX_BACKUPS, default 5
	LogMaxAgeDays int    // LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // LOG_COMPRESS, default true
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		RPCBaseURL:     getEnvString("LEDGERLENS_RPC_URL", "http://localhost:8545"),
		IndexerBaseURL: getEnvString("LEDGERLENS_INDEXER_URL", "https://indexer.ledgerlens.io"),

		APIKey:   os.Getenv("LEDGERLENS_API_KEY"),
		Login:    os.Getenv("LEDGERLENS_LOGIN"),
		Password: os.Getenv("LEDGERLENS_PASSWORD"),

		HTTPClientTimeout:  getEnvDurationMs("HTTP_CLIENT_TIMEOUT_MS", 30000),
		SlowQueryThreshold: getEnvDurationMs("SLOW_QUERY_THRESHOLD_MS", DefaultSlowQueryMsValue),
		MaxAttempts:        getEnvInt("RETRY_MAX_ATTEMPTS", DefaultMaxAttemptsValue),
		BackoffBase:        getEnvDurationMs("RETRY_BACKOFF_BASE_MS", DefaultBackoffBaseMsValue),
		IndexerRPS:         getEnvInt("INDEXER_RPS", DefaultIndexerRPSValue),

		LedgerCacheMax:   getEnvInt("LEDGER_CACHE_MAX", LedgerCacheMaxValue),
		AccountCacheMax:  getEnvInt("ACCOUNT_CACHE_MAX", AccountCacheMaxValue),
		ContractCacheMax: getEnvInt("CONTRACT_CACHE_MAX", ContractCacheMaxValue),
		AuctionCacheMax:  getEnvInt("AUCTION_CACHE_MAX", AuctionCacheMaxValue),
		NetworkCacheMax:  getEnvInt("NETWORK_CACHE_MAX", NetworkCacheMaxValue),

		ProfilePageSize:  getEnvInt("PROFILE_PAGE_SIZE", DefaultProfilePageSizeValue),
		CheckpointWindow: getEnvDurationMs("CHECKPOINT_WINDOW_MS", 10*60*1000),

		LogLevel:      getEnvString("LOG_LEVEL", "info"),
		LogFile:       getEnvString("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),
	}
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDurationMs(key string, defaultMs int) time.Duration {
	ms := getEnvInt(key, defaultMs)
	return time.Duration(ms) * time.Millisecond
}
