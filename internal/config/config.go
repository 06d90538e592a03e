package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath    string
	CacheDir  string
	OutputDir string

	BaseURL        string
	HTTPTimeout    time.Duration
	HTTPRateRPS    float64
	HTTPMaxRetries int
	UserAgent      string

	CacheTTL           time.Duration
	CacheMemoryEntries int
	FetchConcurrency   int

	LogLevel string
	LogFile  string

	MetricsAddr string

	WatchDatasets   []string
	WatchRegions    []string
	WatchInterval   time.Duration
	WatchAutoExport bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),
		CacheDir:  getEnv("CACHE_DIR", filepath.Join(cwd, "data", "cache")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		BaseURL:        getEnv("VANTETIDER_BASE_URL", "http://www.vantetider.se/Kontaktkort/"),
		HTTPTimeout:    time.Duration(getEnvInt("HTTP_TIMEOUT_MS", 30000)) * time.Millisecond,
		HTTPRateRPS:    getEnvFloat("HTTP_RATE_LIMIT_RPS", 2),
		HTTPMaxRetries: getEnvInt("HTTP_MAX_RETRIES", 4),
		UserAgent:      getEnv("HTTP_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"),

		CacheTTL:           getEnvDuration("CACHE_TTL", 24*time.Hour),
		CacheMemoryEntries: getEnvInt("CACHE_MEMORY_ENTRIES", 256),
		FetchConcurrency:   getEnvInt("FETCH_CONCURRENCY", 4),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),

		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),

		WatchDatasets:   getEnvList("WATCH_DATASETS"),
		WatchRegions:    getEnvList("WATCH_REGIONS"),
		WatchInterval:   getEnvDuration("WATCH_INTERVAL", 6*time.Hour),
		WatchAutoExport: getEnvBool("WATCH_AUTO_EXPORT", true),
	}

	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	if cfg.FetchConcurrency < 1 {
		cfg.FetchConcurrency = 1
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90s", "6h") and "0".
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(getEnv(key, ""))
	if value == "" {
		return fallback
	}
	if value == "0" {
		return 0
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string) []string {
	value := getEnv(key, "")
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
