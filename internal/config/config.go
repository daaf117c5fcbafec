package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	DatabaseURL   string
	RedisURL      string
	RedisPassword string
	CacheBackend  string

	YouTubeAPIKey         string
	GeminiAPIKey          string
	GeminiModel           string
	GeminiMaxOutputTokens int
	DeepSeekAPIKey        string
	DeepSeekModel         string
	DeepSeekBaseURL       string

	RequestTimeout    time.Duration
	GenerationTimeout time.Duration

	OutlierThreshold  float64
	FreeTierLimit     int
	MaxPeers          int
	PeerSearchResults int
	CatalogSize       int
	MaxOutliers       int
	PeerWorkers       int

	CachePruneUTCHour int
	CachePruneUTCMin  int
}

// LoadEnv loads .env automatically (if present). Real environment variables
// still override. ENV_FILE=path/to/.env overrides the path and wins over the
// environment. It returns a line describing what was loaded, or "".
func LoadEnv() (string, error) {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Overload(envFile); err != nil {
			return "", fmt.Errorf("env: failed to load ENV_FILE=%q: %w", envFile, err)
		}
		return "env: loaded " + envFile, nil
	}
	if err := godotenv.Load(); err == nil {
		return "env: loaded .env", nil
	}
	return "", nil
}

// Load reads the process environment. It does not read .env; call LoadEnv
// first for that.
func Load() (Config, error) {
	p := &parser{}
	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisURL:      getEnv("REDIS_URL", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		CacheBackend:  strings.ToLower(getEnv("CACHE_BACKEND", "")),

		YouTubeAPIKey:         getEnv("YOUTUBE_API_KEY", ""),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GeminiModel:           getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiMaxOutputTokens: p.getInt("GEMINI_MAX_OUTPUT_TOKENS", 0),
		DeepSeekAPIKey:        getEnv("DEEPSEEK_API_KEY", ""),
		DeepSeekModel:         getEnv("DEEPSEEK_MODEL", "deepseek-chat"),
		DeepSeekBaseURL:       getEnv("DEEPSEEK_BASE_URL", "https://api.deepseek.com"),

		RequestTimeout:    time.Duration(p.getInt("REQUEST_TIMEOUT_SECONDS", 20)) * time.Second,
		GenerationTimeout: time.Duration(p.getInt("GEMINI_TIMEOUT_SECONDS", 60)) * time.Second,

		OutlierThreshold:  p.getFloat("OUTLIER_THRESHOLD", 3.0),
		FreeTierLimit:     p.getInt("FREE_TIER_LIMIT", 3),
		MaxPeers:          p.getInt("MAX_PEERS", 10),
		PeerSearchResults: p.getInt("PEER_SEARCH_RESULTS", 20),
		CatalogSize:       p.getInt("CATALOG_SIZE", 30),
		MaxOutliers:       p.getInt("MAX_OUTLIERS", 30),
		PeerWorkers:       p.getInt("PEER_WORKERS", 4),

		CachePruneUTCHour: p.getInt("CACHE_PRUNE_UTC_HOUR", 3),
		CachePruneUTCMin:  p.getInt("CACHE_PRUNE_UTC_MIN", 0),
	}
	if p.err != nil {
		return Config{}, p.err
	}

	if cfg.YouTubeAPIKey == "" {
		return Config{}, fmt.Errorf("missing YOUTUBE_API_KEY")
	}
	if cfg.OutlierThreshold <= 0 {
		return Config{}, fmt.Errorf("invalid OUTLIER_THRESHOLD=%v: must be positive", cfg.OutlierThreshold)
	}
	if cfg.FreeTierLimit < 0 {
		return Config{}, fmt.Errorf("invalid FREE_TIER_LIMIT=%d: must not be negative", cfg.FreeTierLimit)
	}
	if cfg.CacheBackend == "" {
		switch {
		case cfg.RedisURL != "":
			cfg.CacheBackend = "redis"
		case cfg.DatabaseURL != "":
			cfg.CacheBackend = "postgres"
		default:
			cfg.CacheBackend = "memory"
		}
	}
	switch cfg.CacheBackend {
	case "redis":
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("CACHE_BACKEND=redis requires REDIS_URL")
		}
	case "postgres":
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("CACHE_BACKEND=postgres requires DATABASE_URL")
		}
	case "memory":
	default:
		return Config{}, fmt.Errorf("invalid CACHE_BACKEND=%q", cfg.CacheBackend)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// parser keeps the first bad value it sees.
type parser struct {
	err error
}

func (p *parser) getInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		if p.err == nil {
			p.err = fmt.Errorf("invalid %s=%q: %w", key, v, err)
		}
		return def
	}
	return i
}

func (p *parser) getFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		if p.err == nil {
			p.err = fmt.Errorf("invalid %s=%q: %w", key, v, err)
		}
		return def
	}
	return f
}
