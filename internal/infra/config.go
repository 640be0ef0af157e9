package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	PublicMode       bool
	QueueLimit       int
	QueuePollEvery   time.Duration
	ArchiveTTL       time.Duration
	MapsDirectory    string
	ArchivesDir      string
	InputDirectory   string
	PublicMaxMapSize int
	GeoIPDBPath      string
	DatabaseURL      string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	CORSOrigins      []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		PublicMode:       getEnvBool("PUBLIC_MODE", false),
		QueueLimit:       getEnvInt("QUEUE_LIMIT", 2),
		QueuePollEvery:   time.Millisecond * time.Duration(getEnvInt("QUEUE_POLL_INTERVAL_MS", 2000)),
		ArchiveTTL:       time.Second * time.Duration(getEnvInt("ARCHIVE_TTL_SECONDS", 600)),
		MapsDirectory:    getEnv("MAPS_DIRECTORY", "./data/maps"),
		ArchivesDir:      getEnv("ARCHIVES_DIRECTORY", "./data/archives"),
		InputDirectory:   getEnv("INPUT_DIRECTORY", "./data/input"),
		PublicMaxMapSize: getEnvInt("PUBLIC_MAX_MAP_SIZE", 8192),
		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		CORSOrigins:      splitList(os.Getenv("CORS_ORIGINS")),
	}

	if cfg.QueueLimit <= 0 {
		return nil, fmt.Errorf("QUEUE_LIMIT must be positive")
	}

	for name, dir := range map[string]*string{
		"MAPS_DIRECTORY":     &cfg.MapsDirectory,
		"ARCHIVES_DIRECTORY": &cfg.ArchivesDir,
		"INPUT_DIRECTORY":    &cfg.InputDirectory,
	} {
		abs, err := filepath.Abs(*dir)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		*dir = abs
	}

	return cfg, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
