package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config captures the runtime configuration for the ottbox media server.
type Config struct {
	Port          int
	MediaDir      string
	ThumbDir      string
	DataDir       string
	DBPath        string
	StaticDir     string
	SchemaPath    string
	SessionTTL    time.Duration
	WatchInterval time.Duration
	FFmpegPath    string
}

// Load reads configuration from environment variables, applying sensible
// defaults for local deployments while allowing overrides through the
// environment. Numeric variables that fail to parse fall back silently.
func Load() (Config, error) {
	dataDir := getDir("DATA_DIR", "./data")

	cfg := Config{
		Port:          getInt("PORT", 3000),
		MediaDir:      getDir("MEDIA_DIR", "./media"),
		ThumbDir:      getDir("THUMB_DIR", "./web/thumbnails"),
		DataDir:       dataDir,
		DBPath:        getString("DB_PATH", filepath.Join(dataDir, "app.db")),
		StaticDir:     getDir("STATIC_DIR", "./web/public"),
		SchemaPath:    getString("SCHEMA_PATH", "./schema.sql"),
		SessionTTL:    time.Duration(getInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		WatchInterval: time.Duration(getInt("MEDIA_WATCH_INTERVAL_SEC", 2)) * time.Second,
		FFmpegPath:    getString("FFMPEG_PATH", "ffmpeg"),
	}

	if cfg.WatchInterval < time.Second {
		cfg.WatchInterval = time.Second
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getDir resolves a directory variable. When the variable is absent the
// default location is probed, then its sibling one level up, so the server
// finds its directories whether it is launched from the repo root or from a
// build subdirectory.
func getDir(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	candidates := []string{fallback, filepath.Join("..", strings.TrimPrefix(fallback, "./"))}
	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}
