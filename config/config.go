package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds the process configuration
type Config struct {
	Port             string
	Environment      string
	MediaDir         string
	VideoFile        string
	VideoFilePattern string
	OverlayFile      string
	AllowedOrigins   []string
	WSPingInterval   time.Duration
	WSWriteTimeout   time.Duration
}

// LoadConfig loads the configuration from a .env file, environment variables or defaults
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	cwd, _ := os.Getwd()
	defaultMediaDir := filepath.Join(cwd, "media")

	return &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      getEnv("ENVIRONMENT", "development"),
		MediaDir:         getEnv("MEDIA_DIR", defaultMediaDir),
		VideoFile:        getEnv("VIDEO_FILE", ""),
		VideoFilePattern: getEnv("VIDEO_FILE_PATTERN", "*.mp4,*.webm,*.mov"),
		OverlayFile:      getEnv("OVERLAY_FILE", ""),
		AllowedOrigins:   splitList(getEnv("ALLOWED_ORIGINS", "*")),
		WSPingInterval:   getEnvAsDuration("WS_PING_INTERVAL", 30*time.Second),
		WSWriteTimeout:   getEnvAsDuration("WS_WRITE_TIMEOUT", 10*time.Second),
	}
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
		log.Warn().Str("key", key).Str("value", value).Msg("invalid duration, using default")
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Addr returns the listen address
func (c *Config) Addr() string {
	if _, err := strconv.Atoi(c.Port); err == nil {
		return ":" + c.Port
	}
	return c.Port
}
