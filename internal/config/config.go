// Package config provides configuration helpers for focuscam commands.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults used when the environment does not say otherwise.
const (
	DefaultPort            = "8080"
	DefaultDevice          = "0"
	DefaultPreset          = "default"
	DefaultLogLevel        = "info"
	DefaultStaticDir       = "./web"
	DefaultPreviewInterval = 100 * time.Millisecond
	DefaultCaptureTimeout  = 15 * time.Second
)

// Config is the process configuration assembled from .env and the environment.
type Config struct {
	Port      string
	Device    string // camera device id, e.g. "0" for /dev/video0
	Backend   string // "gocv" or "mock"
	Preset    string // camera preset name
	LogLevel  string
	LogFormat string // "text", "json" or "" for GO_ENV based
	StaticDir string

	PreviewInterval time.Duration
	CaptureTimeout  time.Duration
}

// Load reads .env (if present) and returns the environment-backed config.
func Load() Config {
	// A missing .env is normal; plain environment variables still apply.
	_ = godotenv.Load()

	return Config{
		Port:            getEnv("PORT", DefaultPort),
		Device:          getEnv("CAMERA_DEVICE", DefaultDevice),
		Backend:         getEnv("CAMERA_BACKEND", "gocv"),
		Preset:          getEnv("CAMERA_PRESET", DefaultPreset),
		LogLevel:        getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:       getEnv("LOG_FORMAT", ""),
		StaticDir:       getEnv("STATIC_DIR", DefaultStaticDir),
		PreviewInterval: getEnvDuration("PREVIEW_INTERVAL", DefaultPreviewInterval),
		CaptureTimeout:  getEnvDuration("CAPTURE_TIMEOUT", DefaultCaptureTimeout),
	}
}

// IsMock reports whether the scripted mock camera backend is selected.
func (c Config) IsMock() bool {
	return c.Backend == "mock"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("250ms") or plain milliseconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms := getEnvInt(key, -1); ms >= 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
