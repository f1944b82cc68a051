package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Math rendering
	MathRendererURL       string
	MathRenderConcurrency int
	MathRenderTimeout     time.Duration

	// Reference-text extraction; empty means local extraction only.
	ExtractorURL string

	// Diff budget
	DiffMaxCells int

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Style map override
	StyleMapPath string

	// Report archive; empty disables it.
	DatabaseURL string
}

// LoadDotenv loads path into the environment if it exists. Variables that
// are already set win.
func LoadDotenv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("HLZCONV_API_KEY"),

		MathRendererURL:       os.Getenv("MATH_RENDERER_URL"),
		MathRenderConcurrency: envInt("MATH_RENDER_CONCURRENCY", 4),
		MathRenderTimeout:     envDuration("MATH_RENDER_TIMEOUT", 20*time.Second),

		ExtractorURL: os.Getenv("EXTRACTOR_URL"),

		DiffMaxCells: envInt("DIFF_MAX_CELLS", 4_000_000),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		StyleMapPath: os.Getenv("STYLE_MAP_PATH"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
	}

	if cfg.MathRenderConcurrency <= 0 {
		cfg.MathRenderConcurrency = 4
	}
	if cfg.MathRenderTimeout <= 0 {
		cfg.MathRenderTimeout = 20 * time.Second
	}
	if cfg.DiffMaxCells <= 0 {
		cfg.DiffMaxCells = 4_000_000
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// Validate checks the settings the HTTP service needs.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("HLZCONV_API_KEY is required")
	}
	for name, v := range map[string]string{
		"MATH_RENDERER_URL": c.MathRendererURL,
		"EXTRACTOR_URL":     c.ExtractorURL,
	} {
		if v == "" {
			continue
		}
		if u, err := url.Parse(v); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, v)
		}
	}
	if c.StyleMapPath != "" {
		if _, err := os.Stat(c.StyleMapPath); err != nil {
			return fmt.Errorf("STYLE_MAP_PATH: %w", err)
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
