package infra

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	OllamaBaseURL      string
	OllamaModel        string
	SDWebUIURL         string
	AssetsDir          string
	DatabaseURL        string
	CORSAllowedOrigins []string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	UpstreamTimeout    time.Duration
	ImageConcurrency   int
	ImageSteps         int
	MaxBodyBytes       int64
}

var configDefaults = map[string]any{
	"APP_ENV":                    "development",
	"PORT":                       "5174",
	"OLLAMA_BASE_URL":            "http://127.0.0.1:11434",
	"OLLAMA_MODEL":               "llama3.1:8b",
	"SD_WEBUI_URL":               "http://127.0.0.1:7860",
	"ASSETS_DIR":                 "assets",
	"DATABASE_URL":               "",
	"CORS_ALLOWED_ORIGINS":       "*",
	"HTTP_READ_TIMEOUT_SECONDS":  15,
	"HTTP_WRITE_TIMEOUT_SECONDS": 0,
	"HTTP_IDLE_TIMEOUT_SECONDS":  60,
	"UPSTREAM_TIMEOUT_SECONDS":   0,
	"IMAGE_CONCURRENCY":          3,
	"IMAGE_STEPS":                20,
	"MAX_BODY_BYTES":             10 << 20,
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
// Empty variables fall back to their defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	for key, value := range configDefaults {
		v.SetDefault(key, value)
	}

	assetsDir, err := filepath.Abs(strings.TrimSpace(v.GetString("ASSETS_DIR")))
	if err != nil {
		return nil, fmt.Errorf("resolve ASSETS_DIR: %w", err)
	}

	cfg := &Config{
		AppEnv:             v.GetString("APP_ENV"),
		Port:               v.GetString("PORT"),
		OllamaBaseURL:      strings.TrimRight(v.GetString("OLLAMA_BASE_URL"), "/"),
		OllamaModel:        strings.TrimSpace(v.GetString("OLLAMA_MODEL")),
		SDWebUIURL:         strings.TrimRight(v.GetString("SD_WEBUI_URL"), "/"),
		AssetsDir:          assetsDir,
		DatabaseURL:        strings.TrimSpace(v.GetString("DATABASE_URL")),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		HTTPReadTimeout:    time.Second * time.Duration(v.GetInt("HTTP_READ_TIMEOUT_SECONDS")),
		HTTPWriteTimeout:   time.Second * time.Duration(v.GetInt("HTTP_WRITE_TIMEOUT_SECONDS")),
		HTTPIdleTimeout:    time.Second * time.Duration(v.GetInt("HTTP_IDLE_TIMEOUT_SECONDS")),
		UpstreamTimeout:    time.Second * time.Duration(v.GetInt("UPSTREAM_TIMEOUT_SECONDS")),
		ImageConcurrency:   v.GetInt("IMAGE_CONCURRENCY"),
		ImageSteps:         v.GetInt("IMAGE_STEPS"),
		MaxBodyBytes:       v.GetInt64("MAX_BODY_BYTES"),
	}

	if err := requireHTTPURL("OLLAMA_BASE_URL", cfg.OllamaBaseURL); err != nil {
		return nil, err
	}
	if err := requireHTTPURL("SD_WEBUI_URL", cfg.SDWebUIURL); err != nil {
		return nil, err
	}
	if cfg.OllamaModel == "" {
		return nil, fmt.Errorf("OLLAMA_MODEL is required")
	}
	if cfg.ImageConcurrency < 1 {
		return nil, fmt.Errorf("IMAGE_CONCURRENCY must be at least 1")
	}
	if cfg.ImageSteps < 1 {
		return nil, fmt.Errorf("IMAGE_STEPS must be at least 1")
	}
	if cfg.MaxBodyBytes <= 0 {
		return nil, fmt.Errorf("MAX_BODY_BYTES must be positive")
	}

	return cfg, nil
}

func requireHTTPURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%s must be an http(s) url, got %q", key, raw)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
