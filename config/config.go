// Package config loads the runtime configuration for the quoter app from
// environment variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// ErrMissingCredential is matched (via errors.Is) by every ConfigError raised
// for an absent external-service credential.
var ErrMissingCredential = errors.New("config: missing credential")

// ConfigError reports a configuration value that a specific operation needs
// but that was not supplied.
type ConfigError struct {
	Key     string
	Message string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Key, e.Message)
}

// Is lets errors.Is(err, ErrMissingCredential) match any ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingCredential
}

// Config holds application configuration loaded from the environment.
type Config struct {
	LogLevel  string
	LogFormat string

	GeminiAPIKey   string
	GeminiModel    string
	ExtractTimeout time.Duration

	QuoteValidDays int
	MaxUploadBytes int64
}

// DefaultExtractTimeout bounds a single document-understanding request.
const DefaultExtractTimeout = 90 * time.Second

// DefaultValidDays is how long a quotation stays valid when neither the
// request nor QUOTER_VALID_DAYS says otherwise.
const DefaultValidDays = 14

const (
	defaultGeminiModel = "gemini-2.5-flash"
	defaultMaxUploadMB = 20
)

// Load reads configuration from environment variables and optional .env files.
// A missing Gemini key is not an error here: only the extraction path needs
// it, and it asks for it through RequireGeminiKey.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		LogLevel:       valueOrDefault(k.String("QUOTER_LOG_LEVEL"), "info"),
		LogFormat:      valueOrDefault(k.String("QUOTER_LOG_FORMAT"), "console"),
		GeminiAPIKey:   strings.TrimSpace(k.String("GEMINI_API_KEY")),
		GeminiModel:    valueOrDefault(k.String("GEMINI_MODEL"), defaultGeminiModel),
		ExtractTimeout: parseDuration(k.String("QUOTER_EXTRACT_TIMEOUT"), DefaultExtractTimeout),
		QuoteValidDays: parsePositiveInt(k.String("QUOTER_VALID_DAYS"), DefaultValidDays),
		MaxUploadBytes: int64(parsePositiveInt(k.String("QUOTER_MAX_UPLOAD_MB"), defaultMaxUploadMB)) << 20,
	}

	return cfg, nil
}

// Default returns the configuration used when nothing is set in the
// environment. Tests and the offline CLI start from it.
func Default() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "console",
		GeminiModel:    defaultGeminiModel,
		ExtractTimeout: DefaultExtractTimeout,
		QuoteValidDays: DefaultValidDays,
		MaxUploadBytes: defaultMaxUploadMB << 20,
	}
}

// RequireGeminiKey returns the document-understanding API key or a
// ConfigError when it is absent.
func (c *Config) RequireGeminiKey() (string, error) {
	if c == nil || c.GeminiAPIKey == "" {
		return "", &ConfigError{
			Key:     "GEMINI_API_KEY",
			Message: "environment variable is missing; add it to your .env file",
		}
	}
	return c.GeminiAPIKey, nil
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		return fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parsePositiveInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
