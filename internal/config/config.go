package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
)

// ErrMissingAPIKey is returned when the selected LLM provider has no credentials.
var ErrMissingAPIKey = errors.New("llm provider api key is not set")

// Config holds runtime configuration resolved once at startup.
type Config struct {
	// Server
	Port           int           `env:"PORT" envDefault:"8000"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Input limits
	MaxUploadSize      int64 `env:"MAX_UPLOAD_SIZE" envDefault:"20971520"` // 20MB in bytes
	MaxInputTextLength int   `env:"MAX_INPUT_TEXT_LENGTH" envDefault:"10000"`

	// LLM
	LLMProvider         string `env:"LLM_PROVIDER" envDefault:"openai"` // "openai" or "gemini"
	OpenAIKey           string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL       string `env:"OPENAI_BASE_URL"`
	GeminiKey           string `env:"GEMINI_API_KEY"`
	TextModel           string `env:"LLM_TEXT_MODEL"`   // provider default when empty
	VisionModel         string `env:"LLM_VISION_MODEL"` // provider default when empty
	LLMMaxTokens        int    `env:"LLM_MAX_TOKENS" envDefault:"300"`
	LLMVisionMaxTokens  int    `env:"LLM_VISION_MAX_TOKENS" envDefault:"1000"`
	LLMStructuredOutput bool   `env:"LLM_STRUCTURED_OUTPUT" envDefault:"true"`

	// Image normalization
	ImageMaxMB       float64 `env:"IMAGE_MAX_MB" envDefault:"4"`
	ImageJPEGQuality int     `env:"IMAGE_JPEG_QUALITY" envDefault:"85"`
	ImageMaxPixels   int64   `env:"IMAGE_MAX_PIXELS" envDefault:"40000000"` // larger images are never decoded

	// Cache
	CacheProvider string `env:"CACHE_PROVIDER" envDefault:"none"` // "none" or "redis"
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	CacheTTL      int    `env:"CACHE_TTL" envDefault:"3600"` // seconds

	// Events
	EventsProvider string `env:"EVENTS_PROVIDER" envDefault:"none"` // "none" or "nats"
	NATSURL        string `env:"NATS_URL"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}

// APIKey returns the credential for the configured provider, failing with
// ErrMissingAPIKey when it is empty.
func (c Config) APIKey() (string, error) {
	var key, name string
	switch c.LLMProvider {
	case "openai":
		key, name = c.OpenAIKey, "OPENAI_API_KEY"
	case "gemini":
		key, name = c.GeminiKey, "GEMINI_API_KEY"
	default:
		return "", fmt.Errorf("invalid LLM_PROVIDER: %s (valid options: openai, gemini)", c.LLMProvider)
	}
	if key == "" {
		return "", fmt.Errorf("%w: %s is required when LLM_PROVIDER=%s", ErrMissingAPIKey, name, c.LLMProvider)
	}
	return key, nil
}
