package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"PORT", "LOG_LEVEL", "LLM_PROVIDER", "MAX_UPLOAD_SIZE", "LLM_MAX_TOKENS",
		"LLM_STRUCTURED_OUTPUT", "IMAGE_MAX_MB", "IMAGE_MAX_PIXELS", "CACHE_PROVIDER", "EVENTS_PROVIDER",
		"REQUEST_TIMEOUT", "CORS_ALLOWED_ORIGINS", "LLM_TEXT_MODEL",
	} {
		t.Setenv(k, "")
	}

	cfg := Load()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Port", cfg.Port, 8000},
		{"LogLevel", cfg.LogLevel, "info"},
		{"LLMProvider", cfg.LLMProvider, "openai"},
		{"MaxUploadSize", cfg.MaxUploadSize, int64(20 * 1024 * 1024)},
		{"LLMMaxTokens", cfg.LLMMaxTokens, 300},
		{"LLMStructuredOutput", cfg.LLMStructuredOutput, true},
		{"ImageMaxMB", cfg.ImageMaxMB, 4.0},
		{"ImageMaxPixels", cfg.ImageMaxPixels, int64(40_000_000)},
		{"CacheProvider", cfg.CacheProvider, "none"},
		{"EventsProvider", cfg.EventsProvider, "none"},
		{"RequestTimeout", cfg.RequestTimeout, 60 * time.Second},
		{"TextModel", cfg.TextModel, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("expected %s=%v, got %v", tt.name, tt.expected, tt.got)
			}
		})
	}

	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Errorf("expected AllowedOrigins=[*], got %v", cfg.AllowedOrigins)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LLM_VISION_MODEL", "gpt-4.1")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,https://example.com")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.LogLevel)
	}
	if cfg.VisionModel != "gpt-4.1" {
		t.Errorf("expected vision model 'gpt-4.1', got %s", cfg.VisionModel)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Errorf("expected 2 origins, got %v", cfg.AllowedOrigins)
	}
}

func TestAPIKey(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		want        string
		wantMissing bool
		wantErr     bool
	}{
		{name: "openai key set", cfg: Config{LLMProvider: "openai", OpenAIKey: "sk-test"}, want: "sk-test"},
		{name: "openai key missing", cfg: Config{LLMProvider: "openai", GeminiKey: "g"}, wantMissing: true, wantErr: true},
		{name: "gemini key set", cfg: Config{LLMProvider: "gemini", GeminiKey: "g-test"}, want: "g-test"},
		{name: "gemini key missing", cfg: Config{LLMProvider: "gemini"}, wantMissing: true, wantErr: true},
		{name: "unknown provider", cfg: Config{LLMProvider: "groq", OpenAIKey: "x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.APIKey()
			if (err != nil) != tt.wantErr {
				t.Fatalf("APIKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if errors.Is(err, ErrMissingAPIKey) != tt.wantMissing {
				t.Errorf("errors.Is(err, ErrMissingAPIKey) = %v, want %v", !tt.wantMissing, tt.wantMissing)
			}
			if got != tt.want {
				t.Errorf("APIKey() = %q, want %q", got, tt.want)
			}
		})
	}
}
