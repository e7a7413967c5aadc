package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"personal-info-parser/internal/cache"
	"personal-info-parser/internal/config"
	"personal-info-parser/internal/events"
	"personal-info-parser/internal/extract"
	"personal-info-parser/internal/imagenorm"
	"personal-info-parser/internal/llm"
	"personal-info-parser/internal/logger"
	"personal-info-parser/internal/retry"
)

const connectAttempts = 3

// Deps bundles the runtime dependencies of the server.
type Deps struct {
	Config    config.Config
	Log       *slog.Logger
	Extractor *extract.Extractor
	Cache     cache.Cache
	Events    events.Publisher
}

// Close releases infrastructure connections.
func (d Deps) Close() {
	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			d.Log.Warn("cache close failed", "err", err)
		}
	}
	if d.Events != nil {
		if err := d.Events.Close(); err != nil {
			d.Log.Warn("events close failed", "err", err)
		}
	}
}

// Build loads env, config, and shared components. A missing provider credential
// fails here, before the server accepts any traffic.
func Build(ctx context.Context) (Deps, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Deps{}, fmt.Errorf("failed to load .env file: %w", err)
	}
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	client, err := buildLLM(ctx, cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	c := buildCache(ctx, cfg, log)
	pub := buildEvents(ctx, cfg, log)

	ex, err := extract.New(client, extract.Options{
		Log:        log,
		Normalizer: imagenorm.New(cfg.ImageMaxMB, cfg.ImageJPEGQuality, cfg.ImageMaxPixels),
		Cache:      c,
		CacheTTL:   time.Duration(cfg.CacheTTL) * time.Second,
		Events:     pub,
		ModelTag:   cfg.LLMProvider + ":" + cfg.TextModel + ":" + cfg.VisionModel,
	})
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize extractor: %w", err)
	}

	return Deps{
		Config:    cfg,
		Log:       log,
		Extractor: ex,
		Cache:     c,
		Events:    pub,
	}, nil
}

func llmOptions(cfg config.Config) llm.Options {
	return llm.Options{
		TextModel:        cfg.TextModel,
		VisionModel:      cfg.VisionModel,
		MaxTokens:        cfg.LLMMaxTokens,
		VisionMaxTokens:  cfg.LLMVisionMaxTokens,
		StructuredOutput: cfg.LLMStructuredOutput,
		BaseURL:          cfg.OpenAIBaseURL,
	}
}

func buildLLM(ctx context.Context, cfg config.Config, log *slog.Logger) (llm.Client, error) {
	key, err := cfg.APIKey()
	if err != nil {
		return nil, err
	}
	opts := llmOptions(cfg)
	switch cfg.LLMProvider {
	case "openai":
		client, err := llm.NewOpenAIClient(key, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
		}
		log.Info("using OpenAI LLM client", "text_model", cfg.TextModel, "vision_model", cfg.VisionModel, "structured_output", cfg.LLMStructuredOutput)
		return client, nil
	case "gemini":
		opts.BaseURL = ""
		client, err := llm.NewGeminiClient(ctx, key, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
		}
		log.Info("using Gemini LLM client", "text_model", cfg.TextModel, "vision_model", cfg.VisionModel, "structured_output", cfg.LLMStructuredOutput)
		return client, nil
	default:
		return nil, fmt.Errorf("invalid LLM_PROVIDER: %s (valid options: openai, gemini)", cfg.LLMProvider)
	}
}

// buildCache falls back to the no-op cache when Redis is not configured or unreachable.
func buildCache(ctx context.Context, cfg config.Config, log *slog.Logger) cache.Cache {
	switch cfg.CacheProvider {
	case "redis":
		if cfg.RedisAddr == "" {
			log.Warn("REDIS_ADDR not set; caching disabled")
			return cache.NewNoOpCache()
		}
		rc, err := withRetry(ctx, func() (*cache.RedisCache, error) {
			return cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		})
		if err != nil {
			log.Warn("redis unavailable; caching disabled", "err", err)
			return cache.NewNoOpCache()
		}
		log.Info("using Redis cache", "addr", cfg.RedisAddr, "ttl_seconds", cfg.CacheTTL)
		return rc
	case "none", "":
		return cache.NewNoOpCache()
	default:
		log.Warn("unknown CACHE_PROVIDER; caching disabled", "provider", cfg.CacheProvider)
		return cache.NewNoOpCache()
	}
}

// buildEvents falls back to the no-op publisher when NATS is not configured or unreachable.
func buildEvents(ctx context.Context, cfg config.Config, log *slog.Logger) events.Publisher {
	switch cfg.EventsProvider {
	case "nats":
		if cfg.NATSURL == "" {
			log.Warn("NATS_URL not set; events disabled")
			return events.NoOpPublisher{}
		}
		nc, err := withRetry(ctx, func() (*nats.Conn, error) {
			return nats.Connect(cfg.NATSURL, nats.Name("personal-info-parser"))
		})
		if err != nil {
			log.Warn("nats unavailable; events disabled", "err", err)
			return events.NoOpPublisher{}
		}
		log.Info("using NATS events", "subject", events.SubjectExtracted)
		return events.NewNATS(log, nc)
	case "none", "":
		return events.NoOpPublisher{}
	default:
		log.Warn("unknown EVENTS_PROVIDER; events disabled", "provider", cfg.EventsProvider)
		return events.NoOpPublisher{}
	}
}

// withRetry retries an infrastructure connect with exponential backoff.
func withRetry[T any](ctx context.Context, connect func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt < connectAttempts; attempt++ {
		v, err := connect()
		if err == nil {
			return v, nil
		}
		lastErr = err
		if attempt == connectAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(retry.ExponentialBackoff(attempt, 200*time.Millisecond, 2*time.Second)):
		}
	}
	return zero, lastErr
}
