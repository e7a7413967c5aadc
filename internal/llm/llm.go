package llm

import (
	"context"
	"time"
)

// Client is the provider contract used by the extractor. Implementations return the
// raw model output; parsing and scoring happen in the caller.
type Client interface {
	// ExtractFields asks the text model for a JSON object holding the given fields.
	ExtractFields(ctx context.Context, text string, fields []string) (string, error)
	// DescribeImage asks the vision model for a plain-text transcript of an identity document.
	DescribeImage(ctx context.Context, image []byte, mimeType string) (string, error)
}

// Options are the decoding settings shared by every provider.
type Options struct {
	TextModel        string
	VisionModel      string
	MaxTokens        int
	VisionMaxTokens  int
	StructuredOutput bool
	Timeout          time.Duration
	BaseURL          string
}

const (
	defaultCallTimeout     = 30 * time.Second
	defaultMaxTokens       = 300
	defaultVisionMaxTokens = 1000

	// Extraction is deterministic decoding.
	extractTemperature = 0.0
)

func (o Options) withDefaults(textModel, visionModel string) Options {
	if o.TextModel == "" {
		o.TextModel = textModel
	}
	if o.VisionModel == "" {
		o.VisionModel = visionModel
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = defaultMaxTokens
	}
	if o.VisionMaxTokens <= 0 {
		o.VisionMaxTokens = defaultVisionMaxTokens
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultCallTimeout
	}
	return o
}
