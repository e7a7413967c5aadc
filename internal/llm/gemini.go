package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"personal-info-parser/internal/config"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiClient calls the Gemini API through the genai SDK.
type GeminiClient struct {
	opts   Options
	client *genai.Client
}

// NewGeminiClient creates a Gemini API backed client.
func NewGeminiClient(ctx context.Context, apiKey string, opts Options) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w", config.ErrMissingAPIKey)
	}
	opts = opts.withDefaults(defaultGeminiModel, defaultGeminiModel)
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{opts: opts, client: client}, nil
}

func (g *GeminiClient) ExtractFields(ctx context.Context, text string, fields []string) (string, error) {
	if g == nil || g.client == nil {
		return "", fmt.Errorf("nil gemini client")
	}
	reqCtx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	cfg := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr[float32](extractTemperature),
		MaxOutputTokens:   int32(g.opts.MaxTokens),
		SystemInstruction: genai.NewContentFromText(SystemPrompt(fields), genai.RoleUser),
		ResponseMIMEType:  "application/json",
	}
	if g.opts.StructuredOutput {
		cfg.ResponseSchema = geminiSchema(fields)
	}

	resp, err := g.client.Models.GenerateContent(reqCtx, g.opts.TextModel, genai.Text(UserPrompt(text)), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("gemini: nil response")
	}
	return resp.Text(), nil
}

func (g *GeminiClient) DescribeImage(ctx context.Context, image []byte, mimeType string) (string, error) {
	if g == nil || g.client == nil {
		return "", fmt.Errorf("nil gemini client")
	}
	reqCtx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	parts := []*genai.Part{
		genai.NewPartFromText(VisionPrompt()),
		genai.NewPartFromBytes(image, mimeType),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](extractTemperature),
		MaxOutputTokens: int32(g.opts.VisionMaxTokens),
	}

	resp, err := g.client.Models.GenerateContent(reqCtx, g.opts.VisionModel, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("gemini: nil response")
	}
	return resp.Text(), nil
}

func geminiSchema(fields []string) *genai.Schema {
	props := make(map[string]*genai.Schema, len(fields))
	for _, f := range fields {
		props[f] = &genai.Schema{
			Type:     genai.TypeString,
			Nullable: genai.Ptr(true),
		}
	}
	required := make([]string, len(fields))
	copy(required, fields)
	return &genai.Schema{
		Type:             genai.TypeObject,
		Properties:       props,
		Required:         required,
		PropertyOrdering: required,
	}
}
