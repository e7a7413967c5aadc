package llm

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"personal-info-parser/internal/config"
	"personal-info-parser/internal/model"
)

// OpenAIClient calls the OpenAI Chat Completions API.
type OpenAIClient struct {
	opts   Options
	client *openai.Client
}

// NewOpenAIClient builds a client with defaults against api.openai.com (or opts.BaseURL).
func NewOpenAIClient(apiKey string, opts Options) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: %w", config.ErrMissingAPIKey)
	}
	opts = opts.withDefaults(string(openai.ChatModelGPT4oMini), string(openai.ChatModelGPT4o))
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// a failed call degrades to an empty result; callers retry if they want to
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	cli := openai.NewClient(reqOpts...)
	return &OpenAIClient{
		opts:   opts,
		client: &cli,
	}, nil
}

func (c *OpenAIClient) ExtractFields(ctx context.Context, text string, fields []string) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("nil openai client")
	}
	reqCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(c.opts.TextModel),
		Messages:            buildMessages(SystemPrompt(fields), UserPrompt(text)),
		Temperature:         openai.Float(extractTemperature),
		MaxCompletionTokens: openai.Int(int64(c.opts.MaxTokens)),
		ResponseFormat:      responseFormat(fields, c.opts.StructuredOutput),
	}
	resp, err := c.client.Chat.Completions.New(reqCtx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices returned")
	}
	if refusal := resp.Choices[0].Message.Refusal; refusal != "" {
		return "", fmt.Errorf("openai: model refused: %s", refusal)
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) DescribeImage(ctx context.Context, image []byte, mimeType string) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("nil openai client")
	}
	reqCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)
	messages := []openai.ChatCompletionMessageParamUnion{
		{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfArrayOfContentParts: []openai.ChatCompletionContentPartUnionParam{
						openai.TextContentPart(VisionPrompt()),
						openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
					},
				},
			},
		},
	}
	resp, err := c.client.Chat.Completions.New(reqCtx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(c.opts.VisionModel),
		Messages:            messages,
		Temperature:         openai.Float(extractTemperature),
		MaxCompletionTokens: openai.Int(int64(c.opts.VisionMaxTokens)),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

func responseFormat(fields []string, structured bool) openai.ChatCompletionNewParamsResponseFormatUnion {
	if !structured {
		return openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}
	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:        schemaName,
				Description: openai.String("Personal information extracted from the input"),
				Schema:      model.JSONSchema(fields),
				Strict:      openai.Bool(true),
			},
		},
	}
}

func buildMessages(system, user string) []openai.ChatCompletionMessageParamUnion {
	return []openai.ChatCompletionMessageParamUnion{
		{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: openai.String(system),
				},
			},
		},
		{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfString: openai.String(user),
				},
			},
		},
	}
}
