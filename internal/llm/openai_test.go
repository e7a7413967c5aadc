package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"personal-info-parser/internal/config"
	"personal-info-parser/internal/model"
)

// fakeOpenAI serves /chat/completions, recording the last request body.
func fakeOpenAI(t *testing.T, status int, content string) (*httptest.Server, *map[string]any) {
	t.Helper()
	var last map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		last = map[string]any{}
		_ = json.Unmarshal(body, &last)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		resp := map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "gpt-4o-mini",
			"choices": []any{
				map[string]any{
					"index":         0,
					"finish_reason": "stop",
					"message":       map[string]any{"role": "assistant", "content": content},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &last
}

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	_, err := NewOpenAIClient("", Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrMissingAPIKey))
}

func TestOpenAIExtractFieldsStructured(t *testing.T) {
	srv, last := fakeOpenAI(t, http.StatusOK, `{"name":"Sergio Ramos"}`)

	c, err := NewOpenAIClient("sk-test", Options{BaseURL: srv.URL + "/v1/", StructuredOutput: true, MaxTokens: 300})
	require.NoError(t, err)

	out, err := c.ExtractFields(context.Background(), "My name is Sergio Ramos", model.TextFields)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Sergio Ramos"}`, out)

	req := *last
	assert.Equal(t, "gpt-4o-mini", req["model"])
	assert.EqualValues(t, 0, req["temperature"])
	assert.EqualValues(t, 300, req["max_completion_tokens"])

	rf, ok := req["response_format"].(map[string]any)
	require.True(t, ok, "response_format missing")
	assert.Equal(t, "json_schema", rf["type"])
	js := rf["json_schema"].(map[string]any)
	assert.Equal(t, "personal_info", js["name"])
	assert.Equal(t, true, js["strict"])

	msgs := req["messages"].([]any)
	require.Len(t, msgs, 2)
	user := msgs[1].(map[string]any)
	assert.Equal(t, "user", user["role"])
	assert.Contains(t, user["content"], "My name is Sergio Ramos")
}

func TestOpenAIExtractFieldsFreeForm(t *testing.T) {
	srv, last := fakeOpenAI(t, http.StatusOK, "{}")

	c, err := NewOpenAIClient("sk-test", Options{BaseURL: srv.URL + "/v1/", TextModel: "gpt-4.1-mini"})
	require.NoError(t, err)

	_, err = c.ExtractFields(context.Background(), "hello", model.TextFields)
	require.NoError(t, err)

	req := *last
	assert.Equal(t, "gpt-4.1-mini", req["model"])
	rf := req["response_format"].(map[string]any)
	assert.Equal(t, "json_object", rf["type"])
}

func TestOpenAIExtractFieldsProviderError(t *testing.T) {
	srv, _ := fakeOpenAI(t, http.StatusInternalServerError, "")

	c, err := NewOpenAIClient("sk-test", Options{BaseURL: srv.URL + "/v1/"})
	require.NoError(t, err)

	_, err = c.ExtractFields(context.Background(), "hello", model.TextFields)
	assert.Error(t, err)
}

func TestOpenAIDescribeImage(t *testing.T) {
	srv, last := fakeOpenAI(t, http.StatusOK, "Name: Jane Doe\nDOB: 01/02/1990")

	c, err := NewOpenAIClient("sk-test", Options{BaseURL: srv.URL + "/v1/"})
	require.NoError(t, err)

	out, err := c.DescribeImage(context.Background(), []byte{0xff, 0xd8, 0xff}, "image/jpeg")
	require.NoError(t, err)
	assert.Contains(t, out, "Jane Doe")

	req := *last
	assert.Equal(t, "gpt-4o", req["model"])
	assert.Nil(t, req["response_format"])

	msgs := req["messages"].([]any)
	require.Len(t, msgs, 1)
	parts := msgs[0].(map[string]any)["content"].([]any)
	require.Len(t, parts, 2)
	img := parts[1].(map[string]any)
	assert.Equal(t, "image_url", img["type"])
	url := img["image_url"].(map[string]any)["url"].(string)
	assert.True(t, strings.HasPrefix(url, "data:image/jpeg;base64,"), url)
}

func TestSystemPromptNamesEveryField(t *testing.T) {
	p := SystemPrompt(model.DocumentFields)
	for _, f := range model.DocumentFields {
		assert.Contains(t, p, f)
	}
	assert.Contains(t, p, "null")
	assert.Equal(t, "Extract personal information from this text: hi", UserPrompt("hi"))
}

func TestGeminiSchema(t *testing.T) {
	s := geminiSchema(model.TextFields)
	assert.Len(t, s.Properties, len(model.TextFields))
	assert.Equal(t, model.TextFields, s.Required)
	for _, p := range s.Properties {
		require.NotNil(t, p.Nullable)
		assert.True(t, *p.Nullable)
	}
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), "", Options{})
	assert.ErrorIs(t, err, config.ErrMissingAPIKey)
}
