package llm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/snaptoflash/backend/internal/config"
)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o-mini-2024-07-18",
  "choices": [{
    "index": 0,
    "finish_reason": "stop",
    "message": {"role": "assistant", "content": "{\"anki_notes\":[]}"}
  }],
  "usage": {"prompt_tokens": 120, "completion_tokens": 8, "total_tokens": 128}
}`

func newFakeOpenAI(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32, *[]byte) {
	t.Helper()
	var hits atomic.Int32
	var captured []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		captured, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts, &hits, &captured
}

func testConfig(endpoint string) *config.OpenAIConfig {
	return &config.OpenAIConfig{
		Provider:    "openai",
		APIKey:      "sk-test",
		APIEndpoint: endpoint,
		Model:       "gpt-4o-mini",
		MaxTokens:   500,
	}
}

func TestNewOpenAI(t *testing.T) {
	_, err := NewOpenAI(&config.OpenAIConfig{Provider: "openai"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestOpenAIComplete(t *testing.T) {
	t.Run("Should send one deterministic structured request", func(t *testing.T) {
		ts, hits, captured := newFakeOpenAI(t, http.StatusOK, completionBody)
		provider, err := NewOpenAI(testConfig(ts.URL))
		require.NoError(t, err)

		schema := map[string]interface{}{"type": "object"}
		resp, err := provider.Complete(context.Background(), Request{
			System:       "system prompt",
			User:         "user prompt",
			ImageDataURL: "data:image/png;base64,AAAA",
			Schema:       schema,
			SchemaName:   "page_analysis",
		}, WithMaxTokens(321))
		require.NoError(t, err)
		assert.Equal(t, int32(1), hits.Load())

		body := gjson.ParseBytes(*captured)
		assert.Equal(t, "gpt-4o-mini", body.Get("model").String())
		assert.Equal(t, float64(0), body.Get("temperature").Float())
		assert.True(t, body.Get("temperature").Exists())
		assert.Equal(t, int64(321), body.Get("max_tokens").Int())
		assert.Equal(t, "system", body.Get("messages.0.role").String())
		assert.Equal(t, "system prompt", messageText(body.Get("messages.0.content")))
		assert.Equal(t, "user", body.Get("messages.1.role").String())
		assert.Equal(t, "user prompt", messageText(body.Get("messages.1.content")))
		assert.Equal(t, "data:image/png;base64,AAAA", body.Get(`messages.1.content.#(type=="image_url").image_url.url`).String())
		assert.Equal(t, "json_schema", body.Get("response_format.type").String())
		assert.Equal(t, "page_analysis", body.Get("response_format.json_schema.name").String())
		assert.True(t, body.Get("response_format.json_schema.strict").Bool())
		assert.Equal(t, "object", body.Get("response_format.json_schema.schema.type").String())

		assert.Equal(t, `{"anki_notes":[]}`, resp.Content)
		assert.Equal(t, "stop", resp.FinishReason)
		assert.Equal(t, "gpt-4o-mini-2024-07-18", resp.Model)
		assert.Equal(t, Usage{PromptTokens: 120, CompletionTokens: 8, TotalTokens: 128}, resp.Usage)
	})

	t.Run("Should send a plain user message without an image", func(t *testing.T) {
		ts, _, captured := newFakeOpenAI(t, http.StatusOK, completionBody)
		provider, err := NewOpenAI(testConfig(ts.URL + "/"))
		require.NoError(t, err)

		_, err = provider.Complete(context.Background(), Request{System: "s", User: "hello"}, WithModel("gpt-4o"))
		require.NoError(t, err)

		body := gjson.ParseBytes(*captured)
		assert.Equal(t, "gpt-4o", body.Get("model").String())
		assert.Equal(t, "hello", messageText(body.Get("messages.1.content")))
		assert.False(t, body.Get("response_format").Exists())
	})

	t.Run("Should not retry failed requests", func(t *testing.T) {
		ts, hits, _ := newFakeOpenAI(t, http.StatusInternalServerError, `{"error":{"message":"boom","type":"server_error"}}`)
		provider, err := NewOpenAI(testConfig(ts.URL))
		require.NoError(t, err)

		_, err = provider.Complete(context.Background(), Request{User: "u"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "openai status 500")
		assert.Equal(t, int32(1), hits.Load())
	})

	t.Run("Should report an empty choice list", func(t *testing.T) {
		ts, _, _ := newFakeOpenAI(t, http.StatusOK, `{"id":"x","object":"chat.completion","model":"m","choices":[]}`)
		provider, err := NewOpenAI(testConfig(ts.URL))
		require.NoError(t, err)

		_, err = provider.Complete(context.Background(), Request{User: "u"})
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})
}

func TestWithTrailingSlash(t *testing.T) {
	assert.Equal(t, "https://api.openai.com/v1/", withTrailingSlash("https://api.openai.com/v1"))
	assert.Equal(t, "http://x/", withTrailingSlash("http://x/"))
	assert.Equal(t, "", withTrailingSlash(""))
}

// messageText reads message content sent either as a string or as parts.
func messageText(content gjson.Result) string {
	if !content.IsArray() {
		return content.String()
	}
	return content.Get(`#(type=="text").text`).String()
}
