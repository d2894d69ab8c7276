package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/manhwa-tools/manhwa-translator/internal/providers"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const completion = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1,
  "model": "gpt-4o",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "{\"blocks\":[]}"}}]
}`

func TestExtractText(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completion))
	}))
	defer srv.Close()

	got, err := New(option.WithBaseURL(srv.URL+"/")).ExtractText(context.Background(), providers.Config{
		Model:     "gpt-4o",
		Prompt:    "translate",
		APIKey:    "sk-test",
		ImageJPEG: "AAAA",
		JSON:      true,
	})

	require.NoError(t, err)
	assert.Equal(t, `{"blocks":[]}`, got)
	assert.Equal(t, "gpt-4o", body["model"])
	assert.Equal(t, map[string]any{"type": "json_object"}, body["response_format"])

	messages := body["messages"].([]any)
	content := messages[0].(map[string]any)["content"].([]any)
	require.Len(t, content, 2)
	image := content[1].(map[string]any)["image_url"].(map[string]any)
	assert.Equal(t, "data:image/jpeg;base64,AAAA", image["url"])
}

func TestExtractTextRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
	}))
	defer srv.Close()

	_, err := New(option.WithBaseURL(srv.URL+"/")).ExtractText(context.Background(), providers.Config{
		Model:  "gpt-4o",
		Prompt: "translate",
		APIKey: "sk-test",
	})
	assert.ErrorIs(t, err, providers.ErrRateLimited)
}
