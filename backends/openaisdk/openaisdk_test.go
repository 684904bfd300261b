package openaisdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmc/stepchat/answer"
	"github.com/tmc/stepchat/options"
)

const completion = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o-mini",
  "choices": [{
    "index": 0,
    "finish_reason": "stop",
    "message": {"role": "assistant", "content": "  Step 1 - Open settings\n"}
  }]
}`

type chatRequest struct {
	Model               string `json:"model"`
	MaxCompletionTokens int    `json:"max_completion_tokens"`
	MaxTokens           int    `json:"max_tokens"`
	Messages            []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newService(t *testing.T, cfg *options.Config, legacy bool, handler http.HandlerFunc) answer.Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg.OpenAIBaseURL = srv.URL + "/v1"
	opts := options.NewInferenceProviderOptions(func(o *options.InferenceProviderOptions) {
		o.HTTPClient = srv.Client()
		o.UseLegacyMaxTokens = legacy
		o.EnvLookupFunc = func(string) string { return "test-key" }
	})
	svc, err := Constructor(cfg, opts)
	require.NoError(t, err)
	return svc
}

func TestAnswer(t *testing.T) {
	var got chatRequest
	var auth string
	svc := newService(t, &options.Config{SystemPrompt: "Answer in steps.", MaxTokens: 256}, false,
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/chat/completions", r.URL.Path)
			auth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(completion))
		})

	text, err := svc.Answer(context.Background(), answer.Request{Query: "how do I reset my password?"})
	require.NoError(t, err)
	assert.Equal(t, "Step 1 - Open settings", text)
	assert.Equal(t, "Bearer test-key", auth)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, 256, got.MaxCompletionTokens)
	assert.Zero(t, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "Answer in steps.", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "how do I reset my password?", got.Messages[1].Content)
}

func TestAnswerLegacyMaxTokens(t *testing.T) {
	var got chatRequest
	svc := newService(t, &options.Config{Model: "gpt-4", MaxTokens: 64}, true,
		func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(completion))
		})

	_, err := svc.Answer(context.Background(), answer.Request{Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4", got.Model)
	assert.Equal(t, 64, got.MaxTokens)
	assert.Zero(t, got.MaxCompletionTokens)
	require.Len(t, got.Messages, 1)
}

func TestAnswerImageOnly(t *testing.T) {
	var got chatRequest
	svc := newService(t, &options.Config{}, false, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completion))
	})

	att := &answer.Attachment{Name: "a.png", MIMEType: "image/png", Data: []byte("png")}
	_, err := svc.Answer(context.Background(), answer.Request{Attachment: att})
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	assert.NotEmpty(t, got.Messages[0].Content)
}

func TestAnswerStatusError(t *testing.T) {
	svc := newService(t, &options.Config{}, false, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
	})

	_, err := svc.Answer(context.Background(), answer.Request{Query: "q"})
	var se *answer.StatusError
	require.True(t, errors.As(err, &se), "want StatusError, got %v", err)
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
	assert.True(t, se.Temporary())
}

func TestAnswerNoChoices(t *testing.T) {
	svc := newService(t, &options.Config{}, false, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	})

	text, err := svc.Answer(context.Background(), answer.Request{Query: "q"})
	require.NoError(t, err)
	assert.Empty(t, text)
}
