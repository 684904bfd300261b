// Package openaisdk provides a backend on the official OpenAI Go SDK.
//
// It is registered as "openai-sdk" and speaks chat completions only. Image
// attachments are not forwarded; the query text is answered alone.
package openaisdk

import (
	"context"
	"errors"
	"net/http"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/tmc/stepchat/answer"
	"github.com/tmc/stepchat/backends/registry"
	"github.com/tmc/stepchat/options"
)

func init() {
	registry.Register("openai-sdk", Constructor)
}

// Client answers requests with chat completions.
type Client struct {
	client       openai.Client
	model        string
	systemPrompt string
	maxTokens    int
	temperature  float64
	legacyTokens bool
	plainText    bool
}

// Constructor creates a new OpenAI SDK backend.
func Constructor(cfg *options.Config, opts *options.InferenceProviderOptions) (answer.Service, error) {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey(cfg.OpenAIAPIKey, "OPENAI_API_KEY")),
		// Retries are handled by the answer service wrapper.
		option.WithMaxRetries(0),
	}
	if cfg.OpenAIBaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.OpenAIBaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	model := cfg.Model
	if model == "" {
		model = options.DefaultModels["openai-sdk"]
	}
	return &Client{
		client:       openai.NewClient(reqOpts...),
		model:        model,
		systemPrompt: cfg.SystemPrompt,
		maxTokens:    cfg.MaxTokens,
		temperature:  cfg.Temperature,
		legacyTokens: opts.UseLegacyMaxTokens,
		plainText:    cfg.PlainText,
	}, nil
}

// Answer implements answer.Service.
func (c *Client) Answer(ctx context.Context, req answer.Request) (string, error) {
	query := req.Query
	if query == "" && req.HasImage() {
		query = "Describe the attached image."
	}
	var msgs []openai.ChatCompletionMessageParamUnion
	if c.systemPrompt != "" {
		msgs = append(msgs, openai.SystemMessage(c.systemPrompt))
	}
	msgs = append(msgs, openai.UserMessage(query))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: msgs,
	}
	if c.maxTokens > 0 {
		if c.legacyTokens {
			params.MaxTokens = openai.Int(int64(c.maxTokens))
		} else {
			params.MaxCompletionTokens = openai.Int(int64(c.maxTokens))
		}
	}
	if c.temperature > 0 {
		params.Temperature = openai.Float(c.temperature)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &answer.StatusError{Code: apiErr.StatusCode, Status: http.StatusText(apiErr.StatusCode)}
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if c.plainText {
		text = answer.Plain(text)
	}
	return text, nil
}
