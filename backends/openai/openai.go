// Package openai provides the OpenAI backend implementation
package openai

import (
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/tmc/stepchat/backends/registry"
	"github.com/tmc/stepchat/options"
)

func init() {
	registry.RegisterModel("openai", Constructor)
}

// Constructor creates a new OpenAI backend
func Constructor(cfg *options.Config, opts *options.InferenceProviderOptions) (llms.Model, error) {
	openaiOpts := []openai.Option{
		openai.WithToken(opts.APIKey(cfg.OpenAIAPIKey, "OPENAI_API_KEY")),
	}
	if cfg.Model != "" {
		openaiOpts = append(openaiOpts, openai.WithModel(cfg.Model))
	}
	if opts.HTTPClient != nil {
		openaiOpts = append(openaiOpts, openai.WithHTTPClient(opts.HTTPClient))
	}
	if opts.UseLegacyMaxTokens {
		openaiOpts = append(openaiOpts, openai.WithUseLegacyMaxTokens(true))
	}
	return openai.New(openaiOpts...)
}
