// Package anthropic provides the Anthropic backend implementation
package anthropic

import (
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"

	"github.com/tmc/stepchat/backends/registry"
	"github.com/tmc/stepchat/options"
)

func init() {
	registry.RegisterModel("anthropic", Constructor)
}

// Constructor creates a new Anthropic backend
func Constructor(cfg *options.Config, opts *options.InferenceProviderOptions) (llms.Model, error) {
	anthropicOpts := []anthropic.Option{
		anthropic.WithToken(opts.APIKey(cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")),
	}
	if cfg.Model != "" {
		anthropicOpts = append(anthropicOpts, anthropic.WithModel(cfg.Model))
	}
	if opts.HTTPClient != nil {
		anthropicOpts = append(anthropicOpts, anthropic.WithHTTPClient(opts.HTTPClient))
	}
	return anthropic.New(anthropicOpts...)
}
