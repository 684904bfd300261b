// Package googleai provides the Google AI backend implementation
package googleai

import (
	"context"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"github.com/tmc/stepchat/backends/registry"
	"github.com/tmc/stepchat/options"
)

func init() {
	registry.RegisterModel("googleai", Constructor)
}

// Constructor creates a new GoogleAI backend
func Constructor(cfg *options.Config, opts *options.InferenceProviderOptions) (llms.Model, error) {
	googleOpts := []googleai.Option{
		googleai.WithAPIKey(opts.APIKey(cfg.GoogleAPIKey, "GOOGLE_API_KEY")),
		googleai.WithDefaultModel(cfg.Model),
	}
	if cfg.MaxTokens > 0 {
		googleOpts = append(googleOpts, googleai.WithDefaultMaxTokens(cfg.MaxTokens))
	}
	if opts.HTTPClient != nil {
		googleOpts = append(googleOpts, googleai.WithHTTPClient(opts.HTTPClient))
	}
	return googleai.New(context.Background(), googleOpts...)
}
