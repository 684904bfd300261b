package options

import (
	"net/http"
)

// InferenceProviderOptions contains options for model initialization.
type InferenceProviderOptions struct {
	// HTTPClient is the HTTP client to use for the model.
	HTTPClient *http.Client

	// EnvLookupFunc looks up API keys when the config carries none.
	EnvLookupFunc func(string) string

	// UseLegacyMaxTokens controls whether to use max_tokens vs max_output_tokens for openai backends
	UseLegacyMaxTokens bool
}

// InferenceProviderOption is a function that modifies the model options.
type InferenceProviderOption func(*InferenceProviderOptions)

// NewInferenceProviderOptions applies opts over the defaults.
func NewInferenceProviderOptions(opts ...InferenceProviderOption) *InferenceProviderOptions {
	o := &InferenceProviderOptions{EnvLookupFunc: Getenv}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// APIKey returns the configured key, falling back to the environment
// variable env.
func (o *InferenceProviderOptions) APIKey(configured, env string) string {
	if configured != "" {
		return configured
	}
	if o == nil || o.EnvLookupFunc == nil {
		return Getenv(env)
	}
	return o.EnvLookupFunc(env)
}
