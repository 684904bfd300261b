// Package registry provides a registry for answer backends
package registry

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/tmc/stepchat/answer"
	"github.com/tmc/stepchat/options"
)

// BackendConstructor is a function that creates a new answer service
type BackendConstructor func(*options.Config, *options.InferenceProviderOptions) (answer.Service, error)

// ModelConstructor creates a langchaingo model for a backend.
type ModelConstructor func(*options.Config, *options.InferenceProviderOptions) (llms.Model, error)

// Registry holds all the registered backend constructors
var registry = map[string]BackendConstructor{}

// Register registers a new backend constructor
func Register(name string, constructor BackendConstructor) {
	registry[name] = constructor
}

// RegisterModel registers a backend built on a langchaingo model. Requests
// to it carry the configured model, system prompt and sampling options.
func RegisterModel(name string, constructor ModelConstructor) {
	Register(name, func(cfg *options.Config, opts *options.InferenceProviderOptions) (answer.Service, error) {
		model, err := constructor(cfg, opts)
		if err != nil {
			return nil, err
		}
		return answer.NewModelService(model, answer.ModelOptions{
			Model:        cfg.Model,
			SystemPrompt: cfg.SystemPrompt,
			MaxTokens:    cfg.MaxTokens,
			Temperature:  cfg.Temperature,
			PlainText:    cfg.PlainText,
		}), nil
	})
}

// Get returns a backend constructor by name
func Get(name string) (BackendConstructor, bool) {
	constructor, ok := registry[name]
	return constructor, ok
}

// Names returns the registered backend names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithHTTPClient returns an option to set the HTTP client for the inference provider
func WithHTTPClient(client *http.Client) options.InferenceProviderOption {
	return func(opts *options.InferenceProviderOptions) {
		opts.HTTPClient = client
	}
}

// WithUseLegacyMaxTokens returns an option to use legacy max tokens behavior for OpenAI
func WithUseLegacyMaxTokens(useLegacy bool) options.InferenceProviderOption {
	return func(opts *options.InferenceProviderOptions) {
		opts.UseLegacyMaxTokens = useLegacy
	}
}

// WithEnvLookup returns an option to set how API keys are read from the environment
func WithEnvLookup(lookup func(string) string) options.InferenceProviderOption {
	return func(opts *options.InferenceProviderOptions) {
		opts.EnvLookupFunc = lookup
	}
}

// InitializeBackend creates the bare answer service for the configured backend.
func InitializeBackend(cfg *options.Config, providerOpts ...options.InferenceProviderOption) (answer.Service, error) {
	opts := options.NewInferenceProviderOptions(providerOpts...)
	constructor, ok := registry[cfg.Backend]
	if !ok {
		return nil, fmt.Errorf("%w: %q", options.ErrUnknownBackend, cfg.Backend)
	}
	return constructor(cfg, opts)
}

// InitializeService creates the configured backend and wraps it with retry
// and rate limiting. Every attempt, retries included, waits for the limiter.
func InitializeService(cfg *options.Config, log *zap.SugaredLogger, providerOpts ...options.InferenceProviderOption) (answer.Service, error) {
	svc, err := InitializeBackend(cfg, providerOpts...)
	if err != nil {
		return nil, err
	}
	limited := answer.NewRateLimited(svc, cfg.RateLimit)
	return answer.NewRetrying(limited, cfg.Retry(), log), nil
}
