// Package backends provides a unified interface to the answer backends
package backends

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/tmc/stepchat/answer"
	"github.com/tmc/stepchat/backends/registry"
	"github.com/tmc/stepchat/options"

	// Register all backends
	_ "github.com/tmc/stepchat/backends/anthropic"
	_ "github.com/tmc/stepchat/backends/dummy"
	_ "github.com/tmc/stepchat/backends/googleai"
	_ "github.com/tmc/stepchat/backends/httpapi"
	_ "github.com/tmc/stepchat/backends/ollama"
	_ "github.com/tmc/stepchat/backends/openai"
	_ "github.com/tmc/stepchat/backends/openaisdk"
)

type InferenceProviderOption = options.InferenceProviderOption

// InitializeService initializes the answer service for the given
// configuration, wrapped with retries and rate limiting.
func InitializeService(cfg *options.Config, log *zap.SugaredLogger, providerOpts ...options.InferenceProviderOption) (answer.Service, error) {
	return registry.InitializeService(cfg, log, providerOpts...)
}

// Names lists the registered backends.
func Names() []string {
	return registry.Names()
}

// WithHTTPClient returns an option to set the HTTP client for the inference provider
func WithHTTPClient(client *http.Client) options.InferenceProviderOption {
	return registry.WithHTTPClient(client)
}

// WithUseLegacyMaxTokens returns an option to use legacy max tokens behavior for OpenAI
func WithUseLegacyMaxTokens(useLegacy bool) options.InferenceProviderOption {
	return registry.WithUseLegacyMaxTokens(useLegacy)
}
