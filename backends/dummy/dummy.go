// Package dummy provides a dummy backend for testing
package dummy

import (
	"github.com/tmc/langchaingo/llms"

	"github.com/tmc/stepchat/backends/registry"
	"github.com/tmc/stepchat/options"
)

func init() {
	registry.RegisterModel("dummy", Constructor)
}

// Constructor creates a new dummy backend
func Constructor(cfg *options.Config, opts *options.InferenceProviderOptions) (llms.Model, error) {
	backend, err := NewDummyBackend()
	if err != nil {
		return nil, err
	}
	backend.SlowResponses = cfg.SlowResponses
	return backend, nil
}
