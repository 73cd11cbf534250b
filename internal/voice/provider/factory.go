package provider

import (
	"context"
	"fmt"
	"os"
)

// apiKeyEnv names the environment variable consulted when a provider config has no api_key
var apiKeyEnv = map[string]string{
	"openai":     "OPENAI_API_KEY",
	"elevenlabs": "ELEVENLABS_API_KEY",
}

// DefaultFactory creates vendor providers by name
type DefaultFactory struct{}

// NewFactory creates a new provider factory
func NewFactory() *DefaultFactory {
	return &DefaultFactory{}
}

// ListProviders returns available provider names
func (f *DefaultFactory) ListProviders() []string {
	return []string{"elevenlabs", "polly", "gcp", "openai"}
}

// CreateProvider creates a provider instance by name. config may be nil.
func (f *DefaultFactory) CreateProvider(ctx context.Context, providerName string, config map[string]interface{}) (Provider, error) {
	settings := make(map[string]interface{}, len(config)+1)
	for k, v := range config {
		settings[k] = v
	}

	if env, ok := apiKeyEnv[providerName]; ok {
		if key, _ := settings["api_key"].(string); key == "" {
			key = os.Getenv(env)
			if key == "" {
				return nil, fmt.Errorf("%s API key not found in config or %s environment variable", providerName, env)
			}
			settings["api_key"] = key
		}
	}

	switch providerName {
	case "elevenlabs":
		return ElevenLabsProviderFromConfig(settings)
	case "openai":
		return OpenAIProviderFromConfig(settings)
	case "polly":
		return PollyProviderFromConfig(ctx, settings)
	case "gcp":
		return GCPProviderFromConfig(ctx, settings)
	default:
		return nil, fmt.Errorf("unknown provider: %s", providerName)
	}
}

// FirstAvailable creates the first provider in names that can be constructed.
// Providers that fail to construct are logged by the caller through the returned errors.
func (f *DefaultFactory) FirstAvailable(ctx context.Context, names []string, configs map[string]map[string]interface{}) (Provider, []error) {
	var errs []error
	for _, name := range names {
		p, err := f.CreateProvider(ctx, name, configs[name])
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		return p, errs
	}
	return nil, errs
}
