package am

import (
	"github.com/teranos/prompttask/errors"
)

var validProviders = map[string]bool{
	"":           true, // treated as auto
	"auto":       true,
	"openrouter": true,
	"anthropic":  true,
	"local":      true,
	"echo":       true,
}

var validMemoryBackends = map[string]bool{
	"":                  true, // treated as none
	MemoryBackendNone:   true,
	MemoryBackendMemory: true,
	MemoryBackendSQLite: true,
	MemoryBackendBolt:   true,
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if !validProviders[c.Driver.Provider] {
		return errors.NewConfigurationError("driver.provider %q is not one of auto, openrouter, anthropic, local, echo", c.Driver.Provider)
	}
	if c.Driver.RequestsPerMinute < 0 {
		return errors.NewConfigurationError("driver.requests_per_minute must be >= 0, got %d", c.Driver.RequestsPerMinute)
	}
	if c.Driver.MaxRetries < 0 {
		return errors.NewConfigurationError("driver.max_retries must be >= 0, got %d", c.Driver.MaxRetries)
	}

	if c.OpenRouter.Temperature != nil && (*c.OpenRouter.Temperature < 0 || *c.OpenRouter.Temperature > 2) {
		return errors.NewConfigurationError("openrouter.temperature must be within [0, 2], got %f", *c.OpenRouter.Temperature)
	}
	if c.OpenRouter.MaxTokens != nil && *c.OpenRouter.MaxTokens <= 0 {
		return errors.NewConfigurationError("openrouter.max_tokens must be > 0, got %d (omit for default)", *c.OpenRouter.MaxTokens)
	}
	if c.Anthropic.Temperature < 0 || c.Anthropic.Temperature > 1 {
		return errors.NewConfigurationError("anthropic.temperature must be within [0, 1], got %f", c.Anthropic.Temperature)
	}
	if c.Anthropic.MaxTokens < 0 {
		return errors.NewConfigurationError("anthropic.max_tokens must be >= 0, got %d", c.Anthropic.MaxTokens)
	}

	// Local inference is only checked when enabled
	if c.LocalInference.Enabled {
		if c.LocalInference.BaseURL == "" {
			return errors.NewConfigurationError("local_inference.base_url cannot be empty when enabled")
		}
		if c.LocalInference.Model == "" {
			return errors.NewConfigurationError("local_inference.model cannot be empty when enabled")
		}
		if c.LocalInference.TimeoutSeconds <= 0 {
			return errors.NewConfigurationError("local_inference.timeout_seconds must be > 0, got %d", c.LocalInference.TimeoutSeconds)
		}
	}

	if !validMemoryBackends[c.Memory.Backend] {
		return errors.NewConfigurationError("memory.backend %q is not one of none, memory, sqlite, bolt", c.Memory.Backend)
	}
	if (c.Memory.Backend == MemoryBackendSQLite || c.Memory.Backend == MemoryBackendBolt) && c.Memory.Path == "" {
		return errors.NewConfigurationError("memory.path is required for the %s backend", c.Memory.Backend)
	}
	if c.Memory.MaxRuns < 0 {
		return errors.NewConfigurationError("memory.max_runs must be >= 0, got %d", c.Memory.MaxRuns)
	}

	if c.Rules.Watch && c.Rules.File == "" {
		return errors.NewConfigurationError("rules.watch requires rules.file")
	}

	return nil
}
