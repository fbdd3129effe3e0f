package driver

import (
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/prompttask/ai/anthropic"
	"github.com/teranos/prompttask/ai/local"
	"github.com/teranos/prompttask/ai/openrouter"
	"github.com/teranos/prompttask/am"
	"github.com/teranos/prompttask/errors"
	"github.com/teranos/prompttask/logger"
)

// Provider names a prompt driver backend
type Provider string

const (
	// ProviderAuto selects a backend from configuration
	ProviderAuto Provider = "auto"
	// ProviderLocal uses local inference (Ollama, LocalAI)
	ProviderLocal Provider = "local"
	// ProviderOpenRouter uses the OpenRouter.ai API
	ProviderOpenRouter Provider = "openrouter"
	// ProviderAnthropic uses the Anthropic API directly
	ProviderAnthropic Provider = "anthropic"
	// ProviderEcho replies with the user input, no network
	ProviderEcho Provider = "echo"
)

// ParseProvider maps a config value to a Provider. Empty means auto.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return ProviderAuto, nil
	case ProviderAuto, ProviderLocal, ProviderOpenRouter, ProviderAnthropic, ProviderEcho:
		return p, nil
	default:
		return "", errors.WithHint(
			errors.NewConfigurationError("unknown driver provider %q", s),
			"use one of auto, local, openrouter, anthropic, echo")
	}
}

// New builds the driver selected by cfg.Driver.Provider and applies the
// configured rate limit.
//
// Auto priority: local inference (if enabled) → Anthropic (if API key set) →
// OpenRouter (if API key set). With none available a configuration error is
// returned.
func New(cfg *am.Config, log *zap.SugaredLogger) (PromptDriver, error) {
	log = logger.OrNop(log)

	provider, err := ParseProvider(cfg.Driver.Provider)
	if err != nil {
		return nil, err
	}
	if provider == ProviderAuto {
		provider, err = autoSelect(cfg)
		if err != nil {
			return nil, err
		}
	}

	d, err := newProvider(cfg, provider, log.With(logger.FieldDriver, string(provider)))
	if err != nil {
		return nil, err
	}

	log.Debugw("Prompt driver selected",
		logger.FieldDriver, string(provider),
		"requests_per_minute", cfg.Driver.RequestsPerMinute,
	)
	return WithRateLimit(d, cfg.Driver.RequestsPerMinute), nil
}

func autoSelect(cfg *am.Config) (Provider, error) {
	switch {
	case cfg.LocalInference.Enabled:
		return ProviderLocal, nil
	case cfg.Anthropic.APIKey != "":
		return ProviderAnthropic, nil
	case cfg.OpenRouter.APIKey != "":
		return ProviderOpenRouter, nil
	}
	return "", errors.WithHint(
		errors.Wrap(errors.ErrNoDriver, "no provider configured"),
		"enable local_inference, set ANTHROPIC_API_KEY or OPENROUTER_API_KEY, or use driver.provider = \"echo\"")
}

func newProvider(cfg *am.Config, provider Provider, log *zap.SugaredLogger) (PromptDriver, error) {
	switch provider {
	case ProviderLocal:
		return local.NewDriver(local.Config{
			BaseURL:        cfg.LocalInference.BaseURL,
			Model:          cfg.LocalInference.Model,
			TimeoutSeconds: cfg.LocalInference.TimeoutSeconds,
			ContextSize:    cfg.LocalInference.ContextSize,
			MaxRetries:     cfg.Driver.MaxRetries,
			Logger:         log,
		})
	case ProviderAnthropic:
		return anthropic.NewDriver(anthropic.Config{
			APIKey:      cfg.Anthropic.APIKey,
			BaseURL:     cfg.Anthropic.BaseURL,
			Model:       cfg.Anthropic.Model,
			Temperature: cfg.Anthropic.Temperature,
			MaxTokens:   cfg.Anthropic.MaxTokens,
			MaxRetries:  cfg.Driver.MaxRetries,
			Logger:      log,
		})
	case ProviderOpenRouter:
		return openrouter.NewDriver(openrouter.Config{
			APIKey:      cfg.OpenRouter.APIKey,
			BaseURL:     cfg.OpenRouter.BaseURL,
			Model:       cfg.OpenRouter.Model,
			Temperature: cfg.OpenRouter.Temperature,
			MaxTokens:   cfg.OpenRouter.MaxTokens,
			MaxRetries:  cfg.Driver.MaxRetries,
			Logger:      log,
		})
	case ProviderEcho:
		return NewEcho(""), nil
	}
	return nil, errors.NewConfigurationError("unsupported provider %q", provider)
}
