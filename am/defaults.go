package am

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Driver selection
	v.SetDefault("driver.provider", "auto")
	v.SetDefault("driver.requests_per_minute", 0)
	v.SetDefault("driver.max_retries", 3)

	// OpenRouter defaults
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.model", "openai/gpt-4o-mini") // Cost-effective default
	v.SetDefault("openrouter.temperature", 0.2)
	v.SetDefault("openrouter.max_tokens", 1000)

	// Anthropic defaults
	v.SetDefault("anthropic.base_url", "https://api.anthropic.com/v1")
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.temperature", 0.2)
	v.SetDefault("anthropic.max_tokens", 4096)

	// Local inference (Ollama) defaults; disabled so auto falls through to API keys
	v.SetDefault("local_inference.enabled", false)
	v.SetDefault("local_inference.base_url", "http://localhost:11434")
	v.SetDefault("local_inference.model", "llama3.2:3b")
	v.SetDefault("local_inference.timeout_seconds", 300)
	v.SetDefault("local_inference.context_size", 0)

	// Memory defaults
	v.SetDefault("memory.backend", MemoryBackendMemory)
	v.SetDefault("memory.path", "prompttask.db")
	v.SetDefault("memory.conversation", "default")
	v.SetDefault("memory.max_runs", 20)

	v.SetDefault("rules.file", "")
	v.SetDefault("rules.watch", false)

	v.SetDefault("log.json", false)
	v.SetDefault("log.level", "info")
}

// BindSensitiveEnvVars binds provider keys to their conventional variable
// names in addition to the PROMPTTASK_* prefix
func BindSensitiveEnvVars(v *viper.Viper) {
	_ = v.BindEnv("openrouter.api_key", EnvPrefix+"_OPENROUTER_API_KEY", "OPENROUTER_API_KEY")
	_ = v.BindEnv("anthropic.api_key", EnvPrefix+"_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("local_inference.enabled", EnvPrefix+"_LOCAL_INFERENCE_ENABLED")
	_ = v.BindEnv("local_inference.base_url", EnvPrefix+"_LOCAL_INFERENCE_BASE_URL", "OLLAMA_HOST")
}
