// Package am loads prompttask configuration from TOML files and environment
// variables.
package am

// Config represents the prompttask configuration
type Config struct {
	Driver         DriverConfig         `mapstructure:"driver" toml:"driver" yaml:"driver" json:"driver"`
	OpenRouter     OpenRouterConfig     `mapstructure:"openrouter" toml:"openrouter" yaml:"openrouter" json:"openrouter"`
	Anthropic      AnthropicConfig      `mapstructure:"anthropic" toml:"anthropic" yaml:"anthropic" json:"anthropic"`
	LocalInference LocalInferenceConfig `mapstructure:"local_inference" toml:"local_inference" yaml:"local_inference" json:"local_inference"`
	Memory         MemoryConfig         `mapstructure:"memory" toml:"memory" yaml:"memory" json:"memory"`
	Rules          RulesConfig          `mapstructure:"rules" toml:"rules" yaml:"rules" json:"rules"`
	Log            LogConfig            `mapstructure:"log" toml:"log" yaml:"log" json:"log"`
}

// DriverConfig selects the prompt driver used by structures
type DriverConfig struct {
	// Provider is one of auto, openrouter, anthropic, local, echo
	Provider string `mapstructure:"provider" toml:"provider" yaml:"provider" json:"provider"`
	// RequestsPerMinute caps driver calls (0 = unlimited)
	RequestsPerMinute int `mapstructure:"requests_per_minute" toml:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	// MaxRetries applies to network errors and 429/5xx responses
	MaxRetries int `mapstructure:"max_retries" toml:"max_retries" yaml:"max_retries" json:"max_retries"`
}

// OpenRouterConfig configures OpenRouter.ai API access
type OpenRouterConfig struct {
	APIKey      string   `mapstructure:"api_key" toml:"api_key" yaml:"api_key" json:"-"`
	BaseURL     string   `mapstructure:"base_url" toml:"base_url" yaml:"base_url" json:"base_url"`
	Model       string   `mapstructure:"model" toml:"model" yaml:"model" json:"model"`
	Temperature *float64 `mapstructure:"temperature" toml:"temperature" yaml:"temperature" json:"temperature"` // nil = default 0.2
	MaxTokens   *int     `mapstructure:"max_tokens" toml:"max_tokens" yaml:"max_tokens" json:"max_tokens"`     // nil = default 1000
}

// AnthropicConfig configures direct Anthropic API access
type AnthropicConfig struct {
	APIKey      string  `mapstructure:"api_key" toml:"api_key" yaml:"api_key" json:"-"`
	BaseURL     string  `mapstructure:"base_url" toml:"base_url" yaml:"base_url" json:"base_url"`
	Model       string  `mapstructure:"model" toml:"model" yaml:"model" json:"model"`
	Temperature float64 `mapstructure:"temperature" toml:"temperature" yaml:"temperature" json:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" toml:"max_tokens" yaml:"max_tokens" json:"max_tokens"`
}

// LocalInferenceConfig configures local model inference (Ollama, LocalAI, etc.)
type LocalInferenceConfig struct {
	Enabled        bool   `mapstructure:"enabled" toml:"enabled" yaml:"enabled" json:"enabled"`
	BaseURL        string `mapstructure:"base_url" toml:"base_url" yaml:"base_url" json:"base_url"` // e.g., "http://localhost:11434" for Ollama
	Model          string `mapstructure:"model" toml:"model" yaml:"model" json:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" toml:"timeout_seconds" yaml:"timeout_seconds" json:"timeout_seconds"`
	ContextSize    int    `mapstructure:"context_size" toml:"context_size" yaml:"context_size" json:"context_size"` // 0 = model default
}

// MemoryConfig configures conversation memory for structures
type MemoryConfig struct {
	Backend      string `mapstructure:"backend" toml:"backend" yaml:"backend" json:"backend"` // none, memory, sqlite, bolt
	Path         string `mapstructure:"path" toml:"path" yaml:"path" json:"path"`
	Conversation string `mapstructure:"conversation" toml:"conversation" yaml:"conversation" json:"conversation"`
	MaxRuns      int    `mapstructure:"max_runs" toml:"max_runs" yaml:"max_runs" json:"max_runs"` // 0 = replay all runs
}

// RulesConfig points at a rules file applied at the structure scope
type RulesConfig struct {
	File  string `mapstructure:"file" toml:"file" yaml:"file" json:"file"`
	Watch bool   `mapstructure:"watch" toml:"watch" yaml:"watch" json:"watch"`
}

// LogConfig configures logger output
type LogConfig struct {
	JSON  bool   `mapstructure:"json" toml:"json" yaml:"json" json:"json"`
	Level string `mapstructure:"level" toml:"level" yaml:"level" json:"level"`
}

// Memory backends
const (
	MemoryBackendNone   = "none"
	MemoryBackendMemory = "memory"
	MemoryBackendSQLite = "sqlite"
	MemoryBackendBolt   = "bolt"
)

// File and directory names
const (
	ConfigFileName         = "prompttask.toml"
	UserConfigDirName      = ".prompttask"
	EnvPrefix              = "PROMPTTASK"
	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)
