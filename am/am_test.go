package am

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/prompttask/errors"
	"github.com/teranos/prompttask/internal/util"
)

func TestLoad_Defaults(t *testing.T) {
	// Create isolated viper instance without loading user/project config
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	if err != nil {
		t.Fatalf("LoadWithViper() failed: %v", err)
	}

	if cfg.Driver.Provider != "auto" {
		t.Errorf("expected default provider 'auto', got %q", cfg.Driver.Provider)
	}
	if cfg.Memory.Backend != MemoryBackendMemory {
		t.Errorf("expected default memory backend %q, got %q", MemoryBackendMemory, cfg.Memory.Backend)
	}
	if cfg.Memory.MaxRuns != 20 {
		t.Errorf("expected default max_runs 20, got %d", cfg.Memory.MaxRuns)
	}
	if cfg.LocalInference.BaseURL != "http://localhost:11434" {
		t.Errorf("expected default local inference URL, got %q", cfg.LocalInference.BaseURL)
	}
	if cfg.OpenRouter.Temperature == nil || *cfg.OpenRouter.Temperature != 0.2 {
		t.Errorf("expected default openrouter temperature 0.2, got %v", cfg.OpenRouter.Temperature)
	}
	if cfg.OpenRouter.MaxTokens == nil || *cfg.OpenRouter.MaxTokens != 1000 {
		t.Errorf("expected default openrouter max_tokens 1000, got %v", cfg.OpenRouter.MaxTokens)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	content := `
[driver]
provider = "echo"
requests_per_minute = 30

[memory]
backend = "bolt"
path = "history.bolt"
max_runs = 5

[rules]
file = "rules.toml"
watch = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), DefaultFilePermissions))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "echo", cfg.Driver.Provider)
	assert.Equal(t, 30, cfg.Driver.RequestsPerMinute)
	assert.Equal(t, 3, cfg.Driver.MaxRetries, "unset keys keep defaults")
	assert.Equal(t, MemoryBackendBolt, cfg.Memory.Backend)
	assert.Equal(t, "history.bolt", cfg.Memory.Path)
	assert.Equal(t, 5, cfg.Memory.MaxRuns)
	assert.Equal(t, "rules.toml", cfg.Rules.File)
	assert.True(t, cfg.Rules.Watch)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestMergeConfigFiles_ProjectOverridesUser(t *testing.T) {
	dir := t.TempDir()
	user := filepath.Join(dir, "user.toml")
	project := filepath.Join(dir, "project.toml")

	require.NoError(t, os.WriteFile(user, []byte("[driver]\nprovider = \"anthropic\"\nmax_retries = 7\n"), DefaultFilePermissions))
	require.NoError(t, os.WriteFile(project, []byte("[driver]\nprovider = \"local\"\n"), DefaultFilePermissions))

	v := viper.New()
	SetDefaults(v)
	mergeConfigFiles(v, []string{user, filepath.Join(dir, "missing.toml"), project})

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Driver.Provider)
	assert.Equal(t, 7, cfg.Driver.MaxRetries, "keys absent from the project file survive from the user file")
}

func TestValidate(t *testing.T) {

	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "zero value is valid",
			config:  Config{},
			wantErr: false,
		},
		{
			name:    "unknown provider",
			config:  Config{Driver: DriverConfig{Provider: "gpt"}},
			wantErr: true,
		},
		{
			name:    "negative rate limit",
			config:  Config{Driver: DriverConfig{RequestsPerMinute: -1}},
			wantErr: true,
		},
		{
			name:    "zero rate limit is valid (unlimited)",
			config:  Config{Driver: DriverConfig{RequestsPerMinute: 0}},
			wantErr: false,
		},
		{
			name:    "negative retries",
			config:  Config{Driver: DriverConfig{MaxRetries: -1}},
			wantErr: true,
		},
		{
			name:    "openrouter temperature out of range",
			config:  Config{OpenRouter: OpenRouterConfig{Temperature: util.Ptr(2.5)}},
			wantErr: true,
		},
		{
			name:    "openrouter zero max tokens",
			config:  Config{OpenRouter: OpenRouterConfig{MaxTokens: util.Ptr(0)}},
			wantErr: true,
		},
		{
			name:    "anthropic temperature out of range",
			config:  Config{Anthropic: AnthropicConfig{Temperature: 1.5}},
			wantErr: true,
		},
		{
			name:    "local inference disabled skips checks",
			config:  Config{LocalInference: LocalInferenceConfig{Enabled: false}},
			wantErr: false,
		},
		{
			name:    "local inference enabled without model",
			config:  Config{LocalInference: LocalInferenceConfig{Enabled: true, BaseURL: "http://localhost:11434", TimeoutSeconds: 10}},
			wantErr: true,
		},
		{
			name:    "local inference enabled without timeout",
			config:  Config{LocalInference: LocalInferenceConfig{Enabled: true, BaseURL: "http://localhost:11434", Model: "m"}},
			wantErr: true,
		},
		{
			name:    "unknown memory backend",
			config:  Config{Memory: MemoryConfig{Backend: "redis"}},
			wantErr: true,
		},
		{
			name:    "sqlite without path",
			config:  Config{Memory: MemoryConfig{Backend: MemoryBackendSQLite}},
			wantErr: true,
		},
		{
			name:    "sqlite with path",
			config:  Config{Memory: MemoryConfig{Backend: MemoryBackendSQLite, Path: "x.db"}},
			wantErr: false,
		},
		{
			name:    "watch without rules file",
			config:  Config{Rules: RulesConfig{Watch: true}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.IsConfigurationError(err) {
				t.Errorf("Validate() error should be a configuration error, got %v", err)
			}
		})
	}
}

func TestFindProjectConfig(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("found in parent directory", func(t *testing.T) {
		subDir := filepath.Join(tmpDir, "test1", "subdir")
		require.NoError(t, os.MkdirAll(subDir, DefaultDirPermissions))
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "test1", ConfigFileName), []byte(""), DefaultFilePermissions))

		oldWd, _ := os.Getwd()
		defer os.Chdir(oldWd)
		require.NoError(t, os.Chdir(subDir))

		result := findProjectConfig()
		if result == "" {
			t.Fatal("expected to find config file")
		}
		if !filepath.IsAbs(result) {
			t.Error("expected absolute path")
		}
		if filepath.Base(result) != ConfigFileName {
			t.Errorf("expected %s, got %s", ConfigFileName, filepath.Base(result))
		}
	})

	t.Run("no config found", func(t *testing.T) {
		subDir := filepath.Join(tmpDir, "test2", "subdir")
		require.NoError(t, os.MkdirAll(subDir, DefaultDirPermissions))

		oldWd, _ := os.Getwd()
		defer os.Chdir(oldWd)
		require.NoError(t, os.Chdir(subDir))

		if result := findProjectConfig(); result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})
}

func TestBindSensitiveEnvVars(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	v := viper.New()
	SetDefaults(v)
	BindSensitiveEnvVars(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.Anthropic.APIKey)
}
