// Package config loads and validates the engine configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const configFileName = "refassign_config.yaml"

// LLMConfig points the model-assisted strategy at its reasoning service.
type LLMConfig struct {
	// BaseURL of an OpenAI-compatible chat-completions endpoint.
	BaseURL string `yaml:"baseURL" validate:"omitempty,url"`
	// DefaultModel used when a rule does not name one.
	DefaultModel string `yaml:"defaultModel,omitempty"`
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `yaml:"apiKeyEnv,omitempty"`
	// TimeoutSeconds bounds each ranking call.
	TimeoutSeconds int `yaml:"timeoutSeconds,omitempty" validate:"omitempty,min=1"`
}

// EngineConfig carries engine-wide defaults.
type EngineConfig struct {
	// DefaultRefsNeeded staffs games whose record carries no refs_needed.
	DefaultRefsNeeded int `yaml:"defaultRefsNeeded,omitempty" validate:"omitempty,min=1"`
	// DefaultGameDurationMinutes sizes conflict windows for games without a
	// duration of their own.
	DefaultGameDurationMinutes int `yaml:"defaultGameDurationMinutes,omitempty" validate:"omitempty,min=1"`
	// BackToBackGapMinutes is the minimum rest enforced between a referee's
	// games by rules that avoid back-to-back assignments.
	BackToBackGapMinutes int `yaml:"backToBackGapMinutes,omitempty" validate:"omitempty,min=1"`
}

// Config represents the application configuration
type Config struct {
	DatabaseURL string       `yaml:"databaseURL" validate:"required"`
	LLM         LLMConfig    `yaml:"llm,omitempty"`
	Engine      EngineConfig `yaml:"engine,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from refassign_config.yaml.
// It looks for the config file in the current directory first, then in the
// user's home directory.
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads the configuration for a named environment
// (refassign_config.<env>.yaml); an empty env falls back to the default file.
func LoadWithEnv(env string) (*Config, error) {
	name := configFileName
	if env != "" {
		name = fmt.Sprintf("refassign_config.%s.yaml", env)
	}

	configPath, err := findConfigFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.LLM.TimeoutSeconds == 0 {
		cfg.LLM.TimeoutSeconds = 30
	}
	if cfg.Engine.DefaultRefsNeeded == 0 {
		cfg.Engine.DefaultRefsNeeded = 2
	}
	if cfg.Engine.DefaultGameDurationMinutes == 0 {
		cfg.Engine.DefaultGameDurationMinutes = 120
	}
	if cfg.Engine.BackToBackGapMinutes == 0 {
		cfg.Engine.BackToBackGapMinutes = 60
	}
}

// findConfigFile searches for the named config file in the current directory
// and the home directory.
func findConfigFile(name string) (string, error) {
	// Check current directory
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, name)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file %s not found in current directory or home directory", name)
}
