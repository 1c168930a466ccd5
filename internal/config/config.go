// Package config handles configuration loading and management for the
// advisor. It supports XDG config paths, project-level overrides, and
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"advisor/internal/worker"
)

// Config holds all configuration for the advisor.
type Config struct {
	Anthropic    AnthropicConfig    `mapstructure:"anthropic"`
	Coordination CoordinationConfig `mapstructure:"coordination"`
	History      HistoryConfig      `mapstructure:"history"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	// RulesFile points to the orchestration rules YAML. Empty means the
	// built-in default ruleset.
	RulesFile string `mapstructure:"rules_file"`
	// Workers are the persona definitions registered at startup.
	Workers []worker.PersonaConfig `mapstructure:"workers"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
	// UseAWSBedrock routes API calls through AWS Bedrock instead of the
	// direct Anthropic API.
	UseAWSBedrock bool   `mapstructure:"use_aws_bedrock"`
	AWSRegion     string `mapstructure:"aws_region"`
	AWSProfile    string `mapstructure:"aws_profile"`
}

// CoordinationConfig holds per-request coordination settings.
type CoordinationConfig struct {
	// RequestDeadline bounds one coordinate call end to end.
	RequestDeadline time.Duration `mapstructure:"request_deadline"`
	// SecondaryTimeout bounds each secondary worker invocation.
	SecondaryTimeout time.Duration `mapstructure:"secondary_timeout"`
	// MaxParallelSecondaries bounds concurrent secondary invocations.
	MaxParallelSecondaries int `mapstructure:"max_parallel_secondaries"`
	// InsightDelimiter is inserted before each merged secondary insight.
	InsightDelimiter string `mapstructure:"insight_delimiter"`
}

// HistoryConfig holds decision history settings.
type HistoryConfig struct {
	// Backend selects the store: "memory" or "sqlite".
	Backend string `mapstructure:"backend"`
	// Capacity bounds the in-memory store (0 = unbounded).
	Capacity int `mapstructure:"capacity"`
	// DBPath locates the SQLite database for the sqlite backend.
	DBPath string `mapstructure:"db_path"`
}

// LoggingConfig holds debug log settings.
type LoggingConfig struct {
	// DebugLog is the debug log file path. Empty disables debug logging.
	DebugLog string `mapstructure:"debug_log"`
}

// Load loads configuration from XDG paths, project overrides, and
// environment variables. Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY)
// 2. Project config (.advisor.yaml in current directory or parent)
// 3. User config (~/.config/advisor/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.use_aws_bedrock", cfg.Anthropic.UseAWSBedrock)
	v.Set("coordination.request_deadline", cfg.Coordination.RequestDeadline.String())
	v.Set("coordination.secondary_timeout", cfg.Coordination.SecondaryTimeout.String())
	v.Set("coordination.max_parallel_secondaries", cfg.Coordination.MaxParallelSecondaries)
	v.Set("history.backend", cfg.History.Backend)
	v.Set("history.capacity", cfg.History.Capacity)
	v.Set("history.db_path", cfg.History.DBPath)
	v.Set("rules_file", cfg.RulesFile)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it
// exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5")
	v.SetDefault("anthropic.use_aws_bedrock", false)

	v.SetDefault("coordination.request_deadline", "30s")
	v.SetDefault("coordination.secondary_timeout", "10s")
	v.SetDefault("coordination.max_parallel_secondaries", 4)
	v.SetDefault("coordination.insight_delimiter", "\n\n---\n")

	v.SetDefault("history.backend", "memory")
	v.SetDefault("history.capacity", 1024)
	v.SetDefault("history.db_path", "")

	v.SetDefault("logging.debug_log", "")
	v.SetDefault("rules_file", "")
}

// getUserConfigDir returns the XDG config directory for the advisor.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "advisor")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "advisor")
	}
	return filepath.Join(home, ".config", "advisor")
}

// findProjectConfig searches for .advisor.yaml in the current directory and
// parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".advisor.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{
			Model: "claude-sonnet-4-5",
		},
		Coordination: CoordinationConfig{
			RequestDeadline:        30 * time.Second,
			SecondaryTimeout:       10 * time.Second,
			MaxParallelSecondaries: 4,
			InsightDelimiter:       "\n\n---\n",
		},
		History: HistoryConfig{
			Backend:  "memory",
			Capacity: 1024,
		},
	}
}
