package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"advisor/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify advisor configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/advisor/config.yaml
Project-specific overrides can be placed in .advisor.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("anthropic.api_key: %s (source: %s)\n",
		config.MaskAPIKey(cfg.Anthropic.APIKey), config.GetAPIKeySource(cfg))
	fmt.Printf("anthropic.model: %s\n", cfg.Anthropic.Model)
	fmt.Printf("anthropic.use_aws_bedrock: %t\n", cfg.Anthropic.UseAWSBedrock)
	fmt.Printf("coordination.request_deadline: %s\n", cfg.Coordination.RequestDeadline)
	fmt.Printf("coordination.secondary_timeout: %s\n", cfg.Coordination.SecondaryTimeout)
	fmt.Printf("coordination.max_parallel_secondaries: %d\n", cfg.Coordination.MaxParallelSecondaries)
	fmt.Printf("history.backend: %s\n", cfg.History.Backend)
	fmt.Printf("history.capacity: %d\n", cfg.History.Capacity)
	fmt.Printf("history.db_path: %s\n", cfg.History.DBPath)
	fmt.Printf("rules_file: %s\n", cfg.RulesFile)
	fmt.Printf("workers: %d configured\n", len(cfg.Workers))
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "anthropic.api_key_source":
		return string(config.GetAPIKeySource(cfg)), nil
	case "anthropic.model":
		return cfg.Anthropic.Model, nil
	case "anthropic.use_aws_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseAWSBedrock), nil
	case "coordination.request_deadline":
		return cfg.Coordination.RequestDeadline.String(), nil
	case "coordination.secondary_timeout":
		return cfg.Coordination.SecondaryTimeout.String(), nil
	case "coordination.max_parallel_secondaries":
		return strconv.Itoa(cfg.Coordination.MaxParallelSecondaries), nil
	case "history.backend":
		return cfg.History.Backend, nil
	case "history.capacity":
		return strconv.Itoa(cfg.History.Capacity), nil
	case "history.db_path":
		return cfg.History.DBPath, nil
	case "rules_file":
		return cfg.RulesFile, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.use_aws_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for use_aws_bedrock: %w", err)
		}
		cfg.Anthropic.UseAWSBedrock = b
	case "coordination.request_deadline":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for request_deadline: %w", err)
		}
		cfg.Coordination.RequestDeadline = d
	case "coordination.secondary_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for secondary_timeout: %w", err)
		}
		cfg.Coordination.SecondaryTimeout = d
	case "coordination.max_parallel_secondaries":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_parallel_secondaries: %w", err)
		}
		cfg.Coordination.MaxParallelSecondaries = n
	case "history.backend":
		if value != "memory" && value != "sqlite" {
			return fmt.Errorf("history.backend must be 'memory' or 'sqlite'")
		}
		cfg.History.Backend = value
	case "history.capacity":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for history.capacity: %w", err)
		}
		cfg.History.Capacity = n
	case "history.db_path":
		cfg.History.DBPath = value
	case "rules_file":
		cfg.RulesFile = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
