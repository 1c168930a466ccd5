package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"advisor/internal/config"
)

var workersCmd = &cobra.Command{
	Use:   "workers",
	Short: "List configured workers and their capabilities",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if len(cfg.Workers) == 0 {
			fmt.Println("No workers configured. Add personas under 'workers:' in the config file.")
			fmt.Printf("Config file: %s\n", config.GetUserConfigPath())
			return nil
		}

		for _, persona := range cfg.Workers {
			name := persona.Name
			if name == "" {
				name = persona.ID
			}
			fmt.Printf("%s %s\n", color.New(color.Bold).Sprint(persona.ID), name)
			fmt.Printf("  capabilities: %s\n", strings.Join(persona.Capabilities, ", "))
			fmt.Printf("  confidence threshold: %.2f\n", persona.ConfidenceThreshold)
		}
		return nil
	},
}
