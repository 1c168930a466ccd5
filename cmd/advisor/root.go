package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "advisor",
	Short: "Advisory worker coordination",
	Long: `Advisor coordinates multiple advisory workers over one query: a primary
worker answers it while related workers contribute secondary insights that
are scored, ranked, and merged into the final response.

Workers are defined as personas in the configuration file. Each
coordination cycle is recorded so future requests on similar contexts can
route to the workers that helped before.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(workersCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
