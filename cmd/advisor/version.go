package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"advisor/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("advisor version %s\n", version.Get())
	},
}
