package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"advisor/internal/config"
	"advisor/pkg/models"
)

var recommendDataPairs []string

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Generate holistic recommendations from all workers",
	Long: `Ask every registered worker for prioritized recommendations, analyze the
combined batch for conflicts and synergies, and print one conflict-free
ranked list.

User data is passed as repeated --data key=value flags, e.g.:

  advisor recommend --data age=35 --data income=60000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		userData, err := parseContextArgs(recommendDataPairs)
		if err != nil {
			return err
		}

		c, cleanup, err := buildCoordinator(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		result := c.GenerateRecommendations(cmd.Context(), userData)
		if result.Status != models.StatusSuccess {
			fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("✗"), result.Error)
			os.Exit(1)
		}

		if len(result.Recommendations) == 0 {
			fmt.Println("No recommendations.")
			return nil
		}

		for i, rec := range result.Recommendations {
			fmt.Printf("%s %s %s\n",
				color.GreenString("%d.", i+1),
				color.New(color.Bold).Sprintf("[%s]", rec.Type),
				rec.Summary)
			fmt.Printf("   priority %.1f, from %s\n", rec.Priority, rec.WorkerID)
		}
		return nil
	},
}

func init() {
	recommendCmd.Flags().StringArrayVar(&recommendDataPairs, "data", nil,
		"user data entry as key=value (repeatable)")
}
