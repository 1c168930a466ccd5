package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"advisor/internal/config"
	"advisor/pkg/models"
)

var askContextPairs []string

var askCmd = &cobra.Command{
	Use:   "ask <primary-worker> <query>",
	Short: "Coordinate a query across workers",
	Long: `Ask a question through the named primary worker. The dispatcher selects
related workers from the request context, the trigger rules, and past
coordination history; their insights are merged into the answer.

Context signals are passed as repeated --context key=value flags, e.g.:

  advisor ask career "should I switch industries?" --context topic=career_change`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		reqCtx, err := parseContextArgs(askContextPairs)
		if err != nil {
			return err
		}

		c, cleanup, err := buildCoordinator(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		primaryID := args[0]
		query := strings.Join(args[1:], " ")

		result := c.Coordinate(cmd.Context(), query, primaryID, reqCtx)
		if result.Status != models.StatusSuccess {
			fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("✗"), result.Error)
			os.Exit(1)
		}

		fmt.Println(result.IntegratedResponse)

		if len(result.RelatedResponses) > 0 {
			ids := make([]string, 0, len(result.RelatedResponses))
			for id := range result.RelatedResponses {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			fmt.Println()
			for _, id := range ids {
				response := result.RelatedResponses[id]
				fmt.Printf("%s %s (confidence %.2f)\n",
					color.CyanString("•"), id, response.Confidence)
			}
		}
		return nil
	},
}

func init() {
	askCmd.Flags().StringArrayVar(&askContextPairs, "context", nil,
		"request context entry as key=value (repeatable)")
}
