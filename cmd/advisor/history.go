package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"advisor/internal/config"
	"advisor/pkg/models"
)

var historyShowTopics bool

var historyCmd = &cobra.Command{
	Use:   "history [n]",
	Short: "Show recent coordination history",
	Long: `Show the most recent coordination cycles (default 10), newest first.
With --topics, show per-topic frequencies instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		store, err := buildStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		if historyShowTopics {
			counts, err := store.TopicCounts()
			if err != nil {
				return fmt.Errorf("reading topic counts: %w", err)
			}
			if len(counts) == 0 {
				fmt.Println("No history recorded.")
				return nil
			}
			for _, tc := range counts {
				fmt.Printf("%4d  %s\n", tc.Count, tc.Topic)
			}
			return nil
		}

		n := 10
		if len(args) == 1 {
			n, err = strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid count %q", args[0])
			}
		}

		points, err := store.Recent(n)
		if err != nil {
			return fmt.Errorf("reading history: %w", err)
		}
		if len(points) == 0 {
			fmt.Println("No history recorded.")
			return nil
		}

		for _, dp := range points {
			marker := color.GreenString("✓")
			if dp.Outcome != models.OutcomeSuccess {
				marker = color.YellowString(string(dp.Outcome))
			}
			fmt.Printf("%s %s  %s\n", marker,
				dp.Timestamp.Local().Format("2006-01-02 15:04"), dp.Query)
			line := fmt.Sprintf("  primary %s", dp.PrimaryWorkerID)
			if len(dp.SecondaryWorkerIDs) > 0 {
				line += ", secondaries " + strings.Join(dp.SecondaryWorkerIDs, ", ")
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().BoolVar(&historyShowTopics, "topics", false,
		"show per-topic frequencies")
}
