// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kc9wwh/textwave/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List completed conversions",
	Long: `History lists completed conversions from the local SQLite database,
newest first.`,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	store, err := history.NewStore(cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	records, err := store.List(limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No completed conversions.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-19s  %-35s  %-6s  %-8s  %s\n",
		"Completed", "Input", "Chunks", "Duration", "Output")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))

	for _, r := range records {
		input := r.PDFPath
		if len(input) > 35 {
			input = "..." + input[len(input)-32:]
		}
		fmt.Fprintf(os.Stdout, "%-19s  %-35s  %-6d  %-8s  %s\n",
			r.CompletedAt.Local().Format("2006-01-02 15:04:05"),
			input, r.Chunks, r.Duration.Round(time.Second), r.OutputPath)
	}
	return nil
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of conversions to list")

	rootCmd.AddCommand(historyCmd)
}
