// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kc9wwh/textwave/internal/state"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List in-progress and abandoned conversions",
	Long: `Status lists every conversion checkpoint on disk regardless of age,
with its key, input path, progress, paused flag, and age. Use the key
with discard to delete one.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if cmd.Flags().Changed("temp-dir") {
		cfg.Conversion.TempDir, _ = cmd.Flags().GetString("temp-dir")
	}

	store := state.NewStore(cfg.Conversion.TempDir)
	entries, err := store.List()
	if err != nil {
		return fmt.Errorf("listing conversions: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("No conversions in progress.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-12s  %-40s  %-9s  %-6s  %s\n",
		"Key", "Input", "Progress", "Paused", "Age")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 80))

	for _, e := range entries {
		input := e.State.PDFPath
		if len(input) > 40 {
			input = "..." + input[len(input)-37:]
		}
		paused := "no"
		if e.State.Paused {
			paused = "yes"
		}
		done, total := e.State.Progress()
		fmt.Fprintf(os.Stdout, "%-12s  %-40s  %3d/%-5d  %-6s  %s\n",
			e.Key, input, done, total, paused, formatAge(e))
	}
	return nil
}

func init() {
	statusCmd.Flags().String("temp-dir", "", "directory holding state files (default: system temp)")

	rootCmd.AddCommand(statusCmd)
}
