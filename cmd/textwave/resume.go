// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kc9wwh/textwave/internal/state"
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume the stalest abandoned conversion",
	Long: `Resume scans the temp directory for conversions whose state files are
older than five minutes, which marks them as abandoned rather than
running. The stalest candidate is offered for confirmation and then
re-entered exactly where it stopped. State files younger than five
minutes are never offered, since their conversion may still be running
in another process.`,
	RunE: runResume,
}

func runResume(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if cmd.Flags().Changed("temp-dir") {
		cfg.Conversion.TempDir, _ = cmd.Flags().GetString("temp-dir")
	}
	if err := cfg.Conversion.Validate(); err != nil {
		return err
	}

	store := state.NewStore(cfg.Conversion.TempDir)
	orphans, err := store.Scan(state.DefaultStaleness)
	if err != nil {
		return fmt.Errorf("scanning for abandoned conversions: %w", err)
	}
	if len(orphans) == 0 {
		fmt.Println("No abandoned conversions found.")
		return nil
	}

	// One candidate per invocation: the stalest.
	o := orphans[0]
	fmt.Printf("Found abandoned conversion %s:\n", o.Key)
	fmt.Printf("  input:    %s\n", o.State.PDFPath)
	fmt.Printf("  output:   %s\n", o.State.OutputPath)
	fmt.Printf("  progress: %d%% (%s old)\n", o.Percent, formatAge(o))

	yes, _ := cmd.Flags().GetBool("yes")
	if !yes && !confirm("Resume this conversion?") {
		fmt.Println("Not resuming.")
		return nil
	}

	runner, cleanup, err := buildRunner(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := pauseOnInterrupt(context.Background(), runner.Dispatcher)
	defer stop()

	return runner.Run(ctx, o.State.PDFPath, o.State.OutputPath, os.Stdout)
}

// confirm reads a y/N answer from stdin.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func formatAge(o state.Orphan) string {
	minutes := int(o.Age.Minutes())
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

func init() {
	resumeCmd.Flags().Bool("yes", false, "resume without asking for confirmation")
	resumeCmd.Flags().String("temp-dir", "", "directory holding state files (default: system temp)")

	rootCmd.AddCommand(resumeCmd)
}
