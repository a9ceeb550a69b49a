// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kc9wwh/textwave/internal/state"
)

var discardCmd = &cobra.Command{
	Use:   "discard <key>",
	Short: "Delete a conversion's checkpoint and chunk audio",
	Long: `Discard deletes the state file, chunk audio files, and working
directory for the conversion with the given key. Keys are shown by
status. The final MP3, if one was written, is untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: runDiscard,
}

func runDiscard(cmd *cobra.Command, args []string) error {
	key := args[0]

	cfg := loadConfig()
	if cmd.Flags().Changed("temp-dir") {
		cfg.Conversion.TempDir, _ = cmd.Flags().GetString("temp-dir")
	}

	store := state.NewStore(cfg.Conversion.TempDir)
	if err := store.Discard(key); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no conversion with key %s", key)
		}
		return fmt.Errorf("discarding conversion %s: %w", key, err)
	}

	fmt.Printf("Discarded conversion %s\n", key)
	return nil
}

func init() {
	discardCmd.Flags().String("temp-dir", "", "directory holding state files (default: system temp)")

	rootCmd.AddCommand(discardCmd)
}
