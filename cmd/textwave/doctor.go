// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kc9wwh/textwave/internal/diagnostics"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that required external tools are available",
	Long: `Doctor verifies the external tools a conversion needs: edge-tts and
ffmpeg must be on PATH, pdftotext is optional, and the temp directory
must be writable. The exit code is nonzero if any required check
fails.`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	report := diagnostics.NewChecker().Run(loadConfig())
	report.Write(os.Stdout)

	if report.HasFailures() {
		return fmt.Errorf("environment is not ready for conversions")
	}
	fmt.Println("\nEnvironment is ready.")
	return nil
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
