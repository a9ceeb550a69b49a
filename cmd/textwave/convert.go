// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kc9wwh/textwave/internal/audio"
	"github.com/kc9wwh/textwave/internal/history"
	"github.com/kc9wwh/textwave/internal/pdf"
	"github.com/kc9wwh/textwave/internal/pipeline"
	"github.com/kc9wwh/textwave/internal/state"
	"github.com/kc9wwh/textwave/internal/tts"
	"github.com/kc9wwh/textwave/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert <input.pdf>",
	Short: "Convert a PDF to an MP3 audiobook",
	Long: `Convert extracts the text from a PDF, synthesizes it chunk by chunk
through Edge TTS, and merges the audio into a single MP3. Progress is
checkpointed after every chunk; rerunning the same input/output pair
resumes from the checkpoint. Press Ctrl-C once to pause cleanly after
the in-flight chunks finish.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	pdfPath := args[0]
	cfg := applyFlags(cmd, loadConfig())
	if err := cfg.Conversion.Validate(); err != nil {
		return err
	}

	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		outputPath = defaultOutputPath(pdfPath)
	}

	if _, err := os.Stat(pdfPath); err != nil {
		return fmt.Errorf("cannot read input PDF: %w", err)
	}

	runner, cleanup, err := buildRunner(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := pauseOnInterrupt(context.Background(), runner.Dispatcher)
	defer stop()

	return runner.Run(ctx, pdfPath, outputPath, os.Stdout)
}

// applyFlags layers explicit command-line flags over the resolved
// configuration.
func applyFlags(cmd *cobra.Command, cfg types.PipelineConfig) types.PipelineConfig {
	if cmd.Flags().Changed("workers") {
		cfg.Conversion.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("retries") {
		cfg.Conversion.MaxRetries, _ = cmd.Flags().GetInt("retries")
	}
	if cmd.Flags().Changed("voice") {
		cfg.TTS.Voice, _ = cmd.Flags().GetString("voice")
	}
	if cmd.Flags().Changed("bitrate") {
		cfg.Audio.Bitrate, _ = cmd.Flags().GetString("bitrate")
	}
	if cmd.Flags().Changed("temp-dir") {
		cfg.Conversion.TempDir, _ = cmd.Flags().GetString("temp-dir")
	}
	if cmd.Flags().Changed("backend") {
		backend, _ := cmd.Flags().GetString("backend")
		cfg.Conversion.PDFBackend = types.PDFBackend(backend)
	}
	return cfg
}

// buildRunner assembles the pipeline from the resolved configuration.
// The returned cleanup closes the history database.
func buildRunner(cfg types.PipelineConfig) (*pipeline.Runner, func(), error) {
	extractor, err := pdf.New(cfg.Conversion.PDFBackend)
	if err != nil {
		return nil, nil, err
	}

	runner := &pipeline.Runner{
		Extractor: extractor,
		Store:     state.NewStore(cfg.Conversion.TempDir),
		Merger:    audio.NewMerger(cfg.Audio.FFmpegPath, cfg.Audio.Bitrate),
		Dispatcher: &pipeline.Dispatcher{
			Synth:      tts.NewEdgeSynth(cfg.TTS.BinaryPath),
			Voice:      cfg.TTS.Voice,
			Workers:    cfg.Conversion.Workers,
			MaxRetries: cfg.Conversion.MaxRetries,
			Progress: func(percent int, msg string) {
				fmt.Printf("[%3d%%] %s\n", percent, msg)
			},
		},
		TargetChunkSize: cfg.Conversion.TargetChunkSize,
	}

	cleanup := func() {}
	if cfg.History.Enabled {
		store, err := history.NewStore(cfg.History)
		if err != nil {
			// History is a convenience; a broken database must not block
			// the conversion itself.
			fmt.Fprintf(os.Stderr, "warning: conversion history disabled: %v\n", err)
		} else {
			runner.History = store
			cleanup = func() { store.Close() }
		}
	}

	return runner, cleanup, nil
}

// pauseOnInterrupt turns the first interrupt into a cooperative pause
// and the second into a hard cancellation.
func pauseOnInterrupt(parent context.Context, d *pipeline.Dispatcher) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sig:
		case <-ctx.Done():
			return
		}
		fmt.Fprintln(os.Stderr, "\nPausing after in-flight chunks finish (interrupt again to abort)...")
		d.Pause()

		select {
		case <-sig:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sig)
		cancel()
	}
}

// defaultOutputPath swaps the input extension for .mp3.
func defaultOutputPath(pdfPath string) string {
	if strings.HasSuffix(strings.ToLower(pdfPath), ".pdf") {
		return pdfPath[:len(pdfPath)-len(".pdf")] + ".mp3"
	}
	return pdfPath + ".mp3"
}

func init() {
	convertCmd.Flags().StringP("output", "o", "", "output MP3 path (default: input path with .mp3 extension)")
	convertCmd.Flags().Int("workers", 3, "number of concurrent synthesis workers (1-10)")
	convertCmd.Flags().Int("retries", 3, "synthesis attempts per chunk")
	convertCmd.Flags().String("voice", types.DefaultVoice, "Edge TTS voice")
	convertCmd.Flags().String("bitrate", "128k", "MP3 encode bitrate")
	convertCmd.Flags().String("temp-dir", "", "directory for state files and chunk audio (default: system temp)")
	convertCmd.Flags().String("backend", "native", "PDF text extraction backend: native or pdftotext")

	rootCmd.AddCommand(convertCmd)
}
