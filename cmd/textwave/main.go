// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the textwave CLI, which converts
// PDF documents to MP3 audiobooks through a remote TTS service.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kc9wwh/textwave/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the textwave CLI.
var rootCmd = &cobra.Command{
	Use:   "textwave",
	Short: "Convert PDF documents to MP3 audiobooks",
	Long: `textwave extracts text from a PDF, splits it into sentence-aligned
chunks, synthesizes each chunk through the Edge TTS service with a pool
of concurrent workers, and merges the results into a single MP3.

Progress is checkpointed after every chunk, so an interrupted or crashed
conversion picks up where it left off. Use resume to recover abandoned
conversions and status to inspect what is on disk.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./textwave.yaml or ~/.config/textwave/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("textwave")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "textwave"))
		}
	}

	viper.SetEnvPrefix("TEXTWAVE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	defaults := types.DefaultConfig()
	viper.SetDefault("conversion.workers", defaults.Conversion.Workers)
	viper.SetDefault("conversion.max_retries", defaults.Conversion.MaxRetries)
	viper.SetDefault("conversion.target_chunk_size", defaults.Conversion.TargetChunkSize)
	viper.SetDefault("conversion.temp_dir", defaults.Conversion.TempDir)
	viper.SetDefault("conversion.pdf_backend", string(defaults.Conversion.PDFBackend))
	viper.SetDefault("tts.voice", defaults.TTS.Voice)
	viper.SetDefault("tts.binary_path", defaults.TTS.BinaryPath)
	viper.SetDefault("audio.bitrate", defaults.Audio.Bitrate)
	viper.SetDefault("audio.ffmpeg_path", defaults.Audio.FFmpegPath)
	viper.SetDefault("history.enabled", defaults.History.Enabled)
	viper.SetDefault("history.path", defaults.History.Path)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig materializes the resolved configuration: flags override
// environment, environment overrides config file, config file overrides
// defaults.
func loadConfig() types.PipelineConfig {
	return types.PipelineConfig{
		Conversion: types.ConversionConfig{
			Workers:         viper.GetInt("conversion.workers"),
			MaxRetries:      viper.GetInt("conversion.max_retries"),
			TargetChunkSize: viper.GetInt("conversion.target_chunk_size"),
			TempDir:         viper.GetString("conversion.temp_dir"),
			PDFBackend:      types.PDFBackend(viper.GetString("conversion.pdf_backend")),
		},
		TTS: types.TTSConfig{
			Voice:      viper.GetString("tts.voice"),
			BinaryPath: viper.GetString("tts.binary_path"),
		},
		Audio: types.AudioConfig{
			Bitrate:    viper.GetString("audio.bitrate"),
			FFmpegPath: viper.GetString("audio.ffmpeg_path"),
		},
		History: types.HistoryConfig{
			Enabled: viper.GetBool("history.enabled"),
			Path:    viper.GetString("history.path"),
		},
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
