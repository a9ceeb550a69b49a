// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"os"
)

// DefaultVoice is the Edge neural voice used when none is configured.
const DefaultVoice = "en-US-AvaMultilingualNeural"

// PDFBackend identifies the text extraction backend.
type PDFBackend string

const (
	BackendNative    PDFBackend = "native"
	BackendPdftotext PDFBackend = "pdftotext"
)

// ConversionConfig holds settings for the chunked conversion pipeline.
type ConversionConfig struct {
	// Workers is the number of concurrent synthesis workers (1-10, default 3).
	Workers int `json:"workers" yaml:"workers"`

	// MaxRetries is the number of synthesis attempts per chunk (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// TargetChunkSize is the target chunk length in characters (default 1000).
	TargetChunkSize int `json:"target_chunk_size" yaml:"target_chunk_size"`

	// TempDir is the base directory for state files and chunk audio.
	// Empty means the system temp directory.
	TempDir string `json:"temp_dir,omitempty" yaml:"temp_dir,omitempty"`

	// PDFBackend selects the extraction backend: native or pdftotext.
	PDFBackend PDFBackend `json:"pdf_backend" yaml:"pdf_backend"`
}

// TTSConfig holds settings for the speech synthesis client.
type TTSConfig struct {
	// Voice is the Edge neural voice identifier.
	Voice string `json:"voice" yaml:"voice"`

	// BinaryPath is the edge-tts executable (default "edge-tts").
	BinaryPath string `json:"binary_path" yaml:"binary_path"`
}

// AudioConfig holds settings for the merge/encode step.
type AudioConfig struct {
	// Bitrate is the MP3 encode bitrate for the final output (default "128k").
	Bitrate string `json:"bitrate" yaml:"bitrate"`

	// FFmpegPath is the ffmpeg executable (default "ffmpeg").
	FFmpegPath string `json:"ffmpeg_path" yaml:"ffmpeg_path"`
}

// HistoryConfig holds settings for the completed-conversion log.
type HistoryConfig struct {
	// Enabled controls whether completed conversions are recorded.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path is the SQLite database file for the history log.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Conversion ConversionConfig `json:"conversion" yaml:"conversion"`
	TTS        TTSConfig        `json:"tts" yaml:"tts"`
	Audio      AudioConfig      `json:"audio" yaml:"audio"`
	History    HistoryConfig    `json:"history" yaml:"history"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() PipelineConfig {
	return PipelineConfig{
		Conversion: ConversionConfig{
			Workers:         3,
			MaxRetries:      3,
			TargetChunkSize: 1000,
			TempDir:         os.TempDir(),
			PDFBackend:      BackendNative,
		},
		TTS: TTSConfig{
			Voice:      DefaultVoice,
			BinaryPath: "edge-tts",
		},
		Audio: AudioConfig{
			Bitrate:    "128k",
			FFmpegPath: "ffmpeg",
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// Validate range-checks the conversion settings.
func (c ConversionConfig) Validate() error {
	if c.Workers < 1 || c.Workers > 10 {
		return fmt.Errorf("workers must be between 1 and 10, got %d", c.Workers)
	}
	if c.MaxRetries < 1 || c.MaxRetries > 10 {
		return fmt.Errorf("max retries must be between 1 and 10, got %d", c.MaxRetries)
	}
	if c.TargetChunkSize < 1 {
		return fmt.Errorf("target chunk size must be positive, got %d", c.TargetChunkSize)
	}
	switch c.PDFBackend {
	case BackendNative, BackendPdftotext:
	default:
		return fmt.Errorf("unknown pdf backend %q", c.PDFBackend)
	}
	return nil
}
