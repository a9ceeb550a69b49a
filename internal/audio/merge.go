// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package audio concatenates chunk audio files into the final MP3 via
// ffmpeg. Codec work stays in ffmpeg; this package only orders,
// validates, and drives it.
package audio

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// executor abstracts command execution for testing.
type executor interface {
	Run(name string, args ...string) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) Run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			lines := strings.Split(detail, "\n")
			return fmt.Errorf("%w: %s", err, strings.TrimSpace(lines[len(lines)-1]))
		}
		return err
	}
	return nil
}

// Merger concatenates completed chunk files in index order and encodes
// the result at a fixed bitrate.
type Merger struct {
	// FFmpeg is the ffmpeg executable name or path.
	FFmpeg string

	// Bitrate is the MP3 encode bitrate, e.g. "128k".
	Bitrate string

	exec executor
}

// NewMerger creates a merger with the given ffmpeg binary and bitrate.
func NewMerger(ffmpeg, bitrate string) *Merger {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	if bitrate == "" {
		bitrate = "128k"
	}
	return &Merger{FFmpeg: ffmpeg, Bitrate: bitrate, exec: &osExecutor{}}
}

// funcExecutor adapts a function to the executor interface.
type funcExecutor func(name string, args ...string) error

func (f funcExecutor) Run(name string, args ...string) error {
	return f(name, args...)
}

// NewMergerForTests creates a merger whose ffmpeg invocation is
// replaced by run.
func NewMergerForTests(bitrate string, run func(name string, args ...string) error) *Merger {
	return &Merger{FFmpeg: "ffmpeg", Bitrate: bitrate, exec: funcExecutor(run)}
}

// Merge loads the chunk files in strictly ascending index order,
// concatenates them through ffmpeg's concat demuxer, and writes the
// encoded output. It fails before touching ffmpeg if the completed set
// is empty or any recorded chunk file is missing, since either means
// the persisted state is inconsistent.
func (m *Merger) Merge(chunkFiles map[string]string, outputPath string) error {
	if len(chunkFiles) == 0 {
		return fmt.Errorf("no audio chunks to merge")
	}

	ordered := make([]string, len(chunkFiles))
	for i := range ordered {
		path, ok := chunkFiles[strconv.Itoa(i)]
		if !ok {
			return fmt.Errorf("state records no file for chunk %d", i)
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("chunk file missing: %s", path)
		}
		ordered[i] = path
	}

	listPath, err := writeConcatList(ordered)
	if err != nil {
		return err
	}
	defer os.Remove(listPath)

	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c:a", "libmp3lame",
		"-b:a", m.Bitrate,
		outputPath,
	}
	if err := m.exec.Run(m.FFmpeg, args...); err != nil {
		return fmt.Errorf("merging audio chunks: %w", err)
	}
	return nil
}

// writeConcatList writes the ffmpeg concat demuxer input next to the
// chunk files and returns its path.
func writeConcatList(ordered []string) (string, error) {
	var b strings.Builder
	for _, p := range ordered {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}

	listPath := filepath.Join(filepath.Dir(ordered[0]), "concat_list.txt")
	if err := os.WriteFile(listPath, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("writing concat list: %w", err)
	}
	return listPath, nil
}
