// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/kc9wwh/textwave/pkg/types"
)

// RetryBaseDelay is the base duration for exponential backoff between
// synthesis attempts. The delay doubles each attempt: 1s, 2s, 4s, ...
// Tests override this to avoid real sleeps.
var RetryBaseDelay = 1 * time.Second

// convertChunk synthesizes one chunk into destDir/chunk_<index>.mp3,
// retrying up to MaxRetries times with exponential backoff. Every
// attempt truncates the destination and streams from scratch, so a
// prior attempt's partial file can never leak into the output. No
// backoff follows the final attempt.
func (d *Dispatcher) convertChunk(ctx context.Context, c types.Chunk, destDir string) types.ChunkResult {
	dest := filepath.Join(destDir, fmt.Sprintf("chunk_%d.mp3", c.Index))

	// Every chunk gets at least one attempt; a zero-attempt loop would
	// report success without producing any audio.
	attempts := d.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		err := d.synthesizeToFile(ctx, c.Text, dest)
		if err == nil {
			return types.ChunkResult{Index: c.Index, OutputFile: dest}
		}
		lastErr = err

		if attempt == attempts-1 {
			break
		}
		// Pause shortens retry waits: a paused run has no reason to sit
		// out a backoff before discovering it should stop.
		if d.paused.Load() {
			break
		}

		delay := time.Duration(1<<attempt) * RetryBaseDelay
		select {
		case <-ctx.Done():
			return types.ChunkResult{Index: c.Index, Err: ctx.Err()}
		case <-time.After(delay):
		}
	}

	return types.ChunkResult{Index: c.Index, Err: lastErr}
}

// synthesizeToFile streams one synthesis pass into dest, truncating any
// partial content from a previous attempt.
func (d *Dispatcher) synthesizeToFile(ctx context.Context, text, dest string) error {
	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating chunk file: %w", err)
	}

	data, errs := d.Synth.Synthesize(ctx, text, d.Voice)

	var writeErr error
	total := 0
	for fragment := range data {
		if writeErr != nil {
			continue // drain the stream
		}
		n, err := f.Write(fragment)
		total += n
		if err != nil {
			writeErr = fmt.Errorf("writing chunk audio: %w", err)
		}
	}
	synthErr := <-errs

	if err := f.Close(); err != nil && writeErr == nil && synthErr == nil {
		return fmt.Errorf("closing chunk file: %w", err)
	}
	if synthErr != nil {
		return synthErr
	}
	if writeErr != nil {
		return writeErr
	}
	if total == 0 {
		return fmt.Errorf("synthesizer produced no audio")
	}
	return nil
}

// firstIndices formats up to max failing chunk indices for an error
// message.
func firstIndices(failed []types.ChunkResult, max int) []int {
	out := make([]int, 0, max)
	for _, r := range failed {
		if len(out) == max {
			break
		}
		out = append(out, r.Index)
	}
	return out
}

// warn emits a non-fatal status line.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "warning: "+format+"\n", args...)
}
