// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates the chunked PDF-to-MP3 conversion:
// extract, chunk, dispatch synthesis workers with checkpointing, merge,
// and clean up.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kc9wwh/textwave/internal/audio"
	"github.com/kc9wwh/textwave/internal/chunk"
	"github.com/kc9wwh/textwave/internal/pdf"
	"github.com/kc9wwh/textwave/internal/state"
	"github.com/kc9wwh/textwave/pkg/types"
)

// HistoryRecorder logs completed conversions. A nil recorder disables
// history.
type HistoryRecorder interface {
	Record(pdfPath, outputPath string, chunks, characters int, duration time.Duration) error
}

// Runner wires the pipeline stages together for one or more runs.
type Runner struct {
	Extractor       pdf.Extractor
	Store           *state.Store
	Merger          *audio.Merger
	Dispatcher      *Dispatcher
	History         HistoryRecorder
	TargetChunkSize int
}

// Run converts pdfPath to an MP3 at outputPath, resuming from a prior
// checkpoint when one exists. Status lines go to w. On any fatal error
// after a checkpoint exists, the state is saved before returning so the
// run stays resumable.
func (r *Runner) Run(ctx context.Context, pdfPath, outputPath string, w io.Writer) error {
	started := time.Now()

	st, err := r.Store.Load(pdfPath, outputPath)
	if err != nil {
		return err
	}

	persisted := st != nil
	if st != nil {
		done, total := st.Progress()
		fmt.Fprintf(w, "Resuming conversion (%d/%d chunks completed)...\n", done, total)
		st.Paused = false
	} else {
		key := state.Key(pdfPath, outputPath)
		st = types.NewConversionState(pdfPath, outputPath, r.Store.TempDir(key))
	}

	// checkpoint persists progress before a fatal return; failures are
	// warnings (best-effort checkpointing).
	checkpoint := func() {
		if !persisted {
			return
		}
		if err := r.Store.Save(st); err != nil {
			warn(w, "could not save state: %v", err)
		}
	}

	// Extract text, or reuse the cache from an interrupted run.
	text := st.FullText
	if text == "" {
		fmt.Fprintln(w, "Extracting text from PDF...")
		extracted, pages, err := r.Extractor.Extract(pdfPath)
		if err != nil {
			checkpoint()
			return fmt.Errorf("extracting text: %w", err)
		}
		fmt.Fprintf(w, "Extracted %d characters from %d pages\n", len(extracted), pages)
		text = extracted
		st.FullText = text
	} else {
		fmt.Fprintln(w, "Using cached extracted text...")
	}

	if err := os.MkdirAll(st.TempDir, 0o755); err != nil {
		checkpoint()
		return fmt.Errorf("creating temp directory: %w", err)
	}

	chunks := chunk.Split(text, r.TargetChunkSize)
	if len(chunks) == 0 {
		checkpoint()
		return fmt.Errorf("no convertible text in %s", pdfPath)
	}

	if st.TotalChunks == 0 {
		st.TotalChunks = len(chunks)
		fmt.Fprintf(w, "Split into %d chunks for conversion\n", len(chunks))
		if err := r.Store.Save(st); err != nil {
			warn(w, "could not save state: %v", err)
		} else {
			persisted = true
		}
	}

	pending := make([]types.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if !st.Completed(c.Index) {
			pending = append(pending, c)
		}
	}

	if len(pending) == 0 {
		fmt.Fprintln(w, "All chunks already converted, merging...")
	} else {
		fmt.Fprintf(w, "Converting %d chunks using %d workers...\n",
			len(pending), r.Dispatcher.Workers)
		if err := r.Dispatcher.Dispatch(ctx, st, pending, r.Store, w); err != nil {
			checkpoint()
			return err
		}
		if r.Dispatcher.Paused() {
			return nil
		}
	}

	if !st.ContiguousComplete() {
		checkpoint()
		done, total := st.Progress()
		return fmt.Errorf("inconsistent state: %d/%d chunks completed but set is not contiguous", done, total)
	}

	fmt.Fprintln(w, "Merging audio chunks...")
	if err := r.Merger.Merge(st.ChunkFiles, outputPath); err != nil {
		// Keep the state file so the user can investigate or retry.
		checkpoint()
		return err
	}

	if r.History != nil {
		err := r.History.Record(pdfPath, outputPath, st.TotalChunks, len(text), time.Since(started))
		if err != nil {
			warn(w, "could not record history: %v", err)
		}
	}

	if err := r.Store.Cleanup(st); err != nil {
		warn(w, "could not clean up temp files: %v", err)
	}

	fmt.Fprintf(w, "Saved final MP3: %s\n", outputPath)
	return nil
}
