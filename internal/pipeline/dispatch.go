// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kc9wwh/textwave/internal/state"
	"github.com/kc9wwh/textwave/internal/tts"
	"github.com/kc9wwh/textwave/pkg/types"
)

// Dispatcher runs chunk conversions concurrently with a bounded worker
// pool. Results flow through a single channel into the state-owning
// loop, so ConversionState only ever has one writer.
type Dispatcher struct {
	Synth      tts.Synthesizer
	Voice      string
	Workers    int
	MaxRetries int

	// Progress, when set, receives (percent complete, human-readable
	// status) after each successful chunk.
	Progress func(percent int, message string)

	paused atomic.Bool
	start  time.Time
}

// Pause requests a cooperative stop. Chunks already in flight run to
// completion (or exhaust their retries); no new chunks are submitted
// afterwards and the dispatcher returns with progress saved.
func (d *Dispatcher) Pause() {
	d.paused.Store(true)
}

// Paused reports whether a pause has been requested.
func (d *Dispatcher) Paused() bool {
	return d.paused.Load()
}

// Dispatch converts every pending chunk, checkpointing state after each
// success. Per-chunk failures accumulate and surface only after all
// submitted chunks are attempted; a pause returns early with no error.
func (d *Dispatcher) Dispatch(ctx context.Context, st *types.ConversionState, pending []types.Chunk, store *state.Store, w io.Writer) error {
	if len(pending) == 0 {
		return nil
	}

	d.start = time.Now()

	workers := d.Workers
	if workers < 1 {
		workers = 1
	}

	results := make(chan types.ChunkResult)
	sem := make(chan struct{}, workers)

	go func() {
		var wg sync.WaitGroup
		for _, c := range pending {
			if d.paused.Load() {
				break
			}
			sem <- struct{}{}
			// A pause can arrive while the launcher is blocked on a full
			// pool; check again before committing the slot.
			if d.paused.Load() {
				<-sem
				break
			}
			wg.Add(1)
			go func(c types.Chunk) {
				defer wg.Done()
				defer func() { <-sem }()
				results <- d.convertChunk(ctx, c, st.TempDir)
			}(c)
		}
		wg.Wait()
		close(results)
	}()

	var failed []types.ChunkResult
	for res := range results {
		if !res.Success() {
			failed = append(failed, res)
			warn(w, "chunk %d failed after %d attempts: %v", res.Index, d.MaxRetries, res.Err)
			continue
		}

		st.MarkCompleted(res.Index, res.OutputFile)
		if err := store.Save(st); err != nil {
			// Best-effort checkpointing: a failed save costs resume
			// granularity, not the conversion.
			warn(w, "could not save state: %v", err)
		}
		d.reportProgress(st)
	}

	if d.paused.Load() {
		st.Paused = true
		if err := store.Save(st); err != nil {
			warn(w, "could not save state: %v", err)
		}
		fmt.Fprintln(w, "Paused. Progress saved.")
		return nil
	}

	if len(failed) > 0 {
		sort.Slice(failed, func(i, j int) bool { return failed[i].Index < failed[j].Index })
		return fmt.Errorf("failed to convert %d chunk(s), first failing indices %v: %w",
			len(failed), firstIndices(failed, 5), failed[0].Err)
	}
	return nil
}

// reportProgress emits percentage, chunk counts, and an ETA scaled from
// elapsed wall-clock time over the completed fraction.
func (d *Dispatcher) reportProgress(st *types.ConversionState) {
	if d.Progress == nil {
		return
	}

	done, total := st.Progress()
	if total == 0 {
		return
	}
	percent := done * 100 / total

	msg := fmt.Sprintf("Chunk %d/%d", done, total)
	if percent > 0 {
		elapsed := time.Since(d.start)
		estTotal := time.Duration(float64(elapsed) * 100 / float64(percent))
		remaining := estTotal - elapsed
		msg = fmt.Sprintf("%s - ETA: %dm %ds", msg,
			int(remaining.Minutes()), int(remaining.Seconds())%60)
	}
	d.Progress(percent, msg)
}
