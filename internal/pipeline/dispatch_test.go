// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kc9wwh/textwave/internal/state"
	"github.com/kc9wwh/textwave/internal/tts"
	"github.com/kc9wwh/textwave/pkg/types"
)

func init() {
	// Use a tiny base delay so tests finish quickly.
	RetryBaseDelay = 1 * time.Millisecond
}

func testState(t *testing.T, s *state.Store, total int) *types.ConversionState {
	t.Helper()
	st := types.NewConversionState("/in.pdf", "/out.mp3", s.TempDir(state.Key("/in.pdf", "/out.mp3")))
	st.TotalChunks = total
	require.NoError(t, os.MkdirAll(st.TempDir, 0o755))
	return st
}

func makeChunks(n int) []types.Chunk {
	chunks := make([]types.Chunk, n)
	for i := range chunks {
		chunks[i] = types.Chunk{Index: i, Text: fmt.Sprintf("Sentence number %d.", i)}
	}
	return chunks
}

func TestDispatch_ConvertsAllChunksAndCheckpoints(t *testing.T) {
	s := state.NewStore(t.TempDir())
	st := testState(t, s, 3)

	d := &Dispatcher{
		Synth:      &tts.MockSynth{Fragments: [][]byte{[]byte("audio")}},
		Voice:      "test-voice",
		Workers:    2,
		MaxRetries: 3,
	}

	var out bytes.Buffer
	require.NoError(t, d.Dispatch(context.Background(), st, makeChunks(3), s, &out))

	assert.True(t, st.ContiguousComplete())
	for i := 0; i < 3; i++ {
		path := filepath.Join(st.TempDir, fmt.Sprintf("chunk_%d.mp3", i))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, []byte("audio"), data)
	}

	// Incremental checkpointing leaves the final state on disk.
	loaded, err := s.Load("/in.pdf", "/out.mp3")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.True(t, loaded.ContiguousComplete())
}

func TestDispatch_ReportsProgressWithETA(t *testing.T) {
	s := state.NewStore(t.TempDir())
	st := testState(t, s, 2)

	var percents []int
	var messages []string
	d := &Dispatcher{
		Synth:      &tts.MockSynth{Fragments: [][]byte{[]byte("a")}},
		Voice:      "v",
		Workers:    1,
		MaxRetries: 1,
		Progress: func(p int, msg string) {
			percents = append(percents, p)
			messages = append(messages, msg)
		},
	}

	var out bytes.Buffer
	require.NoError(t, d.Dispatch(context.Background(), st, makeChunks(2), s, &out))

	require.Equal(t, []int{50, 100}, percents)
	assert.Contains(t, messages[0], "Chunk 1/2")
	assert.Contains(t, messages[0], "ETA:")
	assert.Contains(t, messages[1], "Chunk 2/2")
}

// failingSynth fails for chunks whose text is in the bad set.
type failingSynth struct {
	bad map[string]bool
}

func (f *failingSynth) Synthesize(ctx context.Context, text, voice string) (<-chan []byte, <-chan error) {
	data := make(chan []byte, 1)
	errs := make(chan error, 1)
	if f.bad[text] {
		errs <- fmt.Errorf("synth refused")
	} else {
		data <- []byte("ok")
	}
	close(data)
	close(errs)
	return data, errs
}

func TestDispatch_CollectsFailuresWithoutFailFast(t *testing.T) {
	s := state.NewStore(t.TempDir())
	st := testState(t, s, 4)

	chunks := makeChunks(4)
	d := &Dispatcher{
		Synth:      &failingSynth{bad: map[string]bool{chunks[1].Text: true, chunks[3].Text: true}},
		Voice:      "v",
		Workers:    2,
		MaxRetries: 2,
	}

	var out bytes.Buffer
	err := d.Dispatch(context.Background(), st, chunks, s, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to convert 2 chunk(s)")
	assert.Contains(t, err.Error(), "[1 3]")

	// The healthy chunks still completed and checkpointed.
	assert.True(t, st.Completed(0))
	assert.True(t, st.Completed(2))
	assert.False(t, st.Completed(1))
}

func TestDispatch_PauseBeforeStartSubmitsNothing(t *testing.T) {
	s := state.NewStore(t.TempDir())
	st := testState(t, s, 3)

	synth := &tts.MockSynth{Fragments: [][]byte{[]byte("a")}}
	d := &Dispatcher{Synth: synth, Voice: "v", Workers: 2, MaxRetries: 1}
	d.Pause()

	var out bytes.Buffer
	require.NoError(t, d.Dispatch(context.Background(), st, makeChunks(3), s, &out))

	assert.Equal(t, 0, synth.Calls())
	assert.True(t, st.Paused)
	assert.Contains(t, out.String(), "Paused. Progress saved.")

	loaded, err := s.Load("/in.pdf", "/out.mp3")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.True(t, loaded.Paused)
}

// pausingSynth pauses the dispatcher during its first call.
type pausingSynth struct {
	d     *Dispatcher
	calls atomic.Int32
}

func (p *pausingSynth) Synthesize(ctx context.Context, text, voice string) (<-chan []byte, <-chan error) {
	if p.calls.Add(1) == 1 {
		p.d.Pause()
	}
	data := make(chan []byte, 1)
	errs := make(chan error, 1)
	data <- []byte("ok")
	close(data)
	close(errs)
	return data, errs
}

func TestDispatch_PauseMidRunFinishesInFlightOnly(t *testing.T) {
	s := state.NewStore(t.TempDir())
	st := testState(t, s, 3)

	d := &Dispatcher{Voice: "v", Workers: 1, MaxRetries: 1}
	synth := &pausingSynth{d: d}
	d.Synth = synth

	var out bytes.Buffer
	require.NoError(t, d.Dispatch(context.Background(), st, makeChunks(3), s, &out))

	// The in-flight chunk ran to completion; nothing else was submitted.
	assert.Equal(t, int32(1), synth.calls.Load())
	assert.True(t, st.Completed(0))
	assert.True(t, st.Paused)
	done, _ := st.Progress()
	assert.Equal(t, 1, done)
}

func TestDispatch_NoPendingChunks(t *testing.T) {
	s := state.NewStore(t.TempDir())
	st := testState(t, s, 2)

	d := &Dispatcher{Synth: &tts.MockSynth{}, Voice: "v", Workers: 1, MaxRetries: 1}
	var out bytes.Buffer
	assert.NoError(t, d.Dispatch(context.Background(), st, nil, s, &out))
}
