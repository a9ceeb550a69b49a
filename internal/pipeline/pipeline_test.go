// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kc9wwh/textwave/internal/audio"
	"github.com/kc9wwh/textwave/internal/chunk"
	"github.com/kc9wwh/textwave/internal/state"
	"github.com/kc9wwh/textwave/internal/tts"
	"github.com/kc9wwh/textwave/pkg/types"
)

// plantState builds the checkpoint a crashed run would have left.
func plantState(pdf, out, tempDir, text string, total int) *types.ConversionState {
	st := types.NewConversionState(pdf, out, tempDir)
	st.TotalChunks = total
	st.FullText = text
	return st
}

// stubExtractor returns canned text instead of reading a PDF.
type stubExtractor struct {
	text  string
	pages int
	err   error
}

func (s *stubExtractor) Extract(path string) (string, int, error) {
	return s.text, s.pages, s.err
}

// captureRecorder remembers history records.
type captureRecorder struct {
	records int
	chunks  int
}

func (c *captureRecorder) Record(pdfPath, outputPath string, chunks, characters int, duration time.Duration) error {
	c.records++
	c.chunks = chunks
	return nil
}

// concatMerger fakes ffmpeg by concatenating the listed files.
func concatMerger(t *testing.T) *audio.Merger {
	t.Helper()
	return audio.NewMergerForTests("128k", func(name string, args ...string) error {
		var listPath, outPath string
		for i, a := range args {
			if a == "-i" && i+1 < len(args) {
				listPath = args[i+1]
			}
		}
		outPath = args[len(args)-1]

		list, err := os.ReadFile(listPath)
		if err != nil {
			return err
		}
		var merged []byte
		for _, line := range strings.Split(strings.TrimSpace(string(list)), "\n") {
			p := strings.TrimSuffix(strings.TrimPrefix(line, "file '"), "'")
			data, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			merged = append(merged, data...)
		}
		return os.WriteFile(outPath, merged, 0o644)
	})
}

// threeChunkText builds text that splits into exactly three chunks at
// the given target.
func threeChunkText() string {
	sentence := strings.Repeat("x", 99) + "."
	parts := make([]string, 25)
	for i := range parts {
		parts[i] = sentence
	}
	return strings.Join(parts, " ")
}

func newRunner(t *testing.T, s *state.Store, synth tts.Synthesizer, text string) (*Runner, *captureRecorder) {
	t.Helper()
	rec := &captureRecorder{}
	return &Runner{
		Extractor: &stubExtractor{text: text, pages: 4},
		Store:     s,
		Merger:    concatMerger(t),
		Dispatcher: &Dispatcher{
			Synth:      synth,
			Voice:      "test-voice",
			Workers:    2,
			MaxRetries: 2,
		},
		History:         rec,
		TargetChunkSize: 1000,
	}, rec
}

func TestRun_EndToEnd(t *testing.T) {
	base := t.TempDir()
	s := state.NewStore(base)
	out := filepath.Join(base, "book.mp3")

	synth := &tts.MockSynth{Fragments: [][]byte{[]byte("AU")}}
	r, rec := newRunner(t, s, synth, threeChunkText())

	var log bytes.Buffer
	require.NoError(t, r.Run(context.Background(), "/in/book.pdf", out, &log))

	// Three chunks synthesized once each, merged in order.
	assert.Equal(t, 3, synth.Calls())
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte("AUAUAU"), data)

	// Cleanup removed the chunk files and the state file.
	key := state.Key("/in/book.pdf", out)
	_, err = os.Stat(s.TempDir(key))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(s.StatePath(key))
	assert.True(t, os.IsNotExist(err))

	// History recorded the completed conversion.
	assert.Equal(t, 1, rec.records)
	assert.Equal(t, 3, rec.chunks)

	assert.Contains(t, log.String(), "Split into 3 chunks")
	assert.Contains(t, log.String(), "Saved final MP3")
}

func TestRun_ResumeDispatchesOnlyPendingChunks(t *testing.T) {
	base := t.TempDir()
	s := state.NewStore(base)
	out := filepath.Join(base, "book.mp3")
	text := threeChunkText()

	chunks := chunk.Split(text, 1000)
	require.Len(t, chunks, 3)

	// Plant a checkpoint with chunks 0 and 1 done and their audio on
	// disk, as a crashed run would leave behind.
	key := state.Key("/in/book.pdf", out)
	st := s.TempDir(key)
	require.NoError(t, os.MkdirAll(st, 0o755))
	planted := plantState("/in/book.pdf", out, st, text, 3)
	for i := 0; i < 2; i++ {
		p := filepath.Join(st, fmt.Sprintf("chunk_%d.mp3", i))
		require.NoError(t, os.WriteFile(p, []byte("AU"), 0o644))
		planted.MarkCompleted(i, p)
	}
	require.NoError(t, s.Save(planted))

	synth := &tts.MockSynth{Fragments: [][]byte{[]byte("AU")}}
	r, _ := newRunner(t, s, synth, "unused - cached text wins")

	var log bytes.Buffer
	require.NoError(t, r.Run(context.Background(), "/in/book.pdf", out, &log))

	// Only chunk 2 was synthesized; extraction was skipped.
	assert.Equal(t, 1, synth.Calls())
	assert.Contains(t, log.String(), "Resuming conversion (2/3 chunks completed)")
	assert.Contains(t, log.String(), "Using cached extracted text")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte("AUAUAU"), data)
}

func TestRun_ExtractionFailureIsFatalWithNoState(t *testing.T) {
	base := t.TempDir()
	s := state.NewStore(base)
	out := filepath.Join(base, "book.mp3")

	r, _ := newRunner(t, s, &tts.MockSynth{}, "")
	r.Extractor = &stubExtractor{err: fmt.Errorf("encrypted document")}

	var log bytes.Buffer
	err := r.Run(context.Background(), "/in/book.pdf", out, &log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extracting text")

	// A fresh run that dies in extraction leaves no checkpoint behind.
	_, statErr := os.Stat(s.StatePath(state.Key("/in/book.pdf", out)))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_FailedChunksKeepStateForRetry(t *testing.T) {
	base := t.TempDir()
	s := state.NewStore(base)
	out := filepath.Join(base, "book.mp3")

	synth := &tts.MockSynth{FailFirst: -1, Err: fmt.Errorf("service down")}
	r, rec := newRunner(t, s, synth, threeChunkText())

	var log bytes.Buffer
	err := r.Run(context.Background(), "/in/book.pdf", out, &log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to convert 3 chunk(s)")

	// The checkpoint survives so the run can be retried or resumed.
	loaded, loadErr := s.Load("/in/book.pdf", out)
	require.NoError(t, loadErr)
	require.NotNil(t, loaded)
	assert.Equal(t, 3, loaded.TotalChunks)
	assert.Equal(t, 0, rec.records)
}

func TestRun_MergeFailureRetainsState(t *testing.T) {
	base := t.TempDir()
	s := state.NewStore(base)
	out := filepath.Join(base, "book.mp3")

	synth := &tts.MockSynth{Fragments: [][]byte{[]byte("AU")}}
	r, rec := newRunner(t, s, synth, threeChunkText())
	r.Merger = audio.NewMergerForTests("128k", func(name string, args ...string) error {
		return fmt.Errorf("exit status 1")
	})

	var log bytes.Buffer
	err := r.Run(context.Background(), "/in/book.pdf", out, &log)
	require.Error(t, err)

	loaded, loadErr := s.Load("/in/book.pdf", out)
	require.NoError(t, loadErr)
	require.NotNil(t, loaded)
	assert.True(t, loaded.ContiguousComplete())
	assert.Equal(t, 0, rec.records)
}

func TestRun_PausedRunReturnsCleanly(t *testing.T) {
	base := t.TempDir()
	s := state.NewStore(base)
	out := filepath.Join(base, "book.mp3")

	synth := &tts.MockSynth{Fragments: [][]byte{[]byte("AU")}}
	r, rec := newRunner(t, s, synth, threeChunkText())
	r.Dispatcher.Pause()

	var log bytes.Buffer
	require.NoError(t, r.Run(context.Background(), "/in/book.pdf", out, &log))

	// Nothing converted, nothing merged, state saved with the paused
	// marker for a later resume.
	assert.Equal(t, 0, rec.records)
	loaded, err := s.Load("/in/book.pdf", out)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.True(t, loaded.Paused)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}
