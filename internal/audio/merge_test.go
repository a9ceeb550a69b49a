// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExecutor records the invocation and snapshots the concat list
// before Merge deletes it.
type fakeExecutor struct {
	name     string
	args     []string
	listBody string
	err      error
}

func (f *fakeExecutor) Run(name string, args ...string) error {
	f.name = name
	f.args = args
	for i, a := range args {
		if a == "-i" && i+1 < len(args) {
			data, err := os.ReadFile(args[i+1])
			if err != nil {
				return err
			}
			f.listBody = string(data)
		}
	}
	return f.err
}

func writeChunks(t *testing.T, dir string, n int) map[string]string {
	t.Helper()
	files := make(map[string]string, n)
	for i := 0; i < n; i++ {
		p := filepath.Join(dir, fmt.Sprintf("chunk_%d.mp3", i))
		require.NoError(t, os.WriteFile(p, []byte("mp3data"), 0o644))
		files[fmt.Sprintf("%d", i)] = p
	}
	return files
}

func TestMerge_ConcatenatesInIndexOrder(t *testing.T) {
	dir := t.TempDir()
	files := writeChunks(t, dir, 3)
	fake := &fakeExecutor{}
	m := &Merger{FFmpeg: "ffmpeg", Bitrate: "128k", exec: fake}

	out := filepath.Join(dir, "book.mp3")
	require.NoError(t, m.Merge(files, out))

	assert.Equal(t, "ffmpeg", fake.name)
	assert.Contains(t, fake.args, "libmp3lame")
	assert.Contains(t, fake.args, "128k")
	assert.Equal(t, out, fake.args[len(fake.args)-1])

	// The list must be in ascending index order no matter how the map
	// iterates.
	lines := strings.Split(strings.TrimSpace(fake.listBody), "\n")
	require.Len(t, lines, 3)
	for i, line := range lines {
		assert.Contains(t, line, fmt.Sprintf("chunk_%d.mp3", i))
	}
}

func TestMerge_EmptySet(t *testing.T) {
	m := &Merger{FFmpeg: "ffmpeg", Bitrate: "128k", exec: &fakeExecutor{}}
	err := m.Merge(map[string]string{}, "/out.mp3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no audio chunks")
}

func TestMerge_MissingChunkFile(t *testing.T) {
	dir := t.TempDir()
	files := writeChunks(t, dir, 2)
	require.NoError(t, os.Remove(files["1"]))

	m := &Merger{FFmpeg: "ffmpeg", Bitrate: "128k", exec: &fakeExecutor{}}
	err := m.Merge(files, filepath.Join(dir, "out.mp3"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk file missing")
}

func TestMerge_GapInIndices(t *testing.T) {
	dir := t.TempDir()
	files := writeChunks(t, dir, 3)
	delete(files, "1")
	files["3"] = files["2"]

	m := &Merger{FFmpeg: "ffmpeg", Bitrate: "128k", exec: &fakeExecutor{}}
	err := m.Merge(files, filepath.Join(dir, "out.mp3"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk 1")
}

func TestMerge_FFmpegFailure(t *testing.T) {
	dir := t.TempDir()
	files := writeChunks(t, dir, 1)

	fake := &fakeExecutor{err: fmt.Errorf("exit status 1: unknown encoder")}
	m := &Merger{FFmpeg: "ffmpeg", Bitrate: "128k", exec: fake}
	err := m.Merge(files, filepath.Join(dir, "out.mp3"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "merging audio chunks")
}

func TestMerge_RemovesConcatList(t *testing.T) {
	dir := t.TempDir()
	files := writeChunks(t, dir, 2)
	m := &Merger{FFmpeg: "ffmpeg", Bitrate: "128k", exec: &fakeExecutor{}}
	require.NoError(t, m.Merge(files, filepath.Join(dir, "out.mp3")))

	_, err := os.Stat(filepath.Join(dir, "concat_list.txt"))
	assert.True(t, os.IsNotExist(err))
}
