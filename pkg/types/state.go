// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared records and configuration for the
// textwave conversion pipeline.
package types

import (
	"sort"
	"strconv"
	"time"
)

// StateSchemaVersion is the current on-disk state file schema. Records
// without a schema_version field are treated as version 1.
const StateSchemaVersion = 1

// ConversionState is the persisted checkpoint for one input/output pair.
// It is created on the first run, updated after every completed chunk,
// and deleted after a successful merge or an explicit discard. The JSON
// field names are the on-disk state file format.
type ConversionState struct {
	SchemaVersion   int               `json:"schema_version,omitempty"`
	PDFPath         string            `json:"pdf_path"`
	OutputPath      string            `json:"output_path"`
	TotalChunks     int               `json:"total_chunks"`
	CompletedChunks []int             `json:"completed_chunks"`
	ChunkFiles      map[string]string `json:"chunk_files"`
	Paused          bool              `json:"paused"`
	CreatedAt       time.Time         `json:"created_at"`
	TempDir         string            `json:"temp_dir"`

	// FullText caches the extracted text so a resumed run re-chunks the
	// exact same input without touching the PDF again.
	FullText string `json:"full_text,omitempty"`
}

// NewConversionState creates a fresh state for an input/output pair.
func NewConversionState(pdfPath, outputPath, tempDir string) *ConversionState {
	return &ConversionState{
		SchemaVersion:   StateSchemaVersion,
		PDFPath:         pdfPath,
		OutputPath:      outputPath,
		CompletedChunks: []int{},
		ChunkFiles:      map[string]string{},
		CreatedAt:       time.Now(),
		TempDir:         tempDir,
	}
}

// Completed reports whether the chunk at idx has already been converted.
func (s *ConversionState) Completed(idx int) bool {
	for _, c := range s.CompletedChunks {
		if c == idx {
			return true
		}
	}
	return false
}

// MarkCompleted records a converted chunk and its audio file. Marking the
// same index twice is a no-op apart from refreshing the file path.
func (s *ConversionState) MarkCompleted(idx int, file string) {
	if s.ChunkFiles == nil {
		s.ChunkFiles = map[string]string{}
	}
	s.ChunkFiles[strconv.Itoa(idx)] = file
	if !s.Completed(idx) {
		s.CompletedChunks = append(s.CompletedChunks, idx)
	}
}

// Progress returns the completed and total chunk counts.
func (s *ConversionState) Progress() (done, total int) {
	return len(s.CompletedChunks), s.TotalChunks
}

// ContiguousComplete reports whether the completed set covers exactly
// 0..TotalChunks-1, the precondition for merging.
func (s *ConversionState) ContiguousComplete() bool {
	if s.TotalChunks == 0 || len(s.CompletedChunks) != s.TotalChunks {
		return false
	}
	sorted := append([]int(nil), s.CompletedChunks...)
	sort.Ints(sorted)
	for i, idx := range sorted {
		if idx != i {
			return false
		}
	}
	return true
}

// Chunk is one bounded slice of the extracted text, the unit of
// synthesis work. Indices are 0-based and contiguous.
type Chunk struct {
	Index int
	Text  string
}

// ChunkResult is the outcome of converting one chunk. It is consumed
// immediately by the dispatcher and never persisted.
type ChunkResult struct {
	Index      int
	OutputFile string
	Err        error
}

// Success reports whether the chunk converted cleanly.
func (r ChunkResult) Success() bool {
	return r.Err == nil
}
