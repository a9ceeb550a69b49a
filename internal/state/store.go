// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package state persists per-conversion progress as JSON checkpoint
// files keyed by a content hash of the input/output path pair, and
// detects checkpoints orphaned by crashed runs.
package state

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kc9wwh/textwave/pkg/types"
)

const (
	statePrefix = "textwave_state_"
	dirPrefix   = "textwave_"
	keyLen      = 12
)

// Key derives the 12-character hex identity for an input/output pair.
// The same pair always maps to the same state file.
func Key(pdfPath, outputPath string) string {
	sum := sha256.Sum256([]byte(pdfPath + "_" + outputPath))
	return fmt.Sprintf("%x", sum)[:keyLen]
}

// Store reads and writes conversion checkpoints under a base directory.
type Store struct {
	// Base is the directory holding state files and chunk working
	// directories, normally the system temp dir.
	Base string
}

// NewStore creates a store rooted at base, defaulting to the system
// temp directory.
func NewStore(base string) *Store {
	if base == "" {
		base = os.TempDir()
	}
	return &Store{Base: base}
}

// StatePath returns the checkpoint file path for a key.
func (s *Store) StatePath(key string) string {
	return filepath.Join(s.Base, statePrefix+key+".json")
}

// TempDir returns the chunk working directory for a key.
func (s *Store) TempDir(key string) string {
	return filepath.Join(s.Base, dirPrefix+key)
}

// Load returns the persisted state for an input/output pair, or nil if
// no usable checkpoint exists. A missing, corrupt, path-mismatched, or
// newer-schema state file all read as "no state": the conversion simply
// starts fresh.
func (s *Store) Load(pdfPath, outputPath string) (*types.ConversionState, error) {
	st, err := readStateFile(s.StatePath(Key(pdfPath, outputPath)))
	if err != nil || st == nil {
		return nil, err
	}

	// Defensive validation against stale or colliding state files.
	if st.PDFPath != pdfPath || st.OutputPath != outputPath {
		return nil, nil
	}
	return st, nil
}

// readStateFile parses a checkpoint, tolerating every failure mode as
// absence. Records without a schema version are what pre-versioning
// releases wrote, so they read as version 1.
func readStateFile(path string) (*types.ConversionState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, nil
	}

	var st types.ConversionState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, nil
	}
	if st.SchemaVersion == 0 {
		st.SchemaVersion = 1
	}
	if st.SchemaVersion > types.StateSchemaVersion {
		return nil, nil
	}
	return &st, nil
}

// Save atomically persists the state: it serializes to a temp file in
// the same directory and renames it over the real file, so a reader
// never observes a half-written checkpoint even if the process dies
// mid-write.
func (s *Store) Save(st *types.ConversionState) error {
	path := s.StatePath(Key(st.PDFPath, st.OutputPath))

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing state temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}

// Discard removes the checkpoint and working directory for a key. It
// returns os.ErrNotExist when no trace of the conversion is on disk.
func (s *Store) Discard(key string) error {
	var errs []error
	found := false

	dir := s.TempDir(key)
	if _, err := os.Stat(dir); err == nil {
		found = true
		if err := os.RemoveAll(dir); err != nil {
			errs = append(errs, err)
		}
	}

	path := s.StatePath(key)
	if err := os.Remove(path); err == nil {
		found = true
	} else if !os.IsNotExist(err) {
		errs = append(errs, err)
	}

	if !found && len(errs) == 0 {
		return os.ErrNotExist
	}
	return errors.Join(errs...)
}

// Cleanup removes the chunk audio files, the working directory, and the
// state file. It keeps going after individual failures and reports them
// joined; callers treat the result as a warning.
func (s *Store) Cleanup(st *types.ConversionState) error {
	var errs []error

	if st.TempDir != "" {
		chunks, _ := filepath.Glob(filepath.Join(st.TempDir, "chunk_*.mp3"))
		for _, f := range chunks {
			if err := os.Remove(f); err != nil {
				errs = append(errs, err)
			}
		}
		if err := os.Remove(st.TempDir); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}

	path := s.StatePath(Key(st.PDFPath, st.OutputPath))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
