// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package state

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kc9wwh/textwave/pkg/types"
)

// DefaultStaleness is how old a state file must be before it counts as
// orphaned. Anything younger probably belongs to a conversion that is
// still running in another process.
const DefaultStaleness = 5 * time.Minute

// Orphan is a stale checkpoint left behind by a run that exited before
// completing or cleaning up.
type Orphan struct {
	Key     string
	State   *types.ConversionState
	Age     time.Duration
	Percent int
}

// Scan finds orphaned state files under the store base, skipping files
// younger than staleness and files that do not parse as usable state.
// Results are sorted oldest first; callers that resume should take only
// the first candidate.
func (s *Store) Scan(staleness time.Duration) ([]Orphan, error) {
	if staleness <= 0 {
		staleness = DefaultStaleness
	}
	return s.scan(staleness, true)
}

// List returns every readable checkpoint under the store base regardless
// of age, oldest first.
func (s *Store) List() ([]Orphan, error) {
	return s.scan(0, false)
}

func (s *Store) scan(minAge time.Duration, requireChunks bool) ([]Orphan, error) {
	matches, err := filepath.Glob(filepath.Join(s.Base, statePrefix+"*.json"))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var orphans []Orphan

	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		age := now.Sub(info.ModTime())
		if age < minAge {
			continue
		}

		st, err := readStateFile(path)
		if err != nil || st == nil {
			continue
		}
		if requireChunks && st.TotalChunks == 0 {
			continue
		}

		percent := 0
		if done, total := st.Progress(); total > 0 {
			percent = done * 100 / total
		}
		orphans = append(orphans, Orphan{
			Key:     keyFromPath(path),
			State:   st,
			Age:     age,
			Percent: percent,
		})
	}

	sort.Slice(orphans, func(i, j int) bool {
		return orphans[i].Age > orphans[j].Age
	})
	return orphans, nil
}

// keyFromPath recovers the conversion key from a state file name.
func keyFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimPrefix(base, statePrefix)
	return strings.TrimSuffix(base, ".json")
}
