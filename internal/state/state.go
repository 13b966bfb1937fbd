// Package state tracks which posts have been processed across runs.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// State holds the seen-post set and the last run time. IDs keep their
// insertion order so trimming can discard the oldest entries first.
type State struct {
	ids     []string
	index   map[string]struct{}
	LastRun time.Time
}

// stateFile is the on-disk representation.
type stateFile struct {
	SeenPostIDs []string `json:"seen_post_ids"`
	LastRun     string   `json:"last_run"`
}

// New returns an empty state.
func New() *State {
	return &State{index: make(map[string]struct{})}
}

// Load reads the state file. A missing file is not an error and yields
// an empty state; an unreadable or corrupt file is surfaced.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var sf stateFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse state file %s: %w", path, err)
	}

	st := New()
	for _, id := range sf.SeenPostIDs {
		st.Add(id)
	}
	if sf.LastRun != "" {
		if t, err := time.Parse(time.RFC3339, sf.LastRun); err == nil {
			st.LastRun = t
		}
	}
	return st, nil
}

// Save writes the state to disk. The write goes to a temp file in the
// same directory followed by a rename, so a crash mid-write leaves the
// previous state intact.
func (s *State) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	sf := stateFile{SeenPostIDs: s.ids}
	if !s.LastRun.IsZero() {
		sf.LastRun = s.LastRun.UTC().Format(time.RFC3339)
	}

	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".state-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// Seen reports whether the post ID has been processed before.
func (s *State) Seen(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Add records a post ID. Adding an ID that is already present keeps its
// original insertion position.
func (s *State) Add(id string) {
	if _, ok := s.index[id]; ok {
		return
	}
	s.index[id] = struct{}{}
	s.ids = append(s.ids, id)
}

// Len returns the number of tracked IDs.
func (s *State) Len() int {
	return len(s.ids)
}

// Trim bounds the seen set, keeping the most recently inserted max IDs.
func (s *State) Trim(max int) {
	if max <= 0 || len(s.ids) <= max {
		return
	}
	dropped := s.ids[:len(s.ids)-max]
	for _, id := range dropped {
		delete(s.index, id)
	}
	s.ids = append([]string(nil), s.ids[len(s.ids)-max:]...)
}

// IDs returns the tracked IDs in insertion order.
func (s *State) IDs() []string {
	return append([]string(nil), s.ids...)
}
