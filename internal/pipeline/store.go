package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Store manages run records on disk under <artifacts_root>/runs.
type Store struct {
	baseDir string
}

// NewStore creates a Store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// RunsDir returns the conventional run record directory for an artifacts root.
func RunsDir(artifactsRoot string) string {
	return filepath.Join(artifactsRoot, "runs")
}

// BaseDir returns the store's root directory.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// ValidRunID returns an error unless id names a single entry directly under
// the store directory.
func ValidRunID(id string) error {
	if id == "" {
		return fmt.Errorf("run id is required")
	}
	if strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") || filepath.Base(id) != id {
		return fmt.Errorf("invalid run id %q", id)
	}
	return nil
}

func (s *Store) runDir(id string) (string, error) {
	if err := ValidRunID(id); err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, id), nil
}

func (s *Store) runPath(id string) (string, error) {
	dir, err := s.runDir(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "run.json"), nil
}

// Create writes a new running record.
func (s *Store) Create(id string, paths ConfigPaths) (*RunState, error) {
	path, err := s.runPath(id)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(filepath.Dir(path)); err == nil {
		return nil, fmt.Errorf("run %s already exists", id)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	rs := &RunState{
		ID:           id,
		Status:       StatusRunning,
		StageHistory: []StageHistoryEntry{},
		ConfigPaths:  paths,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := WriteJSON(path, rs); err != nil {
		return nil, fmt.Errorf("write run.json: %w", err)
	}
	return rs, nil
}

// Get reads the record for a run.
func (s *Store) Get(id string) (*RunState, error) {
	path, err := s.runPath(id)
	if err != nil {
		return nil, err
	}
	var rs RunState
	if err := ReadJSON(path, &rs); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("run %s not found", id)
		}
		return nil, err
	}
	return &rs, nil
}

// Update performs a read-modify-write of the run record.
func (s *Store) Update(id string, fn func(*RunState)) error {
	rs, err := s.Get(id)
	if err != nil {
		return err
	}
	fn(rs)
	rs.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	path, err := s.runPath(id)
	if err != nil {
		return err
	}
	return WriteJSON(path, rs)
}

// List returns all runs, oldest first, optionally filtered by status.
// Pass "" for statusFilter to return all runs.
func (s *Store) List(statusFilter string) ([]RunState, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir %s: %w", s.baseDir, err)
	}

	var runs []RunState
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		rs, err := s.Get(entry.Name())
		if err != nil {
			continue // skip broken entries
		}
		if statusFilter == "" || rs.Status == statusFilter {
			runs = append(runs, *rs)
		}
	}

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAt != runs[j].CreatedAt {
			return runs[i].CreatedAt < runs[j].CreatedAt
		}
		return runs[i].ID < runs[j].ID
	})
	return runs, nil
}

// Delete removes a run record.
func (s *Store) Delete(id string) error {
	dir, err := s.runDir(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("run %s not found", id)
	}
	return os.RemoveAll(dir)
}
