package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/amishk599/jobdigest/internal/model"
)

// Ensure FileStore implements model.HistoryStore.
var _ model.HistoryStore = (*FileStore)(nil)

// FileStore keeps the seen-identity set as a JSON array of digest strings.
// Persist never leaves a partially written file at path: the new state is
// written to a temp file in the same directory, synced, then renamed over
// the old one.
//
// A file that exists but cannot be parsed is never overwritten: the next
// Persist first moves it aside to <path>.corrupt-<timestamp>.
type FileStore struct {
	path       string
	encode     func(w io.Writer, ids []string) error
	now        func() time.Time
	unreadable bool
}

// NewFileStore returns a store backed by the JSON file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, encode: encodeJSON, now: time.Now}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// Load reads the identity set. A missing file is a first run and yields an
// empty set with no error.
func (s *FileStore) Load(_ context.Context) (map[string]struct{}, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]struct{}{}, nil
	}
	if err != nil {
		return map[string]struct{}{}, fmt.Errorf("reading history %s: %w", s.path, err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		s.unreadable = true
		return map[string]struct{}{}, fmt.Errorf("parsing history %s (kept as a backup on next write): %w", s.path, err)
	}
	s.unreadable = false

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// Persist atomically replaces the file with ids, sorted for stable diffs.
func (s *FileStore) Persist(_ context.Context, ids map[string]struct{}) error {
	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("persisting history %s: %w", s.path, err)
	}

	if s.unreadable {
		backup := s.path + ".corrupt-" + s.now().UTC().Format("20060102T150405Z")
		if err := os.Rename(s.path, backup); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("persisting history %s: preserving unreadable file: %w", s.path, err)
		}
		s.unreadable = false
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("persisting history %s: %w", s.path, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := s.encode(tmp, sorted); err != nil {
		return fmt.Errorf("persisting history %s: %w", s.path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("persisting history %s: sync: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("persisting history %s: close: %w", s.path, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("persisting history %s: rename: %w", s.path, err)
	}
	committed = true
	return nil
}

func encodeJSON(w io.Writer, ids []string) error {
	return json.NewEncoder(w).Encode(ids)
}
