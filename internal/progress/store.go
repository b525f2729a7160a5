// Package progress persists the per-batch resume cursor: the last fully
// processed row index and the sheet it belongs to, one entry per batch kind.
package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"
)

// Kind identifies which enrichment pipeline a cursor belongs to.
type Kind string

const (
	KindOwnership  Kind = "ownership"
	KindReputation Kind = "reputation"
)

// Cursor is a durable pointer to the last completed row of a batch.
type Cursor struct {
	SheetID string
	LastRow int
}

// Store is a file-backed key/value record surviving process restarts.
// Keys are lastProcessedRow:<kind> and currentSheetId:<kind>.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Start binds the cursor of the given kind to a sheet and discards any
// previous row position. Counting begins at the first Commit.
func (s *Store) Start(kind Kind, sheetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return err
	}
	delete(entries, rowKey(kind))
	entries[sheetKey(kind)] = sheetID
	return s.write(entries)
}

// Commit records rowIndex as the last completed row. Commits are monotonic:
// a lower index than the stored one for the same sheet is ignored.
func (s *Store) Commit(kind Kind, sheetID string, rowIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return err
	}
	if prev, ok := entries[rowKey(kind)]; ok && entries[sheetKey(kind)] == sheetID {
		if prevRow, err := strconv.Atoi(prev); err == nil && prevRow > rowIndex {
			log.Debug().
				Str("kind", string(kind)).
				Int("stored", prevRow).
				Int("ignored", rowIndex).
				Msg("Ignoring out-of-order cursor commit")
			return nil
		}
	}
	entries[rowKey(kind)] = strconv.Itoa(rowIndex)
	entries[sheetKey(kind)] = sheetID
	return s.write(entries)
}

// Load returns the saved cursor for kind, or ok=false when nothing was saved.
func (s *Store) Load(kind Kind) (Cursor, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return Cursor{}, false, err
	}
	raw, ok := entries[rowKey(kind)]
	if !ok {
		return Cursor{}, false, nil
	}
	row, err := strconv.Atoi(raw)
	if err != nil {
		return Cursor{}, false, fmt.Errorf("corrupt cursor entry %q: %w", raw, err)
	}
	return Cursor{SheetID: entries[sheetKey(kind)], LastRow: row}, true, nil
}

// Rebind points the saved cursor at a different sheet without losing the
// row position. Used after the user confirms continuing on a new sheet.
func (s *Store) Rebind(kind Kind, sheetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := entries[rowKey(kind)]; !ok {
		return fmt.Errorf("no saved cursor for %s", kind)
	}
	entries[sheetKey(kind)] = sheetID
	return s.write(entries)
}

// Clear removes the cursor for kind, marking the batch fully done.
func (s *Store) Clear(kind Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return err
	}
	delete(entries, rowKey(kind))
	delete(entries, sheetKey(kind))
	return s.write(entries)
}

func (s *Store) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read progress file: %w", err)
	}
	entries := map[string]string{}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse progress file: %w", err)
	}
	return entries, nil
}

// write persists via temp file + rename so a crash mid-write never leaves a
// truncated progress file behind.
func (s *Store) write(entries map[string]string) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode progress entries: %w", err)
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".progress-*")
	if err != nil {
		return fmt.Errorf("failed to create temp progress file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write progress file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close progress file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace progress file: %w", err)
	}
	return nil
}

func rowKey(kind Kind) string   { return "lastProcessedRow:" + string(kind) }
func sheetKey(kind Kind) string { return "currentSheetId:" + string(kind) }
