package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kwdl/internal/models"
	"github.com/desertthunder/kwdl/internal/shared"
)

// FileProgressStore persists cursors in a single JSON document, {"<path>": <cursor>, ...}.
//
// It implements tasks.ProgressManager without a database. Writes go to a temporary file that is renamed over
// the document, so a crash leaves either the old or the new content. A document that cannot be parsed is
// moved aside to <path>.corrupt and the store starts over empty.
type FileProgressStore struct {
	mu     sync.Mutex
	path   string
	logger *log.Logger
}

// NewFileProgressStore creates a store backed by the JSON document at path.
//
// The document is created lazily on the first Save.
func NewFileProgressStore(path string, logger *log.Logger) *FileProgressStore {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &FileProgressStore{path: path, logger: logger}
}

// Path returns the location of the JSON document
func (s *FileProgressStore) Path() string { return s.path }

// CorruptPath is where an unparseable document is moved before it is replaced.
func (s *FileProgressStore) CorruptPath() string { return s.path + ".corrupt" }

// Load returns the saved cursor for path, or 0 when none is saved.
func (s *FileProgressStore) Load(ctx context.Context, path string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return 0, err
	}
	return entries[path], nil
}

// Save records cursor as the next line to process for path.
func (s *FileProgressStore) Save(ctx context.Context, path string, cursor int) error {
	if cursor < 0 {
		return fmt.Errorf("%w: cursor must not be negative: %d", shared.ErrInvalidArgument, cursor)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return err
	}
	entries[path] = cursor
	return s.write(entries)
}

// Reset removes the cursor for path. Resetting an unknown path is a no-op.
func (s *FileProgressStore) Reset(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := entries[path]; !ok {
		return nil
	}
	delete(entries, path)
	return s.write(entries)
}

// List returns every saved cursor ordered by path.
func (s *FileProgressStore) List(ctx context.Context) ([]models.Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return nil, err
	}

	cursors := make([]models.Cursor, 0, len(entries))
	for path, line := range entries {
		cursors = append(cursors, models.Cursor{Path: path, Line: line})
	}
	sort.Slice(cursors, func(i, j int) bool { return cursors[i].Path < cursors[j].Path })
	return cursors, nil
}

// read loads the document; a missing or corrupt document yields an empty map.
// A corrupt document is renamed to <path>.corrupt first so the next write cannot lose it.
func (s *FileProgressStore) read() (map[string]int, error) {
	entries := map[string]int{}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read progress file: %w", err)
	}
	if len(data) == 0 {
		return entries, nil
	}

	if err := json.Unmarshal(data, &entries); err != nil {
		aside := s.CorruptPath()
		if rerr := os.Rename(s.path, aside); rerr != nil {
			return nil, fmt.Errorf("progress file is corrupt and could not be moved aside: %w", rerr)
		}
		s.logger.Warn("progress file is corrupt, moved aside and starting empty", "path", s.path, "moved_to", aside, "error", err)
		return map[string]int{}, nil
	}
	return entries, nil
}

func (s *FileProgressStore) write(entries map[string]int) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create progress directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp progress file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entries); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode progress: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync progress file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close progress file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace progress file: %w", err)
	}
	return nil
}
