package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"github.com/surf-cli/surf/pkg/fsutil"
)

const cacheFileName = "last_config.json"

// Snapshot is the last persisted configuration of one command kind.
type Snapshot map[string]Value

// Names returns the field names in the snapshot, sorted.
func (s Snapshot) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Store persists snapshots keyed by command kind in a single JSON file.
// Writes replace the whole file; concurrent writers resolve as last writer
// wins.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath is <user config dir>/surf/last_config.json.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	return filepath.Join(dir, "surf", cacheFileName), nil
}

func (s *Store) Path() string { return s.path }

// Load reads every snapshot. A missing file is an empty cache.
func (s *Store) Load() (map[Kind]Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[Kind]Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cached configuration: %w", err)
	}
	snapshots := map[Kind]Snapshot{}
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return nil, fmt.Errorf("parsing cached configuration %s: %w", s.path, err)
	}
	return snapshots, nil
}

func (s *Store) Lookup(kind Kind) (Snapshot, bool, error) {
	snapshots, err := s.Load()
	if err != nil {
		return nil, false, err
	}
	snap, ok := snapshots[kind]
	return snap, ok, nil
}

// Save replaces the snapshot for kind, keeping the other kinds. An unreadable
// cache file is replaced rather than blocking the save.
func (s *Store) Save(kind Kind, snap Snapshot) error {
	snapshots, err := s.Load()
	if err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &syntaxErr) && !errors.As(err, &typeErr) {
			return err
		}
		snapshots = map[Kind]Snapshot{}
	}
	snapshots[kind] = snap

	data, err := json.MarshalIndent(snapshots, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cached configuration: %w", err)
	}
	return fsutil.WriteFileAtomic(s.path, append(data, '\n'), 0o644)
}

// Clear removes the cache file.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Kinds returns the kinds with a snapshot, sorted.
func Kinds(snapshots map[Kind]Snapshot) []Kind {
	kinds := make([]Kind, 0, len(snapshots))
	for k := range snapshots {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}
