package download

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/surf-cli/surf/pkg/fsutil"
)

const (
	sidecarSuffix  = ".surf-progress"
	sidecarVersion = 1
)

// sidecar is the durable per-chunk progress of an interrupted download.
type sidecar struct {
	Version     int     `json:"version"`
	URL         string  `json:"url"`
	Size        int64   `json:"size"`
	Fingerprint uint64  `json:"fingerprint"`
	Chunks      []Chunk `json:"chunks"`
}

// jobIdentity is what a sidecar must agree on to be resumed. A change in any
// field means the remote resource is not the one partially on disk.
type jobIdentity struct {
	URL          string
	Size         int64
	ETag         string
	LastModified string
}

func fingerprint(id jobIdentity) (uint64, error) {
	return hashstructure.Hash(id, hashstructure.FormatV2, nil)
}

// SidecarPath is where the progress of a download to dest is recorded.
func SidecarPath(dest string) string {
	return dest + sidecarSuffix
}

// loadSidecar returns nil without error when no sidecar exists.
func loadSidecar(path string) (*sidecar, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading progress sidecar: %w", err)
	}
	var s sidecar
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing progress sidecar %s: %w", path, err)
	}
	return &s, nil
}

// matches reports whether s records progress for the job identified by url,
// size and fp.
func (s *sidecar) matches(url string, size int64, fp uint64) bool {
	return s.Version == sidecarVersion &&
		s.URL == url &&
		s.Size == size &&
		s.Fingerprint == fp &&
		validLayout(s.Chunks, size)
}

func (s *sidecar) save(path string) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding progress sidecar: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("writing progress sidecar: %w", err)
	}
	return nil
}

func removeSidecar(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
