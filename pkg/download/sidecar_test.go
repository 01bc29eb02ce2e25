package download

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSidecarRoundTrip(t *testing.T) {
	path := SidecarPath(filepath.Join(t.TempDir(), "file.bin"))

	missing, err := loadSidecar(path)
	require.NoError(t, err)
	assert.Nil(t, missing)

	fp, err := fingerprint(jobIdentity{URL: "http://example.com/file.bin", Size: 100, ETag: "abc"})
	require.NoError(t, err)

	chunks := Partition(100, 4)
	chunks[0].BytesWritten = 10
	chunks[2].BytesWritten = 25
	chunks[2].Done = true
	s := &sidecar{Version: sidecarVersion, URL: "http://example.com/file.bin", Size: 100, Fingerprint: fp, Chunks: chunks}
	require.NoError(t, s.save(path))

	loaded, err := loadSidecar(path)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
	assert.True(t, loaded.matches("http://example.com/file.bin", 100, fp))
	assert.False(t, loaded.matches("http://example.com/other.bin", 100, fp))
	assert.False(t, loaded.matches("http://example.com/file.bin", 101, fp))
	assert.False(t, loaded.matches("http://example.com/file.bin", 100, fp+1))

	require.NoError(t, removeSidecar(path))
	require.NoError(t, removeSidecar(path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFingerprintChangesWithResource(t *testing.T) {
	base := jobIdentity{URL: "http://example.com/a", Size: 10, ETag: `"v1"`}
	changed := base
	changed.ETag = `"v2"`

	a, err := fingerprint(base)
	require.NoError(t, err)
	b, err := fingerprint(changed)
	require.NoError(t, err)
	again, err := fingerprint(base)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, again)
}

func TestLoadSidecarCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x"+sidecarSuffix)
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err := loadSidecar(path)
	assert.Error(t, err)
}
