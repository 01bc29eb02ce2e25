package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsureDestinationNotExist(t *testing.T) {
	f, err := os.CreateTemp("", "EnsureDestinationNotExist-test-file")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	defer os.Remove(f.Name())
	missing := filepath.Join(t.TempDir(), "unknownFile")

	testCases := []struct {
		name     string
		fileName string
		force    bool
		resume   bool
		err      bool
	}{
		{"force true, file exists", f.Name(), true, false, false},
		{"resume true, file exists", f.Name(), false, true, false},
		{"force false, file exists", f.Name(), false, false, true},
		{"force true, file does not exist", missing, true, false, false},
		{"force false, file does not exist", missing, false, false, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := EnsureDestinationNotExist(tc.fileName, tc.force, tc.resume)
			assert.Equal(t, tc.err, err != nil)
			if tc.err {
				assert.ErrorIs(t, err, ErrDestinationExists)
			}
		})
	}
}
