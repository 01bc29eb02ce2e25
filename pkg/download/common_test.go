package download

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeHeader(t *testing.T) {
	assert.Equal(t, "bytes=0-99", rangeHeader(0, 99))
	assert.Equal(t, "bytes=2500000-4999999", rangeHeader(2_500_000, 4_999_999))
}

func TestParseContentRange(t *testing.T) {
	tests := []struct {
		name          string
		header        string
		start, end    int64
		total         int64
		expectedError error
	}{
		{name: "full", header: "bytes 0-0/1234", start: 0, end: 0, total: 1234},
		{name: "middle", header: "bytes 100-199/1000", start: 100, end: 199, total: 1000},
		{name: "unknown total", header: "bytes 7-12/*", start: 7, end: 12, total: -1},
		{name: "missing", header: "", expectedError: errMalformedContentRange},
		{name: "wrong unit", header: "items 0-1/2", expectedError: errMalformedContentRange},
		{name: "inverted", header: "bytes 10-5/20", expectedError: errMalformedContentRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, total, err := parseContentRange(tt.header)
			if tt.expectedError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
			assert.Equal(t, tt.total, total)
		})
	}
}
