package download

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var (
	contentRangeRegexp = regexp.MustCompile(`^bytes ([0-9]+)-([0-9]+)/([0-9]+|\*)$`)

	errMalformedContentRange = errors.New("malformed content range")
)

// rangeHeader renders an inclusive byte range.
func rangeHeader(start, end int64) string {
	return fmt.Sprintf("bytes=%d-%d", start, end)
}

// parseContentRange parses "bytes start-end/total". total is -1 when the
// server reports it as "*".
func parseContentRange(header string) (start, end, total int64, err error) {
	matches := contentRangeRegexp.FindStringSubmatch(header)
	if matches == nil {
		return 0, 0, 0, fmt.Errorf("%w: %q", errMalformedContentRange, header)
	}
	start, err = strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %q", errMalformedContentRange, header)
	}
	end, err = strconv.ParseInt(matches[2], 10, 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %q", errMalformedContentRange, header)
	}
	if end < start {
		return 0, 0, 0, fmt.Errorf("%w: %q", errMalformedContentRange, header)
	}
	total = -1
	if matches[3] != "*" {
		total, err = strconv.ParseInt(matches[3], 10, 64)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("%w: %q", errMalformedContentRange, header)
		}
	}
	return start, end, total, nil
}
