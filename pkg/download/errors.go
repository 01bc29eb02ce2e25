package download

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrProbeFailed      = errors.New("probe failed")
	ErrRangeUnsupported = errors.New("server does not support range requests")
	ErrSizeUnknown      = errors.New("remote size unknown")
	ErrRangeRejected    = errors.New("ranged request answered with the full resource")
	ErrStalled          = errors.New("transfer stalled")
	ErrSizeMismatch     = errors.New("downloaded size mismatch")
)

type HTTPStatusError struct {
	StatusCode int
}

var _ error = HTTPStatusError{}

func (c HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d", c.StatusCode)
}

// retryable reports whether retrying the request may succeed.
func (c HTTPStatusError) retryable() bool {
	return c.StatusCode >= 500 || c.StatusCode == 408 || c.StatusCode == 429
}

// StalledError is returned when a chunk receives no data for the idle timeout.
type StalledError struct {
	Chunk   int
	Timeout time.Duration
}

func (e *StalledError) Error() string {
	return fmt.Sprintf("chunk %d received no data for %s", e.Chunk, e.Timeout)
}

func (e *StalledError) Unwrap() error { return ErrStalled }

// ChunkError is the final failure of a chunk after its retries.
type ChunkError struct {
	Index    int
	Attempts int
	Err      error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d failed after %d attempt(s): %v", e.Index, e.Attempts, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }

// Error is a failed download. The partial destination and, for parallel
// downloads, the progress sidecar are left on disk so the download can be
// resumed.
type Error struct {
	Reason  error
	Dest    string
	Sidecar string
}

func (e *Error) Error() string {
	if e.Sidecar == "" {
		return fmt.Sprintf("download failed: %v (partial file kept at %s)", e.Reason, e.Dest)
	}
	return fmt.Sprintf("download failed: %v (resumable state kept at %s)", e.Reason, e.Sidecar)
}

func (e *Error) Unwrap() error { return e.Reason }
