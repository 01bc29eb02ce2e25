package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/surf-cli/surf/pkg/client"
)

const copyBufferSize = 32 * 1024

// runChunk fetches the remaining bytes of cs, retrying failed attempts up to
// MaxChunkRetries times. Each retry resumes from the bytes already written.
func (d *Downloader) runChunk(ctx context.Context, j *job, cs *chunkState, logger zerolog.Logger) error {
	logger = logger.With().Int("chunk", cs.chunk.Index).Logger()
	attempts, err := d.withRetries(ctx, logger, func(ctx context.Context) error {
		return d.fetchChunk(ctx, j, cs, logger)
	})
	if err != nil {
		if ctx.Err() != nil {
			// a sibling failed first; its error is the one reported
			return ctx.Err()
		}
		return &ChunkError{Index: cs.chunk.Index, Attempts: attempts, Err: err}
	}
	cs.done.Store(true)
	j.remaining.Add(-1)
	logger.Debug().Int("attempts", attempts).Msg("Chunk complete")
	return nil
}

// withRetries runs attempt until it succeeds, fails with an error that
// cannot be retried, or the retry budget is spent. It returns the number of
// attempts made.
func (d *Downloader) withRetries(ctx context.Context, logger zerolog.Logger, attempt func(ctx context.Context) error) (int, error) {
	var err error
	for i := 0; i <= d.opts.MaxChunkRetries; i++ {
		if i > 0 {
			if berr := client.Backoff(ctx, i); berr != nil {
				return i, berr
			}
		}
		err = attempt(ctx)
		if err == nil {
			return i + 1, nil
		}
		if ctx.Err() != nil {
			return i + 1, err
		}
		if !isRetryable(err) {
			return i + 1, err
		}
		if i < d.opts.MaxChunkRetries {
			logger.Warn().Err(err).Int("attempt", i+1).Msg("Retrying")
		}
	}
	return d.opts.MaxChunkRetries + 1, err
}

// idleReader resets the idle timer whenever data arrives.
type idleReader struct {
	r       io.Reader
	timer   *time.Timer
	timeout time.Duration
}

func (r *idleReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.timer.Reset(r.timeout)
	}
	return n, err
}

// withIdleTimeout derives a context that is cancelled with a StalledError
// when the returned reader wrapper sees no data for the idle timeout.
func (d *Downloader) withIdleTimeout(ctx context.Context, index int) (context.Context, func(io.Reader) io.Reader, func()) {
	ctx, cancel := context.WithCancelCause(ctx)
	timeout := d.opts.IdleTimeout
	timer := time.AfterFunc(timeout, func() {
		cancel(&StalledError{Chunk: index, Timeout: timeout})
	})
	wrap := func(r io.Reader) io.Reader {
		return &idleReader{r: r, timer: timer, timeout: timeout}
	}
	return ctx, wrap, func() {
		timer.Stop()
		cancel(nil)
	}
}

// stallCause replaces err with the StalledError that cancelled ctx, if any.
func stallCause(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if cause := context.Cause(ctx); errors.Is(cause, ErrStalled) {
		return cause
	}
	return err
}

// fetchChunk makes one attempt at the remaining range of cs.
func (d *Downloader) fetchChunk(ctx context.Context, j *job, cs *chunkState, logger zerolog.Logger) error {
	if cs.remaining() == 0 {
		return nil
	}
	ctx, wrap, release := d.withIdleTimeout(ctx, cs.chunk.Index)
	defer release()

	offset := cs.offset()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Range", rangeHeader(offset, cs.chunk.End-1))

	resp, err := d.client.Do(req)
	if err != nil {
		return stallCause(ctx, err)
	}
	defer resp.Body.Close()
	body := wrap(resp.Body)

	switch resp.StatusCode {
	case http.StatusPartialContent:
		start, _, _, err := parseContentRange(resp.Header.Get("Content-Range"))
		if err != nil {
			return err
		}
		if start != offset {
			return fmt.Errorf("%w: expected range starting at %d, got %d", errMalformedContentRange, offset, start)
		}
	case http.StatusOK:
		// Only the last incomplete chunk may take the full body: any other
		// worker could still be writing the bytes it would skip over.
		if j.remaining.Load() != 1 {
			return ErrRangeRejected
		}
		logger.Warn().Int64("skip", offset).Msg("Server ignored the range, reading the full resource for the last chunk")
		if _, err := io.CopyN(io.Discard, body, offset); err != nil {
			return stallCause(ctx, fmt.Errorf("skipping to offset %d: %w", offset, err))
		}
	default:
		return HTTPStatusError{StatusCode: resp.StatusCode}
	}

	_, err = copyRange(j.file, body, offset, cs.remaining(), func(n int64) {
		cs.written.Add(n)
		j.progress.Add(n)
	})
	return stallCause(ctx, err)
}

// fetchStream makes one attempt at the whole resource without ranges.
func (d *Downloader) fetchStream(ctx context.Context, info *remoteInfo, w io.WriterAt, progress *Progress) error {
	ctx, wrap, release := d.withIdleTimeout(ctx, 0)
	defer release()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, info.URL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return stallCause(ctx, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return HTTPStatusError{StatusCode: resp.StatusCode}
	}

	_, err = copyRange(w, wrap(resp.Body), 0, info.Size, progress.Add)
	return stallCause(ctx, err)
}

// copyRange writes body to w starting at offset. With limit >= 0 exactly
// limit bytes are expected; a shorter body is io.ErrUnexpectedEOF. onWrite
// is called after every write with the byte count.
func copyRange(w io.WriterAt, body io.Reader, offset, limit int64, onWrite func(int64)) (int64, error) {
	buf := make([]byte, copyBufferSize)
	var written int64
	for limit < 0 || written < limit {
		p := buf
		if limit >= 0 && limit-written < int64(len(p)) {
			p = p[:limit-written]
		}
		n, rerr := body.Read(p)
		if n > 0 {
			if _, werr := w.WriteAt(p[:n], offset+written); werr != nil {
				return written, werr
			}
			written += int64(n)
			onWrite(int64(n))
		}
		if rerr == io.EOF {
			if limit >= 0 && written < limit {
				return written, io.ErrUnexpectedEOF
			}
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
	return written, nil
}
