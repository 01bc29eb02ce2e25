package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/surf-cli/surf/pkg/client"
	"github.com/surf-cli/surf/pkg/validate"
)

// Downloader fetches a single URL into a destination file, splitting it into
// ranged chunks when the server allows it.
type Downloader struct {
	opts        Options
	client      client.Doer
	probeClient client.Doer
	logger      zerolog.Logger
}

// Summary describes a completed download.
type Summary struct {
	URL         string
	Dest        string
	TotalBytes  int64
	Transferred int64 // bytes fetched by this run; less than TotalBytes after a resume
	Elapsed     time.Duration
	AverageRate float64 // bytes per second over Transferred
	Chunks      int
	Resumed     bool
	Sequential  bool
}

func (s *Summary) String() string {
	return fmt.Sprintf("Downloaded %s to %s in %s (%s/s, %d chunk(s))",
		humanize.Bytes(uint64(s.TotalBytes)), s.Dest,
		s.Elapsed.Truncate(time.Millisecond), humanize.Bytes(uint64(s.AverageRate)), s.Chunks)
}

// New validates opts and builds the clients used for the probe and chunk
// requests.
func New(opts Options, logger zerolog.Logger) (*Downloader, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, err
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = defaultProgressInterval
	}
	opts.Client.FollowRedirects = true

	chunkClient, err := client.NewClient(opts.Client)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", validate.ErrInvalidParameter, err)
	}
	probeOpts := opts.Client
	probeOpts.MaxRetries = opts.MaxChunkRetries
	probeClient, err := client.NewRetryingClient(probeOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", validate.ErrInvalidParameter, err)
	}
	return &Downloader{
		opts:        opts,
		client:      chunkClient,
		probeClient: probeClient,
		logger:      logger,
	}, nil
}

// Download fetches url into dest. On failure the partial file, and for
// chunked downloads the progress sidecar, are left in place and the returned
// error is a *Error.
func (d *Downloader) Download(ctx context.Context, url, dest string) (*Summary, error) {
	logger := d.logger.With().Str("url", url).Str("dest", dest).Logger()

	info, err := d.probe(ctx, url)
	if err != nil {
		return nil, err
	}
	logger.Debug().
		Int64("size", info.Size).
		Bool("accept_ranges", info.AcceptRanges).
		Str("etag", info.ETag).
		Msg("Probe")

	if reason := info.parallelizable(); reason != nil {
		logger.Warn().Err(reason).Msg("Falling back to a sequential download")
		return d.sequential(ctx, info, dest, logger)
	}
	return d.parallel(ctx, url, info, dest, logger)
}

// job is the shared state of one chunked download.
type job struct {
	url       string
	file      *os.File
	progress  *Progress
	chunks    []*chunkState
	remaining atomic.Int64
}

// chunkState is a Chunk whose progress is updated by its worker while the
// tracker reads it.
type chunkState struct {
	chunk   Chunk
	written atomic.Int64
	done    atomic.Bool
}

func newChunkState(c Chunk) *chunkState {
	cs := &chunkState{chunk: c}
	cs.written.Store(c.BytesWritten)
	cs.done.Store(c.Complete())
	return cs
}

func (cs *chunkState) offset() int64 { return cs.chunk.Start + cs.written.Load() }

func (cs *chunkState) remaining() int64 { return cs.chunk.Len() - cs.written.Load() }

func (cs *chunkState) snapshot() Chunk {
	c := cs.chunk
	c.Done = cs.done.Load()
	c.BytesWritten = cs.written.Load()
	return c
}

func (d *Downloader) parallel(ctx context.Context, url string, info *remoteInfo, dest string, logger zerolog.Logger) (*Summary, error) {
	sidecarPath := SidecarPath(dest)
	fp, err := fingerprint(info.identity(url))
	if err != nil {
		return nil, fmt.Errorf("fingerprinting %s: %w", url, err)
	}

	file, state, resumed, err := d.prepare(url, info.Size, fp, dest, sidecarPath, logger)
	if err != nil {
		return nil, err
	}

	j := &job{url: info.URL, file: file}
	var already int64
	for _, c := range state.Chunks {
		cs := newChunkState(c)
		already += cs.written.Load()
		if !cs.done.Load() {
			j.remaining.Add(1)
		}
		j.chunks = append(j.chunks, cs)
	}
	j.progress = NewProgress(info.Size, already)

	if resumed {
		logger.Info().
			Int64("already", already).
			Int64("remaining_chunks", j.remaining.Load()).
			Msg("Resuming download")
	}

	flush := func() error {
		// counters are read before the sync so the sidecar never claims
		// bytes that are not yet on disk
		for i, cs := range j.chunks {
			state.Chunks[i] = cs.snapshot()
		}
		if err := file.Sync(); err != nil {
			return fmt.Errorf("syncing %s: %w", dest, err)
		}
		return state.save(sidecarPath)
	}
	tr := newTracker(j.progress, d.opts.Progress, d.opts.ProgressInterval, func() {
		if err := flush(); err != nil {
			logger.Warn().Err(err).Msg("Failed to record download progress")
		}
	})

	tr.start()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Parallelism)
	for _, cs := range j.chunks {
		if cs.done.Load() {
			continue
		}
		g.Go(func() error {
			return d.runChunk(gctx, j, cs, logger)
		})
	}
	err = g.Wait()
	tr.stop()

	if err != nil {
		if ferr := flush(); ferr != nil {
			logger.Warn().Err(ferr).Msg("Failed to record download progress")
		}
		file.Close()
		return nil, &Error{Reason: err, Dest: dest, Sidecar: sidecarPath}
	}

	if err := finish(file, dest, info.Size); err != nil {
		for i, cs := range j.chunks {
			state.Chunks[i] = cs.snapshot()
		}
		if ferr := state.save(sidecarPath); ferr != nil {
			logger.Warn().Err(ferr).Msg("Failed to record download progress")
		}
		return nil, &Error{Reason: err, Dest: dest, Sidecar: sidecarPath}
	}
	if err := removeSidecar(sidecarPath); err != nil {
		logger.Warn().Err(err).Str("sidecar", sidecarPath).Msg("Failed to remove progress sidecar")
	}
	return d.summary(info, dest, j.progress, already, len(j.chunks), resumed, false), nil
}

// prepare opens dest for a chunked download. A matching sidecar is reused
// when resuming; otherwise dest is truncated to size and a new sidecar is
// written before any byte is fetched.
func (d *Downloader) prepare(url string, size int64, fp uint64, dest, sidecarPath string, logger zerolog.Logger) (*os.File, *sidecar, bool, error) {
	if d.opts.Resume {
		state, err := loadSidecar(sidecarPath)
		switch {
		case err != nil:
			logger.Warn().Err(err).Msg("Ignoring unreadable progress sidecar")
		case state == nil:
			logger.Info().Msg("No progress sidecar found, starting fresh")
		case !state.matches(url, size, fp):
			logger.Warn().Str("sidecar", sidecarPath).Msg("Progress sidecar belongs to a different resource, starting fresh")
		default:
			file, err := os.OpenFile(dest, os.O_RDWR, 0)
			if err == nil {
				if fi, serr := file.Stat(); serr == nil && fi.Size() == size {
					return file, state, true, nil
				}
				file.Close()
			}
			logger.Warn().Msg("Partial file does not match its progress sidecar, starting fresh")
		}
	}

	file, err := os.OpenFile(dest, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, nil, false, fmt.Errorf("opening %s: %w", dest, err)
	}
	if err := file.Truncate(size); err != nil {
		file.Close()
		return nil, nil, false, fmt.Errorf("allocating %s: %w", dest, err)
	}
	state := &sidecar{
		Version:     sidecarVersion,
		URL:         url,
		Size:        size,
		Fingerprint: fp,
		Chunks:      Partition(size, d.opts.Parallelism),
	}
	if err := state.save(sidecarPath); err != nil {
		file.Close()
		return nil, nil, false, err
	}
	return file, state, false, nil
}

// finish syncs and closes file, then checks dest has the expected size.
func finish(file *os.File, dest string, size int64) error {
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("syncing %s: %w", dest, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", dest, err)
	}
	if size < 0 {
		return nil
	}
	fi, err := os.Stat(dest)
	if err != nil {
		return fmt.Errorf("checking %s: %w", dest, err)
	}
	if fi.Size() != size {
		return fmt.Errorf("%w: %s is %d bytes, expected %d", ErrSizeMismatch, dest, fi.Size(), size)
	}
	return nil
}

func (d *Downloader) summary(info *remoteInfo, dest string, p *Progress, already int64, chunks int, resumed, sequential bool) *Summary {
	elapsed := p.Elapsed()
	transferred := p.Done() - already
	var rate float64
	if elapsed > 0 {
		rate = float64(transferred) / elapsed.Seconds()
	}
	return &Summary{
		URL:         info.URL,
		Dest:        dest,
		TotalBytes:  p.Done(),
		Transferred: transferred,
		Elapsed:     elapsed,
		AverageRate: rate,
		Chunks:      chunks,
		Resumed:     resumed,
		Sequential:  sequential,
	}
}

// sequential streams the whole resource in one request. It keeps no sidecar
// and removes a stale one on success: a retry starts over from the first byte.
func (d *Downloader) sequential(ctx context.Context, info *remoteInfo, dest string, logger zerolog.Logger) (*Summary, error) {
	file, err := os.OpenFile(dest, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dest, err)
	}
	progress := NewProgress(info.Size, 0)
	tr := newTracker(progress, d.opts.Progress, d.opts.ProgressInterval, nil)
	tr.start()

	attempts, err := d.withRetries(ctx, logger.With().Int("chunk", 0).Logger(), func(ctx context.Context) error {
		if err := file.Truncate(0); err != nil {
			return fmt.Errorf("truncating %s: %w", dest, err)
		}
		progress.reset()
		return d.fetchStream(ctx, info, file, progress)
	})
	tr.stop()
	if err != nil {
		file.Close()
		return nil, &Error{Reason: &ChunkError{Index: 0, Attempts: attempts, Err: err}, Dest: dest}
	}
	if err := finish(file, dest, info.Size); err != nil {
		return nil, &Error{Reason: err, Dest: dest}
	}
	// a sidecar left by an earlier chunked attempt no longer describes dest
	sidecarPath := SidecarPath(dest)
	if err := removeSidecar(sidecarPath); err != nil {
		logger.Warn().Err(err).Str("sidecar", sidecarPath).Msg("Failed to remove progress sidecar")
	}
	return d.summary(info, dest, progress, 0, 1, false, true), nil
}

// isRetryable reports whether another attempt at a failed chunk may succeed.
func isRetryable(err error) bool {
	var statusErr HTTPStatusError
	var pathErr *os.PathError
	switch {
	case errors.Is(err, ErrRangeRejected):
		return false
	case errors.As(err, &statusErr):
		return statusErr.retryable()
	case errors.As(err, &pathErr):
		return false
	}
	return true
}
