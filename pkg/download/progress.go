package download

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// Progress accumulates byte deltas from every worker of a download.
type Progress struct {
	total int64
	done  atomic.Int64
	start time.Time
}

// NewProgress starts a progress counter for total bytes (-1 if unknown) of
// which already bytes are on disk from an earlier run.
func NewProgress(total, already int64) *Progress {
	p := &Progress{total: total, start: time.Now()}
	p.done.Store(already)
	return p
}

func (p *Progress) Add(n int64) { p.done.Add(n) }

func (p *Progress) Done() int64 { return p.done.Load() }

func (p *Progress) Total() int64 { return p.total }

func (p *Progress) Elapsed() time.Duration { return time.Since(p.start) }

// reset drops the counted bytes, used when a single stream restarts.
func (p *Progress) reset() { p.done.Store(0) }

// tracker is the single goroutine that renders progress and runs periodic
// work (sidecar flushes) while workers write.
type tracker struct {
	progress *Progress
	out      io.Writer
	interval time.Duration
	onTick   func()

	lastBytes int64
	lastTime  time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func newTracker(progress *Progress, out io.Writer, interval time.Duration, onTick func()) *tracker {
	if interval <= 0 {
		interval = defaultProgressInterval
	}
	return &tracker{
		progress: progress,
		out:      out,
		interval: interval,
		onTick:   onTick,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

func (t *tracker) start() {
	t.lastBytes = t.progress.Done()
	t.lastTime = time.Now()
	go t.loop()
}

// stop ends the loop and prints the final line. onTick is not called again
// once stop returns.
func (t *tracker) stop() {
	t.stopOnce.Do(func() {
		close(t.stopCh)
		<-t.doneCh
	})
}

func (t *tracker) loop() {
	defer close(t.doneCh)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopCh:
			t.render(true)
			return
		case <-ticker.C:
			if t.onTick != nil {
				t.onTick()
			}
			t.render(false)
		}
	}
}

func (t *tracker) render(final bool) {
	if t.out == nil {
		return
	}
	now := time.Now()
	done := t.progress.Done()

	var rate float64
	if final {
		if elapsed := t.progress.Elapsed().Seconds(); elapsed > 0 {
			rate = float64(done) / elapsed
		}
	} else if dt := now.Sub(t.lastTime).Seconds(); dt > 0 {
		rate = float64(done-t.lastBytes) / dt
	}
	t.lastBytes = done
	t.lastTime = now

	fmt.Fprintf(t.out, "\r%s", formatProgress(done, t.progress.Total(), t.progress.Elapsed(), rate))
	if final {
		fmt.Fprintln(t.out)
	}
}

func formatProgress(done, total int64, elapsed time.Duration, rate float64) string {
	rateStr := humanize.Bytes(uint64(rate)) + "/s"
	elapsedStr := elapsed.Truncate(100 * time.Millisecond).String()
	if total < 0 {
		return fmt.Sprintf("%s | %s | %s    ", humanize.Bytes(uint64(done)), rateStr, elapsedStr)
	}
	var percent float64 = 100
	if total > 0 {
		percent = float64(done) / float64(total) * 100
	}
	return fmt.Sprintf("%s / %s (%.1f%%) | %s | %s    ",
		humanize.Bytes(uint64(done)), humanize.Bytes(uint64(total)), percent, rateStr, elapsedStr)
}
