package download

import (
	"bytes"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressConcurrentAdds(t *testing.T) {
	p := NewProgress(1000, 100)

	var wg sync.WaitGroup
	for i := 0; i < 9; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1000), p.Done())
	assert.Equal(t, int64(1000), p.Total())
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestTrackerTicksAndRenders(t *testing.T) {
	p := NewProgress(2000, 0)
	out := &syncBuffer{}
	var ticks atomic.Int32

	tr := newTracker(p, out, 10*time.Millisecond, func() { ticks.Add(1) })
	tr.start()
	p.Add(1000)
	assert.Eventually(t, func() bool { return ticks.Load() >= 2 }, time.Second, 5*time.Millisecond)
	p.Add(1000)
	tr.stop()
	tr.stop()

	after := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, ticks.Load(), "no ticks after stop")
	assert.Contains(t, out.String(), "2.0 kB / 2.0 kB (100.0%)")
}

func TestFormatProgress(t *testing.T) {
	assert.Equal(t, "500 B / 1.0 kB (50.0%) | 250 B/s | 2s    ", formatProgress(500, 1000, 2*time.Second, 250))
	assert.Equal(t, "500 B | 0 B/s | 1.5s    ", formatProgress(500, -1, 1500*time.Millisecond, 0))
	assert.Equal(t, "0 B / 0 B (100.0%) | 0 B/s | 0s    ", formatProgress(0, 0, 0, 0))
}
