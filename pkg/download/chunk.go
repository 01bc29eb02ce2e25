package download

// Chunk is a contiguous byte range [Start, End) of the destination owned by
// exactly one worker.
type Chunk struct {
	Index        int   `json:"index"`
	Start        int64 `json:"start"`
	End          int64 `json:"end"`
	BytesWritten int64 `json:"bytes_written"`
	Done         bool  `json:"done"`
}

func (c Chunk) Len() int64 { return c.End - c.Start }

// Offset is the next destination offset the chunk writes to.
func (c Chunk) Offset() int64 { return c.Start + c.BytesWritten }

func (c Chunk) Remaining() int64 { return c.Len() - c.BytesWritten }

func (c Chunk) Complete() bool { return c.Done || c.Remaining() == 0 }

// ChunkCount is min(parallelism, max(1, size)).
func ChunkCount(size int64, parallelism int) int {
	if parallelism < 1 {
		parallelism = 1
	}
	if size < 1 {
		return 1
	}
	if int64(parallelism) > size {
		return int(size)
	}
	return parallelism
}

// Partition splits [0, size) into ChunkCount(size, parallelism) contiguous
// chunks. Every chunk but the last gets size/n bytes; the last absorbs the
// remainder.
func Partition(size int64, parallelism int) []Chunk {
	if size < 0 {
		size = 0
	}
	n := ChunkCount(size, parallelism)
	base := size / int64(n)
	chunks := make([]Chunk, n)
	for i := range chunks {
		start := int64(i) * base
		end := start + base
		if i == n-1 {
			end = size
		}
		chunks[i] = Chunk{Index: i, Start: start, End: end}
	}
	return chunks
}

// validLayout reports whether chunks partition [0, size) in order with
// progress inside each chunk's bounds.
func validLayout(chunks []Chunk, size int64) bool {
	if len(chunks) == 0 {
		return false
	}
	var next int64
	for i, c := range chunks {
		if c.Index != i || c.Start != next || c.End < c.Start {
			return false
		}
		if c.BytesWritten < 0 || c.BytesWritten > c.Len() {
			return false
		}
		next = c.End
	}
	return next == size
}
