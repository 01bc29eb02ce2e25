package download

import (
	"io"
	"time"

	"github.com/surf-cli/surf/pkg/client"
)

const (
	DefaultParallelism      = 4
	DefaultIdleTimeout      = 30 * time.Second
	DefaultMaxChunkRetries  = 3
	DefaultConnectTimeout   = 10 * time.Second
	defaultProgressInterval = 500 * time.Millisecond
)

type Options struct {
	// Maximum number of chunks, and of concurrent workers.
	Parallelism int `opt:"parallel" validate:"min=1"`

	// Resume continues from a matching progress sidecar when one exists.
	Resume bool

	// IdleTimeout fails a chunk attempt that receives no data for this long.
	IdleTimeout time.Duration `opt:"idle-timeout" validate:"gt=0"`

	// MaxChunkRetries bounds the retries of a single chunk before the whole
	// download fails.
	MaxChunkRetries int `opt:"retries" validate:"min=0"`

	Client client.Options

	// Progress receives the combined progress line. Nil disables it.
	Progress         io.Writer
	ProgressInterval time.Duration
}
