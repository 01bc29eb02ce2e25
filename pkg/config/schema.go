package config

import (
	"time"

	"github.com/surf-cli/surf/pkg/bench"
	"github.com/surf-cli/surf/pkg/cache"
	"github.com/surf-cli/surf/pkg/download"
	"github.com/surf-cli/surf/pkg/optname"
)

const GetConnectTimeout = 10 * time.Second

// Cached options of each command kind, in conflict reporting order.
var (
	DownloadSchema = cache.Schema{
		cache.IntField(optname.Parallel, download.DefaultParallelism),
		cache.BoolField(optname.ContinueDownload, false),
		cache.DurationField(optname.IdleTimeout, download.DefaultIdleTimeout),
		cache.DurationField(optname.ConnTimeout, download.DefaultConnectTimeout),
		cache.IntField(optname.Retries, download.DefaultMaxChunkRetries),
		cache.ListField(optname.Header),
		cache.OptionalStringField(optname.Profile),
	}

	BenchSchema = cache.Schema{
		cache.IntField(optname.Requests, bench.DefaultRequests),
		cache.IntField(optname.Concurrency, bench.DefaultConcurrency),
		cache.DurationField(optname.ConnTimeout, bench.DefaultConnectTimeout),
		cache.IntField(optname.Rate, 0),
		cache.StringField(optname.Method, bench.DefaultMethod),
		cache.ListField(optname.Header),
		cache.OptionalStringField(optname.Profile),
	}

	GetSchema = cache.Schema{
		cache.BoolField(optname.Include, false),
		cache.BoolField(optname.Location, false),
		cache.DurationField(optname.ConnTimeout, GetConnectTimeout),
		cache.ListField(optname.Header),
		cache.OptionalStringField(optname.Profile),
	}
)

// SchemaFor returns the schema of kind.
func SchemaFor(kind cache.Kind) (cache.Schema, bool) {
	switch kind {
	case cache.KindDownload:
		return DownloadSchema, true
	case cache.KindBench:
		return BenchSchema, true
	case cache.KindGet:
		return GetSchema, true
	}
	return nil, false
}
