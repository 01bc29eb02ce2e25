// Package bench measures an HTTP endpoint with a fixed pool of concurrent
// workers.
package bench

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/surf-cli/surf/pkg/client"
	"github.com/surf-cli/surf/pkg/validate"
)

// Outcome is the result of one benchmark request. Err is nil when a
// response arrived, whatever its status.
type Outcome struct {
	StatusCode int
	Latency    time.Duration
	Bytes      int64
	Err        error
	ErrorKind  client.ErrorKind
}

func (o Outcome) Success() bool { return o.Err == nil }

// Result holds every recorded outcome of a run.
type Result struct {
	URL       string
	Outcomes  []Outcome
	TotalTime time.Duration
}

type Runner struct {
	opts    Options
	client  client.Doer
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewRunner validates opts and builds a client that never retries.
func NewRunner(opts Options, logger zerolog.Logger) (*Runner, error) {
	opts.Method = strings.ToUpper(opts.Method)
	if err := validate.Struct(opts); err != nil {
		return nil, err
	}
	c, err := client.NewClient(opts.Client)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", validate.ErrInvalidParameter, err)
	}
	r := &Runner{opts: opts, client: c, logger: logger}
	if opts.Rate > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(opts.Rate), 1)
	}
	return r, nil
}

// WithDoer replaces the HTTP client. Used by tests.
func (r *Runner) WithDoer(d client.Doer) *Runner {
	r.client = d
	return r
}

// Run sends Requests requests to url from exactly Concurrency workers. A
// failed request is recorded and never retried. When ctx is cancelled no new
// request is dispatched and the outcomes recorded so far are returned along
// with the context's error.
func (r *Runner) Run(ctx context.Context, url string) (*Result, error) {
	if _, err := http.NewRequest(r.opts.Method, url, nil); err != nil {
		return nil, fmt.Errorf("%w: url: %w", validate.ErrInvalidParameter, err)
	}
	logger := r.logger.With().Str("url", url).Logger()
	logger.Debug().
		Int("requests", r.opts.Requests).
		Int("concurrency", r.opts.Concurrency).
		Int("rate", r.opts.Rate).
		Msg("Starting benchmark")

	total := int64(r.opts.Requests)
	outcomes := make([]Outcome, total)
	recorded := make([]bool, total)
	var next atomic.Int64

	g := new(errgroup.Group)
	start := time.Now()
	for w := 0; w < r.opts.Concurrency; w++ {
		g.Go(func() error {
			for ctx.Err() == nil {
				if r.limiter != nil {
					if err := r.limiter.Wait(ctx); err != nil {
						return nil
					}
				}
				i := next.Add(1) - 1
				if i >= total {
					return nil
				}
				outcomes[i] = r.do(ctx, url)
				recorded[i] = true
				if err := outcomes[i].Err; err != nil {
					logger.Trace().Err(err).Int64("request", i).Msg("Request failed")
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	result := &Result{URL: url, TotalTime: time.Since(start)}

	if err := ctx.Err(); err != nil {
		for i, ok := range recorded {
			if ok {
				result.Outcomes = append(result.Outcomes, outcomes[i])
			}
		}
		return result, err
	}
	result.Outcomes = outcomes
	return result, nil
}

// do issues one request and drains the body. Latency covers the full
// response.
func (r *Runner) do(ctx context.Context, url string) Outcome {
	req, err := http.NewRequestWithContext(ctx, r.opts.Method, url, nil)
	if err != nil {
		return Outcome{Err: err, ErrorKind: client.ErrorKindOther}
	}
	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return Outcome{Latency: time.Since(start), Err: err, ErrorKind: client.ClassifyError(err)}
	}
	defer resp.Body.Close()
	n, err := io.Copy(io.Discard, resp.Body)
	latency := time.Since(start)
	if err != nil {
		return Outcome{StatusCode: resp.StatusCode, Latency: latency, Bytes: n, Err: err, ErrorKind: client.ClassifyError(err)}
	}
	return Outcome{StatusCode: resp.StatusCode, Latency: latency, Bytes: n}
}
