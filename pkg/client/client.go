package client

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/surf-cli/surf/pkg/logging"
	"github.com/surf-cli/surf/pkg/version"
)

const (
	retryMinWait     = 100 * time.Millisecond
	retryMaxWait     = 3000 * time.Millisecond // do not backoff further than 3 seconds
	retrySleepJitter = 500                     // (will add 0-500 additional milliseconds), multiplied by time.Millisecond in backoffFunc

	maxRedirects = 10
)

var ErrInvalidHeader = errors.New("invalid header")

// Options configures the transport shared by every command.
type Options struct {
	ConnectTimeout  time.Duration
	MaxRetries      int
	ForceHTTP2      bool
	FollowRedirects bool
	Headers         []string
}

// Doer is the capability the engines consume: issue a request and return the
// response or a transport error.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type headerTransport struct {
	header    http.Header
	Transport http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", version.UserAgent())
	for key, values := range t.header {
		req.Header.Del(key)
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	return t.Transport.RoundTrip(req)
}

// ParseHeaders turns "Key: Value" entries into an http.Header.
func ParseHeaders(entries []string) (http.Header, error) {
	header := make(http.Header, len(entries))
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q, expected \"Key: Value\"", ErrInvalidHeader, entry)
		}
		header.Add(key, strings.TrimSpace(value))
	}
	return header, nil
}

// NewClient returns an http.Client that issues each request exactly once.
// Connection establishment is bounded by opts.ConnectTimeout.
func NewClient(opts Options) (*http.Client, error) {
	header, err := ParseHeaders(opts.Headers)
	if err != nil {
		return nil, err
	}
	baseTransport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   opts.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     opts.ForceHTTP2,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   tlsHandshakeTimeout(opts.ConnectTimeout),
		ExpectContinueTimeout: 1 * time.Second,
		// range responses must be raw bytes
		DisableCompression: true,
	}
	return &http.Client{
		Transport:     &headerTransport{header: header, Transport: baseTransport},
		CheckRedirect: checkRedirectFunc(opts.FollowRedirects),
	}, nil
}

// NewRetryingClient wraps NewClient with retryablehttp. It is used for
// metadata requests where a transient failure should not abort a run. The
// last response is passed through when retries are exhausted.
func NewRetryingClient(opts Options) (*http.Client, error) {
	base, err := NewClient(opts)
	if err != nil {
		return nil, err
	}
	retryClient := &retryablehttp.Client{
		HTTPClient:   base,
		Logger:       nil,
		RetryWaitMin: retryMinWait,
		RetryWaitMax: retryMaxWait,
		RetryMax:     opts.MaxRetries,
		CheckRetry:   retryablehttp.DefaultRetryPolicy,
		Backoff:      backoffFunc,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}
	return retryClient.StandardClient(), nil
}

func tlsHandshakeTimeout(connectTimeout time.Duration) time.Duration {
	if connectTimeout > 0 {
		return connectTimeout
	}
	return 10 * time.Second
}

// backoffFunc is a wrapper around retryablehttp.DefaultBackoff that allows for adding a random jitter to the backoff.
func backoffFunc(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
	sleep := time.Duration(rand.Intn(retrySleepJitter)) * time.Millisecond
	sleep += retryablehttp.DefaultBackoff(min, max, attemptNum, resp)
	return sleep
}

func checkRedirectFunc(follow bool) func(req *http.Request, via []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if !follow {
			return http.ErrUseLastResponse
		}
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		logger := logging.GetLogger()
		logger.Trace().
			Str("redirect_url", req.URL.String()).
			Str("url", via[0].URL.String()).
			Msg("Redirect")
		return nil
	}
}

// Backoff waits before retry attempt n, returning early with the context's
// error if it is cancelled.
func Backoff(ctx context.Context, attempt int) error {
	wait := backoffFunc(retryMinWait, retryMaxWait, attempt, nil)
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
