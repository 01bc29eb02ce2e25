package client_test

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surf-cli/surf/pkg/client"
)

func TestParseHeaders(t *testing.T) {
	testCases := []struct {
		name     string
		entries  []string
		expected http.Header
		err      bool
	}{
		{"empty", nil, http.Header{}, false},
		{"single", []string{"Authorization: Bearer abc"}, http.Header{"Authorization": {"Bearer abc"}}, false},
		{"value with colon", []string{"X-Time: 12:30"}, http.Header{"X-Time": {"12:30"}}, false},
		{"repeated key", []string{"Accept: a", "accept: b"}, http.Header{"Accept": {"a", "b"}}, false},
		{"missing colon", []string{"Authorization"}, nil, true},
		{"empty key", []string{": value"}, nil, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			header, err := client.ParseHeaders(tc.entries)
			if tc.err {
				assert.ErrorIs(t, err, client.ErrInvalidHeader)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, header)
		})
	}
}

func TestClassifyError(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected client.ErrorKind
	}{
		{"nil", nil, client.ErrorKindNone},
		{"canceled", fmt.Errorf("wrapped: %w", context.Canceled), client.ErrorKindCanceled},
		{"deadline", context.DeadlineExceeded, client.ErrorKindTimeout},
		{"dns timeout", &net.DNSError{IsTimeout: true}, client.ErrorKindTimeout},
		{"dial", &net.OpError{Op: "dial"}, client.ErrorKindConnect},
		{"dns not found", &net.DNSError{IsNotFound: true}, client.ErrorKindConnect},
		{"read", &net.OpError{Op: "read"}, client.ErrorKindOther},
		{"other", fmt.Errorf("some error"), client.ErrorKindOther},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, client.ClassifyError(tc.err))
		})
	}
}

func TestClientSetsHeaders(t *testing.T) {
	var gotUA, gotAuth atomic.Value
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.Header.Get("User-Agent"))
		gotAuth.Store(r.Header.Get("Authorization"))
	}))
	defer ts.Close()

	c, err := client.NewClient(client.Options{
		ConnectTimeout: time.Second,
		Headers:        []string{"Authorization: Bearer abc"},
	})
	require.NoError(t, err)

	resp, err := c.Get(ts.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Contains(t, gotUA.Load(), "surf/")
	assert.Equal(t, "Bearer abc", gotAuth.Load())
}

func TestClientRedirectPolicy(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new", http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	noFollow, err := client.NewClient(client.Options{})
	require.NoError(t, err)
	resp, err := noFollow.Get(ts.URL + "/old")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	follow, err := client.NewClient(client.Options{FollowRedirects: true})
	require.NoError(t, err)
	resp, err = follow.Get(ts.URL + "/old")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRetryingClient(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c, err := client.NewRetryingClient(client.Options{MaxRetries: 3})
	require.NoError(t, err)
	resp, err := c.Get(ts.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetryingClientPassesThroughLastResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c, err := client.NewRetryingClient(client.Options{MaxRetries: 1})
	require.NoError(t, err)
	resp, err := c.Get(ts.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestNewClientRejectsBadHeaders(t *testing.T) {
	_, err := client.NewClient(client.Options{Headers: []string{"nocolon"}})
	assert.ErrorIs(t, err, client.ErrInvalidHeader)
}

func TestBackoffHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, client.Backoff(ctx, 1), context.Canceled)
}
