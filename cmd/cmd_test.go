package cmd

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surf-cli/surf/pkg/cache"
	"github.com/surf-cli/surf/pkg/cli"
	"github.com/surf-cli/surf/pkg/optname"
)

type testServer struct {
	*httptest.Server
	hits atomic.Int32

	mu      sync.Mutex
	headers []http.Header
}

func newTestServer(t *testing.T, content []byte) *testServer {
	t.Helper()
	s := &testServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		s.mu.Lock()
		s.headers = append(s.headers, r.Header.Clone())
		s.mu.Unlock()
		http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(content))
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *testServer) lastHeader() http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headers[len(s.headers)-1]
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(viper.Reset)
	viper.Reset()

	root := GetRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestDownloadConflictAbortsBeforeNetwork(t *testing.T) {
	srv := newTestServer(t, []byte("payload"))
	dir := t.TempDir()
	cacheFile := filepath.Join(dir, "last_config.json")
	dest := filepath.Join(dir, "file.bin")

	store := cache.NewStore(cacheFile)
	require.NoError(t, store.Save(cache.KindDownload, cache.Snapshot{
		optname.Parallel:    cache.IntValue(4),
		optname.IdleTimeout: cache.DurationValue(30 * time.Second),
	}))

	_, err := execute(t, "download", "-x", "-p", "8", "--idle-timeout", "1m", "--cache-file", cacheFile, srv.URL, dest)
	require.Error(t, err)

	var conflict *cache.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{optname.Parallel, optname.IdleTimeout}, conflict.Fields())
	assert.Contains(t, err.Error(), "parallel: cached=4, provided=8")
	assert.Contains(t, err.Error(), "idle-timeout: cached=30s, provided=1m0s")
	assert.Zero(t, srv.hits.Load())
	assert.NoFileExists(t, dest)
}

func TestUseCacheWithoutSnapshot(t *testing.T) {
	srv := newTestServer(t, []byte("payload"))
	cacheFile := filepath.Join(t.TempDir(), "last_config.json")

	_, err := execute(t, "get", "-x", "--cache-file", cacheFile, srv.URL)
	require.ErrorIs(t, err, cache.ErrNoCachedConfig)
	assert.Zero(t, srv.hits.Load())
}

func TestDownloadPersistsAndReusesConfiguration(t *testing.T) {
	content := bytes.Repeat([]byte("0123456789"), 10_000)
	srv := newTestServer(t, content)
	dir := t.TempDir()
	cacheFile := filepath.Join(dir, "last_config.json")

	out, err := execute(t, "download", "-p", "2", "-H", "X-First: 1", "--cache-file", cacheFile, srv.URL, filepath.Join(dir, "a.bin"))
	require.NoError(t, err)
	assert.Contains(t, out, "Downloaded")

	got, err := os.ReadFile(filepath.Join(dir, "a.bin"))
	require.NoError(t, err)
	assert.Equal(t, content, got)

	snap, found, err := cache.NewStore(cacheFile).Lookup(cache.KindDownload)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "2", snap[optname.Parallel].String())
	assert.Equal(t, []string{"X-First: 1"}, snap[optname.Header].Items())

	// headers merge with the cached list; same parallel is not a conflict
	_, err = execute(t, "download", "-x", "-p", "2", "-H", "X-Second: 2", "--cache-file", cacheFile, srv.URL, filepath.Join(dir, "b.bin"))
	require.NoError(t, err)
	assert.Equal(t, "1", srv.lastHeader().Get("X-First"))
	assert.Equal(t, "2", srv.lastHeader().Get("X-Second"))

	snap, _, err = cache.NewStore(cacheFile).Lookup(cache.KindDownload)
	require.NoError(t, err)
	assert.Equal(t, []string{"X-First: 1", "X-Second: 2"}, snap[optname.Header].Items())
}

func TestDownloadRefusesExistingDestination(t *testing.T) {
	srv := newTestServer(t, []byte("payload"))
	dir := t.TempDir()
	dest := filepath.Join(dir, "file.bin")
	require.NoError(t, os.WriteFile(dest, []byte("keep"), 0o644))

	_, err := execute(t, "download", "--cache-file", filepath.Join(dir, "c.json"), srv.URL, dest)
	require.ErrorIs(t, err, cli.ErrDestinationExists)
	assert.Zero(t, srv.hits.Load())

	_, err = execute(t, "download", "-f", "--cache-file", filepath.Join(dir, "c.json"), srv.URL, dest)
	require.NoError(t, err)
	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))
}

func TestGetNoSave(t *testing.T) {
	srv := newTestServer(t, []byte("hello"))
	cacheFile := filepath.Join(t.TempDir(), "last_config.json")

	out, err := execute(t, "get", "--no-save", "--cache-file", cacheFile, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.NoFileExists(t, cacheFile)
}

func TestGetThenCacheShow(t *testing.T) {
	srv := newTestServer(t, []byte("hello"))
	cacheFile := filepath.Join(t.TempDir(), "last_config.json")

	out, err := execute(t, "get", "-i", "--cache-file", cacheFile, srv.URL)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "HTTP/1.1 200 OK\n"), out)
	assert.True(t, strings.HasSuffix(out, "\n\nhello"), out)

	out, err = execute(t, "cache", "show", "--cache-file", cacheFile)
	require.NoError(t, err)
	assert.Contains(t, out, "[get]")
	assert.Contains(t, out, "include = true")
	assert.Contains(t, out, "connect-timeout = 10s")

	_, err = execute(t, "cache", "show", "bench", "--cache-file", cacheFile)
	assert.ErrorIs(t, err, cache.ErrNoCachedConfig)

	out, err = execute(t, "cache", "clear", "--cache-file", cacheFile)
	require.NoError(t, err)
	assert.Contains(t, out, cacheFile)
	assert.NoFileExists(t, cacheFile)
}

func TestBench(t *testing.T) {
	srv := newTestServer(t, []byte("ok"))
	cacheFile := filepath.Join(t.TempDir(), "last_config.json")

	out, err := execute(t, "bench", "-n", "20", "-c", "4", "--cache-file", cacheFile, srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Requests:      20 (20 succeeded, 0 failed)")
	assert.Contains(t, out, "200: 20 (100.0%)")
	assert.Equal(t, int32(20), srv.hits.Load())

	snap, found, err := cache.NewStore(cacheFile).Lookup(cache.KindBench)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "4", snap[optname.Concurrency].String())
	assert.Equal(t, "GET", snap[optname.Method].String())
}

func TestBenchInvalidParameter(t *testing.T) {
	srv := newTestServer(t, []byte("ok"))
	cacheFile := filepath.Join(t.TempDir(), "last_config.json")

	_, err := execute(t, "bench", "-n", "0", "--cache-file", cacheFile, srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid parameter")
	assert.Zero(t, srv.hits.Load())
	assert.NoFileExists(t, cacheFile)
}
