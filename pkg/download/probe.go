package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// remoteInfo is what the probe learns about the resource.
type remoteInfo struct {
	// URL after redirects; chunk requests go here.
	URL          string
	Size         int64 // -1 when unknown
	AcceptRanges bool
	ETag         string
	LastModified string
}

// parallelizable returns nil when the resource can be split into ranged
// chunks, or the reason it cannot.
func (i *remoteInfo) parallelizable() error {
	if i.Size < 0 {
		return ErrSizeUnknown
	}
	if !i.AcceptRanges {
		return ErrRangeUnsupported
	}
	return nil
}

func (i *remoteInfo) identity(url string) jobIdentity {
	return jobIdentity{URL: url, Size: i.Size, ETag: i.ETag, LastModified: i.LastModified}
}

// probe issues a HEAD request for the size and range support of url. Servers
// that refuse HEAD, or do not advertise Accept-Ranges, are asked for the
// first byte instead.
func (d *Downloader) probe(ctx context.Context, url string) (*remoteInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", ErrProbeFailed, err)
	}
	resp, err := d.probeClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProbeFailed, err)
	}
	resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented:
		d.logger.Debug().Int("status", resp.StatusCode).Str("url", url).Msg("HEAD refused, probing with a range request")
		return d.probeRange(ctx, url)
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: %w", ErrProbeFailed, HTTPStatusError{StatusCode: resp.StatusCode})
	}

	info := &remoteInfo{
		URL:          resp.Request.URL.String(),
		Size:         resp.ContentLength,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}
	if info.URL != url {
		d.logger.Info().Str("url", url).Str("redirect_url", info.URL).Msg("Redirect")
	}

	acceptRanges := strings.ToLower(resp.Header.Get("Accept-Ranges"))
	switch {
	case strings.Contains(acceptRanges, "bytes"):
		info.AcceptRanges = true
	case acceptRanges == "" && info.Size > 0:
		return d.probeRange(ctx, info.URL)
	}
	return info, nil
}

// probeRange requests the first byte of url. A 206 with a Content-Range
// total means ranges work; a 200 means the server ignores them.
func (d *Downloader) probeRange(ctx context.Context, url string) (*remoteInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", ErrProbeFailed, err)
	}
	req.Header.Set("Range", rangeHeader(0, 0))
	resp, err := d.probeClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProbeFailed, err)
	}
	defer resp.Body.Close()
	// only a byte is expected, don't read a full body the server may send
	_, _ = io.CopyN(io.Discard, resp.Body, 1)

	info := &remoteInfo{
		URL:          resp.Request.URL.String(),
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}
	switch resp.StatusCode {
	case http.StatusPartialContent:
		_, _, total, err := parseContentRange(resp.Header.Get("Content-Range"))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrProbeFailed, err)
		}
		info.Size = total
		info.AcceptRanges = total >= 0
	case http.StatusOK:
		info.Size = resp.ContentLength
	case http.StatusRequestedRangeNotSatisfiable:
		// an empty resource has no first byte
		if resp.Header.Get("Content-Range") == "bytes */0" {
			info.Size = 0
			info.AcceptRanges = true
		} else {
			info.Size = -1
		}
	default:
		return nil, fmt.Errorf("%w: %w", ErrProbeFailed, HTTPStatusError{StatusCode: resp.StatusCode})
	}
	return info, nil
}
