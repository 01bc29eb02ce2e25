package client

import (
	"context"
	"errors"
	"net"
)

// ErrorKind classifies a transport failure for reporting.
type ErrorKind string

const (
	ErrorKindNone     ErrorKind = ""
	ErrorKindTimeout  ErrorKind = "timeout"
	ErrorKindConnect  ErrorKind = "connect"
	ErrorKindCanceled ErrorKind = "canceled"
	ErrorKindOther    ErrorKind = "other"
)

func ClassifyError(err error) ErrorKind {
	if err == nil {
		return ErrorKindNone
	}
	if errors.Is(err, context.Canceled) {
		return ErrorKindCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorKindTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return ErrorKindConnect
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrorKindConnect
	}
	return ErrorKindOther
}
