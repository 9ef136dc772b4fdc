package retry

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"

	"FeeAllocator/internal/model"
)

type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// MarkTransient tags err as a transient network condition so the executor retries it.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

var transientMarkers = []string{
	"timeout",
	"timed out",
	"network",
	"connection refused",
	"connection reset",
	"no such host",
	"econnrefused",
	"econnreset",
	"enotfound",
	"etimedout",
}

// IsTransient reports whether err looks like a temporary network failure.
// Cancellation by the caller is never transient.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var te *transientError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range transientMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// KindOf maps an error returned by Do to an ErrorKind.
func KindOf(err error) model.ErrorKind {
	if IsTransient(err) {
		return model.KindTransient
	}
	return model.KindTerminal
}
