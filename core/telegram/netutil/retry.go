// Package netutil classifies transient network failures and retries calls that hit them.
package netutil

import (
	"context"
	"errors"
	"net"
	"net/url"
	"time"
)

// ShouldRetry reports whether err looks like a transient dial or timeout failure.
func ShouldRetry(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && (opErr.Op == "dial" || opErr.Timeout()) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && (dnsErr.IsTimeout || dnsErr.IsTemporary) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Retry calls fn up to attempts times while it fails with errors accepted by
// retryable, sleeping backoff*n between tries. It stops early when ctx ends.
func Retry(ctx context.Context, attempts int, backoff time.Duration, retryable func(error) bool, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	if retryable == nil {
		retryable = ShouldRetry
	}
	var err error
	for n := 1; n <= attempts; n++ {
		if err = fn(ctx); err == nil || n == attempts || !retryable(err) {
			return err
		}
		timer := time.NewTimer(backoff * time.Duration(n))
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
	return err
}
