package telegram

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/airdropbot/core/telegram/netutil"
)

const (
	dialTimeout     = 5 * time.Second
	tlsTimeout      = 5 * time.Second
	idleTimeout     = 30 * time.Second
	clientTimeout   = 30 * time.Second
	keepAlive       = 30 * time.Second
	retryAttempts   = 3
	retryBackoff    = 2 * time.Second
	maxIdlePerHost  = 10
	maxIdleOverall  = 100
	continueTimeout = time.Second
)

// BuildHTTPClient returns the client used for Bot API calls. Requests that
// fail with a transient network error are replayed with linear backoff.
// The overall timeout must exceed the long polling timeout.
func BuildHTTPClient(pollTimeout time.Duration) *http.Client {
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: keepAlive}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          maxIdleOverall,
		MaxIdleConnsPerHost:   maxIdlePerHost,
		IdleConnTimeout:       idleTimeout,
		TLSHandshakeTimeout:   tlsTimeout,
		ExpectContinueTimeout: continueTimeout,
	}
	return &http.Client{
		Timeout:   clientTimeout + pollTimeout,
		Transport: &retryTransport{base: base, attempts: retryAttempts + 1, backoff: retryBackoff},
	}
}

type retryTransport struct {
	base     http.RoundTripper
	attempts int
	backoff  time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	attempt := 0
	err := netutil.Retry(req.Context(), t.attempts, t.backoff, t.retryable(req), func(context.Context) error {
		attempt++
		r := req
		if attempt > 1 {
			r = req.Clone(req.Context())
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return err
				}
				r.Body = body
			}
		}
		var err error
		resp, err = t.base.RoundTrip(r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// retryable refuses to replay requests whose body cannot be rewound.
func (t *retryTransport) retryable(req *http.Request) func(error) bool {
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		return func(error) bool { return false }
	}
	return netutil.ShouldRetry
}
