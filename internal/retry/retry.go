// internal/retry/retry.go

// Package retry runs fallible operations with exponential backoff and
// jitter. Only errors the classifier recognizes as transient are retried;
// everything else propagates on first failure.
package retry

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/valpere/SocialScrapexter/internal/utils"
)

// Options controls retry behavior.
type Options struct {
	// MaxRetries is the number of additional attempts after the first
	// failure.
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64

	// OnRetry, when set, fires before each backoff wait with the attempt
	// number (1-based), the error that triggered the retry, and the
	// computed delay.
	OnRetry func(attempt int, err error, delay time.Duration)

	// IsRetryable overrides the default classifier when set.
	IsRetryable func(error) bool
}

// DefaultOptions returns production defaults.
func DefaultOptions() Options {
	return Options{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
	}
}

func (o *Options) applyDefaults() {
	d := DefaultOptions()
	if o.MaxRetries < 0 {
		o.MaxRetries = d.MaxRetries
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = d.BaseDelay
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = d.MaxDelay
	}
	if o.Multiplier <= 1 {
		o.Multiplier = d.Multiplier
	}
	if o.IsRetryable == nil {
		o.IsRetryable = utils.IsRetryableError
	}
}

// jitterFraction is the symmetric jitter applied to every computed delay.
const jitterFraction = 0.25

// Delay returns the backoff before retry attempt n (0-based), capped at
// MaxDelay, with +/-25% multiplicative jitter so concurrent callers never
// retry in lockstep.
func (o Options) Delay(attempt int) time.Duration {
	backoff := float64(o.BaseDelay)
	for i := 0; i < attempt; i++ {
		backoff *= o.Multiplier
		if backoff >= float64(o.MaxDelay) {
			backoff = float64(o.MaxDelay)
			break
		}
	}
	if backoff > float64(o.MaxDelay) {
		backoff = float64(o.MaxDelay)
	}

	jitter := 1 + jitterFraction*(2*rand.Float64()-1)
	return time.Duration(backoff * jitter)
}

// Do runs op, retrying transient failures up to MaxRetries additional
// times. Exhausting retries returns the last observed error.
func Do[T any](ctx context.Context, opts Options, op func(ctx context.Context) (T, error)) (T, error) {
	opts.applyDefaults()

	var zero T
	var lastErr error

	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !opts.IsRetryable(err) {
			return zero, err
		}
		if attempt == opts.MaxRetries {
			break
		}

		delay := opts.Delay(attempt)
		if opts.OnRetry != nil {
			opts.OnRetry(attempt+1, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, lastErr
}

// maxResponseBytes bounds how much of an upstream response is read.
const maxResponseBytes = 10 << 20

// FetchHTML performs a GET with retry semantics layered on top of Do: a
// transport failure retries per the classifier, and any response with
// status 429 or >=500 is treated as a retryable failure even though the
// transport call itself succeeded. Other non-2xx statuses fail immediately.
func FetchHTML(ctx context.Context, client *http.Client, url string, header http.Header, opts Options) (string, error) {
	if client == nil {
		client = http.DefaultClient
	}

	return Do(ctx, opts, func(ctx context.Context) (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", utils.WrapError(err, utils.ErrCodeTransport, "failed to build request")
		}
		for key, values := range header {
			for _, v := range values {
				req.Header.Add(key, v)
			}
		}

		resp, err := client.Do(req)
		if err != nil {
			return "", utils.WrapError(err, utils.ErrCodeTransport, "request failed")
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", utils.NewError(utils.ErrCodeTransport,
				fmt.Sprintf("upstream returned %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			// Non-retryable upstream rejection.
			return "", &utils.StructuredError{
				Code:      utils.ErrCodeTransport,
				Message:   fmt.Sprintf("upstream returned %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
				Timestamp: time.Now(),
				Retryable: false,
			}
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return "", utils.WrapError(err, utils.ErrCodeTransport, "failed to read response body")
		}
		return string(body), nil
	})
}
