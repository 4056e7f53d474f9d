package distance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// retryPolicy bounds how often and how long a matrix call is retried.
type retryPolicy struct {
	Attempts int
	// First backoff; doubled after each failed attempt.
	Base time.Duration
	// Ceiling for any single wait, including one requested by Retry-After.
	Max time.Duration
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{Attempts: 4, Base: 200 * time.Millisecond, Max: 10 * time.Second}
}

// orsStatusError is a non-2xx answer from ORS.
type orsStatusError struct {
	Code int
	Body string
	// Server-requested wait before the next attempt, zero when absent.
	RetryAfter time.Duration
}

func (e *orsStatusError) Error() string {
	return fmt.Sprintf("ORS status %d: %s", e.Code, e.Body)
}

// Temporary reports whether ORS itself signals the call may succeed later.
func (e *orsStatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

// parseRetryAfter reads a Retry-After header given in seconds or as an HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}

// delay picks the wait before the next attempt, or false when err is final.
func (p retryPolicy) delay(err error, backoff time.Duration) (time.Duration, bool) {
	var se *orsStatusError
	if errors.As(err, &se) {
		if !se.Temporary() {
			return 0, false
		}
		if se.RetryAfter > 0 {
			backoff = se.RetryAfter
		}
	} else {
		var netErr net.Error
		if !errors.As(err, &netErr) {
			return 0, false
		}
	}
	return min(backoff, p.Max), true
}

// post sends payload to endpoint, retrying transient failures under the
// provider's policy. Every attempt waits for the rate limiter first.
func (o *ORSDistanceProvider) post(ctx context.Context, endpoint string, payload []byte) (*http.Response, error) {
	backoff := o.retry.Base

	for attempt := 1; ; attempt++ {
		if err := o.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		resp, err := o.send(ctx, endpoint, payload)
		if err == nil {
			return resp, nil
		}

		wait, retry := o.retry.delay(err, backoff)
		if !retry || attempt >= o.retry.Attempts {
			return nil, err
		}
		o.log.Debug("retrying ORS request",
			zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}
}

func (o *ORSDistanceProvider) send(ctx context.Context, endpoint string, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", o.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusBadRequest {
		return resp, nil
	}

	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	return nil, &orsStatusError{
		Code:       resp.StatusCode,
		Body:       strings.TrimSpace(string(b)),
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
	}
}
