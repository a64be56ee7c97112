package discord

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	requestTimeout = 10 * time.Second

	// 429 responses are waited out at most this many times per call
	rateLimitAttempts = 3
)

// ErrRateLimited is returned once Discord keeps answering 429 past
// rateLimitAttempts.
var ErrRateLimited = errors.New("discord rate limit not lifted")

// do sends the request built by newReq and sleeps out Retry-After whenever
// Discord answers 429. The caller closes the returned body.
func do(ctx context.Context, client *http.Client, newReq func() (*http.Request, error)) (*http.Response, error) {
	for attempt := 0; attempt < rateLimitAttempts; attempt++ {
		req, err := newReq()
		if err != nil {
			return nil, fmt.Errorf("building discord request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("discord request: %w", err)
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		wait := retryAfter(resp.Header)
		drain(resp)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrRateLimited, rateLimitAttempts)
}

// retryAfter reads the Retry-After header, which Discord may send with a
// fractional part. Missing or garbled values wait one second.
func retryAfter(h http.Header) time.Duration {
	secs, err := strconv.ParseFloat(h.Get("Retry-After"), 64)
	if err != nil || secs < 0 {
		return time.Second
	}
	return time.Duration(secs * float64(time.Second))
}

func jsonRequest(ctx context.Context, method, url string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func unexpectedStatus(resp *http.Response) error {
	return fmt.Errorf("discord answered %s", resp.Status)
}
