package stratz

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the public GraphQL endpoint
	DefaultBaseURL = "https://api.stratz.com/graphql"

	// Rate limits for a default token (conservative values)
	requestsPerSecond = 15  // Actual: 20
	requestsPerMinute = 200 // Actual: 250

	defaultMaxAttempts = 5
	defaultMinBackoff  = 4 * time.Second
	defaultMaxBackoff  = 10 * time.Second
	defaultRetryAfter  = 10 * time.Second
)

var (
	// ErrMissingAPIKey is returned when no API token was configured
	ErrMissingAPIKey = errors.New("STRATZ_API_KEY environment variable is not set")
	// ErrQuery marks a response that carried GraphQL errors; it is never retried
	ErrQuery = errors.New("graphql query error")
	// ErrUnauthorized marks a 401/403 response; it is never retried
	ErrUnauthorized = errors.New("api key rejected")
)

// Client is a rate-limited STRATZ GraphQL client
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logrus.FieldLogger

	maxAttempts int
	minBackoff  time.Duration
	maxBackoff  time.Duration
	sleep       func(ctx context.Context, d time.Duration) error

	// Rate limiting
	mu          sync.Mutex
	shortWindow []time.Time // Requests in last second
	longWindow  []time.Time // Requests in last minute
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithClientBaseURL points the client at a different endpoint (useful for testing)
func WithClientBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithLogger sets the logger used for rate-limit and retry messages
func WithLogger(log logrus.FieldLogger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// WithBackoff overrides the retry policy
func WithBackoff(maxAttempts int, min, max time.Duration) ClientOption {
	return func(c *Client) {
		c.maxAttempts = maxAttempts
		c.minBackoff = min
		c.maxBackoff = max
	}
}

// withSleep replaces the wait function (tests)
func withSleep(fn func(ctx context.Context, d time.Duration) error) ClientOption {
	return func(c *Client) {
		c.sleep = fn
	}
}

// NewClient creates a client that authenticates every request with a bearer token
func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiKey, TokenType: "Bearer"})

	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &oauth2.Transport{
				Source: oauth2.ReuseTokenSource(nil, src),
				Base:   http.DefaultTransport,
			},
		},
		log:         logrus.StandardLogger(),
		maxAttempts: defaultMaxAttempts,
		minBackoff:  defaultMinBackoff,
		maxBackoff:  defaultMaxBackoff,
		sleep:       sleepContext,
		shortWindow: make([]time.Time, 0),
		longWindow:  make([]time.Time, 0),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// FetchMatches fetches recent matches for a batch of players
func (c *Client) FetchMatches(ctx context.Context, steamAccountIDs []int64, gameVersion int) (*BatchFile, error) {
	vars := map[string]interface{}{
		"steam_account_ids": steamAccountIDs,
	}
	if gameVersion > 0 {
		vars["game_version_ids"] = []int{gameVersion}
	}

	var raw json.RawMessage
	if err := c.execute(ctx, matchesQuery, vars, &raw); err != nil {
		return nil, err
	}

	batch := BatchFile{Raw: raw}
	if err := json.Unmarshal(raw, &batch); err != nil {
		return nil, fmt.Errorf("failed to decode matches: %w", err)
	}
	return &batch, nil
}

// FetchLeaderboard fetches the season leaderboard for one division
func (c *Client) FetchLeaderboard(ctx context.Context, division string, take int) (*LeaderboardResponse, error) {
	vars := map[string]interface{}{
		"request": map[string]string{"leaderBoardDivision": division},
		"skip":    0,
		"take":    take,
	}

	var resp LeaderboardResponse
	if err := c.execute(ctx, leaderboardQuery, vars, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchHeroConstants fetches the hero id/name table
func (c *Client) FetchHeroConstants(ctx context.Context) (*ConstantsResponse, error) {
	var resp ConstantsResponse
	if err := c.execute(ctx, heroConstantsQuery, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// execute runs a query with rate limiting and retries transient failures
func (c *Client) execute(ctx context.Context, query string, vars map[string]interface{}, result interface{}) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.waitForRateLimit(ctx); err != nil {
			return err
		}

		wait, err := c.doRequest(ctx, body, result)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err

		if attempt == c.maxAttempts {
			break
		}
		if wait <= 0 {
			wait = c.backoff(attempt)
		}
		c.log.WithFields(logrus.Fields{
			"attempt": attempt,
			"wait":    wait.String(),
		}).Warnf("[Stratz] Request failed: %v (retrying)", err)

		if err := c.sleep(ctx, wait); err != nil {
			return err
		}
	}

	return fmt.Errorf("giving up after %d attempts: %w", c.maxAttempts, lastErr)
}

// retryableError marks a failure worth another attempt
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

// doRequest performs one POST. The returned duration is a server-requested wait (429).
func (c *Client) doRequest(ctx context.Context, body []byte, result interface{}) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, &retryableError{err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		wait := defaultRetryAfter
		if s := resp.Header.Get("Retry-After"); s != "" {
			if secs, err := strconv.Atoi(s); err == nil {
				wait = time.Duration(secs) * time.Second
			}
		}
		return wait, &retryableError{err: fmt.Errorf("API returned 429 Too Many Requests")}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return 0, fmt.Errorf("API returned %d: %w", resp.StatusCode, ErrUnauthorized)
	case resp.StatusCode >= 500:
		return 0, &retryableError{err: fmt.Errorf("API returned status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return 0, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, &retryableError{err: fmt.Errorf("failed to read response: %w", err)}
	}

	var gql graphQLResponse
	if err := json.Unmarshal(raw, &gql); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(gql.Errors) > 0 {
		return 0, fmt.Errorf("%w: %s", ErrQuery, gql.Errors[0].Message)
	}
	if len(gql.Data) == 0 || string(gql.Data) == "null" {
		return 0, fmt.Errorf("%w: empty data", ErrQuery)
	}

	if err := json.Unmarshal(gql.Data, result); err != nil {
		return 0, fmt.Errorf("failed to decode data: %w", err)
	}
	return 0, nil
}

// backoff returns 2^attempt seconds clamped to [minBackoff, maxBackoff]
func (c *Client) backoff(attempt int) time.Duration {
	wait := time.Second << uint(attempt)
	if wait < c.minBackoff {
		wait = c.minBackoff
	}
	if wait > c.maxBackoff {
		wait = c.maxBackoff
	}
	return wait
}

// waitForRateLimit blocks until we can make another request
func (c *Client) waitForRateLimit(ctx context.Context) error {
	for {
		c.mu.Lock()

		now := time.Now()
		c.shortWindow = pruneBefore(c.shortWindow, now.Add(-time.Second))
		c.longWindow = pruneBefore(c.longWindow, now.Add(-time.Minute))

		if len(c.shortWindow) >= requestsPerSecond {
			waitTime := c.shortWindow[0].Add(time.Second).Sub(now) + 100*time.Millisecond
			c.mu.Unlock()
			if err := c.sleep(ctx, waitTime); err != nil {
				return err
			}
			continue
		}

		if len(c.longWindow) >= requestsPerMinute {
			waitTime := c.longWindow[0].Add(time.Minute).Sub(now) + 100*time.Millisecond
			c.mu.Unlock()
			c.log.Infof("[Rate limit] %d req/min, waiting %.1fs...", len(c.longWindow), waitTime.Seconds())
			if err := c.sleep(ctx, waitTime); err != nil {
				return err
			}
			continue
		}

		c.shortWindow = append(c.shortWindow, now)
		c.longWindow = append(c.longWindow, now)
		c.mu.Unlock()
		return nil
	}
}

func pruneBefore(window []time.Time, cutoff time.Time) []time.Time {
	kept := window[:0]
	for _, t := range window {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
