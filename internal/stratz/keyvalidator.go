package stratz

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
)

// Default timeout for validation requests
const defaultValidationTimeout = 10 * time.Second

// KeyValidator validates STRATZ API tokens by making a test request
type KeyValidator struct {
	httpClient *http.Client
	baseURL    string
}

// KeyValidatorOption configures a KeyValidator
type KeyValidatorOption func(*KeyValidator)

// WithBaseURL sets a custom endpoint (useful for testing)
func WithBaseURL(url string) KeyValidatorOption {
	return func(v *KeyValidator) {
		v.baseURL = url
	}
}

// WithTimeout sets a custom timeout for validation requests
func WithTimeout(timeout time.Duration) KeyValidatorOption {
	return func(v *KeyValidator) {
		v.httpClient.Timeout = timeout
	}
}

// NewKeyValidator creates a new KeyValidator with the given options
func NewKeyValidator(opts ...KeyValidatorOption) *KeyValidator {
	v := &KeyValidator{
		httpClient: &http.Client{
			Timeout: defaultValidationTimeout,
		},
		baseURL: DefaultBaseURL,
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// ValidateKey validates a token with the cheapest authenticated query.
// Returns:
//   - (true, nil) if the key is valid
//   - (false, nil) if the key is invalid (401/403)
//   - (false, error) if there was a network/server error (key validity unknown)
func (v *KeyValidator) ValidateKey(ctx context.Context, apiKey string) (bool, error) {
	if apiKey == "" {
		return false, ErrMissingAPIKey
	}

	body, err := json.Marshal(graphQLRequest{Query: statusQuery})
	if err != nil {
		return false, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
}
