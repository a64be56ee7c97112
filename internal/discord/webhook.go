package discord

import (
	"context"
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"
)

// WebhookClient posts messages to one Discord webhook URL
type WebhookClient struct {
	url    string
	client *http.Client
}

func NewWebhookClient(url string) *WebhookClient {
	return &WebhookClient{url: url, client: &http.Client{Timeout: requestTimeout}}
}

// Send posts msg to the webhook. Discord answers 204 on success.
func (c *WebhookClient) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding webhook message: %w", err)
	}

	resp, err := do(ctx, c.client, func() (*http.Request, error) {
		return jsonRequest(ctx, http.MethodPost, c.url, body)
	})
	if err != nil {
		return err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook: %w", unexpectedStatus(resp))
	}
	return nil
}
