package discord

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	json "github.com/goccy/go-json"
)

func TestSend_Success(t *testing.T) {
	var received Message
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected JSON content type, got: %s", r.Header.Get("Content-Type"))
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("Failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewWebhookClient(server.URL)
	if err := client.Send(context.Background(), SummaryMessage(RunSummary{Matches: 5})); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if len(received.Embeds) != 1 || received.Embeds[0].Fields[0].Value != "5" {
		t.Errorf("Unexpected message received: %+v", received)
	}
}

func TestSend_RateLimitRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"hi"`) {
			t.Errorf("attempt %d sent body %q", calls.Load()+1, body)
		}
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	if err := NewWebhookClient(server.URL).Send(context.Background(), Message{Content: "hi"}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("Expected 2 calls, got %d", calls.Load())
	}
}

func TestSend_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	err := NewWebhookClient(server.URL).Send(context.Background(), Message{Content: "hi"})
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Fatalf("Expected status 400 error, got: %v", err)
	}
}
