package stratz

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestValidateKey_ValidKey tests that a valid token passes validation
func TestValidateKey_ValidKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-token" {
			t.Errorf("Expected bearer token, got %q", r.Header.Get("Authorization"))
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"data":{"constants":{"gameVersions":[{"id":176}]}}}`))
	}))
	defer server.Close()

	validator := NewKeyValidator(WithBaseURL(server.URL))

	valid, err := validator.ValidateKey(context.Background(), "good-token")
	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if !valid {
		t.Error("Expected key to be valid")
	}
}

// TestValidateKey_Rejected tests that 401 and 403 mark the key invalid without an error
func TestValidateKey_Rejected(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		validator := NewKeyValidator(WithBaseURL(server.URL))
		valid, err := validator.ValidateKey(context.Background(), "bad-token")
		server.Close()

		if err != nil {
			t.Errorf("status %d: expected no error, got %v", status, err)
		}
		if valid {
			t.Errorf("status %d: expected key to be invalid", status)
		}
	}
}

// TestValidateKey_ServerError tests that 5xx responses leave validity unknown
func TestValidateKey_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	validator := NewKeyValidator(WithBaseURL(server.URL))

	valid, err := validator.ValidateKey(context.Background(), "token")
	if err == nil {
		t.Error("Expected error for 500 response")
	}
	if valid {
		t.Error("Expected key to not be reported valid")
	}
}

// TestValidateKey_Timeout tests that a slow server produces an error
func TestValidateKey_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	validator := NewKeyValidator(WithBaseURL(server.URL), WithTimeout(20*time.Millisecond))

	if _, err := validator.ValidateKey(context.Background(), "token"); err == nil {
		t.Error("Expected timeout error")
	}
}

func TestValidateKey_EmptyKey(t *testing.T) {
	validator := NewKeyValidator()
	if _, err := validator.ValidateKey(context.Background(), ""); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("got %v, want ErrMissingAPIKey", err)
	}
}
