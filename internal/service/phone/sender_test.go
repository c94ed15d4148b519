package phone

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGatewaySenderPostsCode(t *testing.T) {
	var got map[string]string
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sender := NewGatewaySender(srv.URL, "gw-token", time.Second)
	if err := sender.SendCode(context.Background(), "+15555550123", "123456"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["to"] != "+15555550123" {
		t.Fatalf("unexpected recipient: %v", got)
	}
	if !strings.Contains(got["message"], "123456") {
		t.Fatalf("expected code in message, got %q", got["message"])
	}
	if auth != "Bearer gw-token" {
		t.Fatalf("unexpected auth header: %q", auth)
	}
}

func TestGatewaySenderRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	sender := NewGatewaySender(srv.URL, "", time.Second)
	if err := sender.SendCode(context.Background(), "+15555550123", "123456"); err == nil {
		t.Fatalf("expected error for gateway failure")
	}
}
