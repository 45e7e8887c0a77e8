package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shaiso/Concord/internal/domain"
)

func newItem(t *testing.T) *domain.ScheduledWorkItem {
	t.Helper()
	item, err := domain.NewScheduledWorkItem("notify", domain.NewTargetRef("Order", "42"), time.Time{})
	if err != nil {
		t.Fatalf("new item: %v", err)
	}
	item.Attempts = 2
	return item
}

// --- Config Tests ---

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"valid", Config{Kind: "notify", URL: "https://example.com/hook"}, true},
		{"no kind", Config{URL: "https://example.com/hook"}, false},
		{"reserved kind", Config{Kind: "validation", URL: "https://example.com/hook"}, false},
		{"relative url", Config{Kind: "notify", URL: "/hook"}, false},
		{"bad scheme", Config{Kind: "notify", URL: "ftp://example.com"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

// --- Work Tests ---

func TestWork_Delivers(t *testing.T) {
	item := newItem(t)

	var got Payload
	var headers http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	w, err := New(Config{Kind: "notify", URL: srv.URL, Headers: map[string]string{"Authorization": "Bearer t"}}, nil, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if w.Kind() != "notify" {
		t.Errorf("unexpected kind %s", w.Kind())
	}

	if err := w.Run(context.Background(), item); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.WorkItemID != item.ID || got.Target != item.Target || got.Attempt != 3 {
		t.Errorf("unexpected payload %+v", got)
	}
	if headers.Get("Idempotency-Key") != item.ID.String() {
		t.Errorf("expected idempotency key %s, got %q", item.ID, headers.Get("Idempotency-Key"))
	}
	if headers.Get("Authorization") != "Bearer t" {
		t.Errorf("configured header not sent")
	}
}

func TestWork_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "downstream unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	w, _ := New(Config{Kind: "notify", URL: srv.URL}, nil, nil)
	err := w.Run(context.Background(), newItem(t))

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusServiceUnavailable || httpErr.Body != "downstream unavailable" {
		t.Errorf("unexpected error %+v", httpErr)
	}
}

func TestWork_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	w, _ := New(Config{Kind: "notify", URL: srv.URL}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := w.Run(ctx, newItem(t)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
