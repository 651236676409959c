package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestServer(t *testing.T, failures int, content string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if int(n) <= failures {
			http.Error(w, "upstream overloaded", http.StatusServiceUnavailable)
			return
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": content}},
			},
		})
	}))
	return srv, &calls
}

func testClient(url string) *Client {
	return NewClient(Config{
		BaseURL:        url,
		APIKey:         "test-key",
		Model:          "test-model",
		RetryBaseDelay: 10 * time.Millisecond,
	})
}

func TestCompleteSucceedsFirstTry(t *testing.T) {
	srv, calls := newTestServer(t, 0, "hello world")
	defer srv.Close()

	got, err := testClient(srv.URL).Complete(context.Background(), llmMessages(), 100, 0.4)
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got != "hello world" {
		t.Errorf("content = %q, want %q", got, "hello world")
	}
	if *calls != 1 {
		t.Errorf("calls = %d, want 1", *calls)
	}
}

func TestCompleteRetriesThenSucceeds(t *testing.T) {
	srv, calls := newTestServer(t, 2, "recovered")
	defer srv.Close()

	start := time.Now()
	got, err := testClient(srv.URL).Complete(context.Background(), llmMessages(), 100, 0.4)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got != "recovered" {
		t.Errorf("content = %q, want %q", got, "recovered")
	}
	if *calls != 3 {
		t.Errorf("calls = %d, want 3", *calls)
	}
	// Two failures wait base + 2*base = 30ms before the third attempt.
	if elapsed < 30*time.Millisecond {
		t.Errorf("elapsed %v, want at least 30ms of backoff", elapsed)
	}
}

func TestCompleteExhaustsAttempts(t *testing.T) {
	srv, calls := newTestServer(t, 1000, "unreachable")
	defer srv.Close()

	_, err := testClient(srv.URL).Complete(context.Background(), llmMessages(), 100, 0.4)
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if !errors.Is(err, ErrExhausted) {
		t.Errorf("error %v is not ErrExhausted", err)
	}
	if *calls != 6 {
		t.Errorf("calls = %d, want exactly 6 attempts", *calls)
	}
}

func TestCompleteEmptyContentIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []map[string]any{}})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Complete(context.Background(), llmMessages(), 100, 0.4)
	if !errors.Is(err, ErrExhausted) {
		t.Errorf("expected ErrExhausted for empty completions, got %v", err)
	}
}

func llmMessages() []Message {
	return []Message{
		{Role: "system", Content: "You are a writer."},
		{Role: "user", Content: "Write something."},
	}
}
