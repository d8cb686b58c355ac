package gemini

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/Yashraj8888/Leetcode-Companion/internal/logger"
)

func TestExtractJSONBlock(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"bare object", `{"score": 4, "reason": "good"}`, `{"score": 4, "reason": "good"}`, true},
		{"prose around", "Sure! Here is my rating:\n{\"score\": 3}\nHope that helps.", `{"score": 3}`, true},
		{"markdown fence", "```json\n{\"score\": 5, \"reason\": \"great\"}\n```", `{"score": 5, "reason": "great"}`, true},
		{"nested object", `text {"a": {"b": 1}} text`, `{"a": {"b": 1}}`, true},
		{"brace inside string", `{"reason": "uses {braces} a lot", "score": 2}`, `{"reason": "uses {braces} a lot", "score": 2}`, true},
		{"escaped quote inside string", `{"reason": "say \"hi\" {x}", "score": 1}`, `{"reason": "say \"hi\" {x}", "score": 1}`, true},
		{"only picks first block", `{"a": 1} {"b": 2}`, `{"a": 1}`, true},
		{"no object", "no json here", "", false},
		{"unterminated", `{"score": 4`, "", false},
		{"empty", "", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractJSONBlock(tc.text)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("ExtractJSONBlock(%q) = %q, %v; want %q, %v", tc.text, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	if _, err := NewClient(logger.NewNop()); err == nil {
		t.Fatal("missing API key should fail client construction")
	}
}

func TestGenerateText_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "{\"score\": 4}"}]}}]}`))
	}))
	defer srv.Close()

	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GEMINI_BASE_URL", srv.URL)
	t.Setenv("GEMINI_MAX_RETRIES", "2")

	c, err := NewClient(logger.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	text, err := c.GenerateText(context.Background(), "rate this")
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if text != `{"score": 4}` {
		t.Fatalf("unexpected text %q", text)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected one retry, got %d calls", calls.Load())
	}
}

func TestGenerateText_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GEMINI_BASE_URL", srv.URL)

	c, err := NewClient(logger.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if _, err := c.GenerateText(context.Background(), "rate this"); err == nil {
		t.Fatal("400 should surface as an error")
	}
	if calls.Load() != 1 {
		t.Fatalf("client errors must not be retried, got %d calls", calls.Load())
	}
}
