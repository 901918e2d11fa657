package responder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newChatServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPClientCompleteSuccess(t *testing.T) {
	var gotReq ChatRequest
	srv := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  hello there  "}}]}`))
	})

	c := NewHTTPClient(HTTPConfig{
		URL:         srv.URL,
		Model:       "test-model",
		Temperature: 0.7,
		MaxTokens:   200,
		TopP:        0.9,
		Timeout:     2 * time.Second,
	})

	text, err := c.Complete(context.Background(), "persona", "prompt")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if text != "hello there" {
		t.Fatalf("Complete() = %q, want trimmed completion", text)
	}

	if gotReq.Model != "test-model" || gotReq.Temperature != 0.7 || gotReq.MaxTokens != 200 || gotReq.TopP != 0.9 {
		t.Fatalf("request parameters = %+v, want fixed configured values", gotReq)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" {
		t.Fatalf("messages = %+v, want [system, user]", gotReq.Messages)
	}
}

func TestHTTPClientErrorPaths(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error status", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"malformed body", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{not json`))
		}},
		{"no choices", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newChatServer(t, tc.handler)
			c := NewHTTPClient(HTTPConfig{URL: srv.URL, Timeout: 2 * time.Second})
			if _, err := c.Complete(context.Background(), "p", "u"); err == nil {
				t.Fatalf("Complete() error = nil, want failure")
			}
		})
	}
}

func TestHTTPClientTimeout(t *testing.T) {
	srv := newChatServer(t, func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"late"}}]}`))
	})

	c := NewHTTPClient(HTTPConfig{URL: srv.URL, Timeout: 30 * time.Millisecond})
	if _, err := c.Complete(context.Background(), "p", "u"); err == nil {
		t.Fatalf("Complete() error = nil, want timeout")
	}
}

func TestResponderFallbackOnClientError(t *testing.T) {
	client := NewMockClient()
	client.Fail(errors.New("connection refused"))
	r := New(client, "", "", "")

	reply, err := r.Reply(context.Background(), "", "hello")
	if reply != DefaultFallback {
		t.Fatalf("Reply() = %q, want fixed fallback %q", reply, DefaultFallback)
	}
	if err == nil {
		t.Fatalf("Reply() should surface the underlying failure for logging")
	}
}

func TestResponderEmptyCompletionIsFailureEquivalent(t *testing.T) {
	srv := newChatServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":""}}]}`))
	})
	r := New(NewHTTPClient(HTTPConfig{URL: srv.URL, Timeout: 2 * time.Second}), "", "", "")

	reply, err := r.Reply(context.Background(), "", "hello")
	if err != nil {
		t.Fatalf("Reply() error = %v, want nil for empty completion", err)
	}
	if reply != DefaultEmptyReply {
		t.Fatalf("Reply() = %q, want %q", reply, DefaultEmptyReply)
	}
}

func TestResponderEmbedsContextInPrompt(t *testing.T) {
	client := NewMockClient()
	client.Script("sure thing")
	r := New(client, "", "", "")

	reply, err := r.Reply(context.Background(), "[preferences] hobby: painting", "what do I like?")
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if reply != "sure thing" {
		t.Fatalf("Reply() = %q, want scripted reply", reply)
	}

	prompts := client.Prompts()
	if len(prompts) != 1 {
		t.Fatalf("prompt count = %d, want 1", len(prompts))
	}
	if !strings.Contains(prompts[0], "[preferences] hobby: painting") ||
		!strings.Contains(prompts[0], "User said: what do I like?") {
		t.Fatalf("prompt = %q, want memory context and utterance embedded", prompts[0])
	}
}

func TestBuildPromptWithEmptyContext(t *testing.T) {
	got := BuildPrompt("", "hi")
	want := "\nUser said: hi\nAlice responds:"
	if got != want {
		t.Fatalf("BuildPrompt() = %q, want %q", got, want)
	}
}
