package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/pharmassist/internal/config"
	"github.com/hyperjump/pharmassist/internal/errs"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// fakeChat answers chat completions. statuses are returned in order before the first success.
type fakeChat struct {
	mu       sync.Mutex
	statuses []int
	requests []chatRequest
}

func (f *fakeChat) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		f.mu.Lock()
		f.requests = append(f.requests, req)
		status := http.StatusOK
		if len(f.statuses) > 0 {
			status = f.statuses[0]
			f.statuses = f.statuses[1:]
		}
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream said no","type":"server_error"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"gpt-3.5-turbo",
			"choices":[{"index":0,"message":{"role":"assistant","content":"  Take with food.  "},"finish_reason":"stop"}]}`))
	}
}

func (f *fakeChat) first() chatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[0]
}

func (f *fakeChat) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func newTestClient(t *testing.T, f *fakeChat, retries int) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	oa := NewOpenAI(config.OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	return NewClient(oa, Options{
		Model:       "gpt-test",
		Temperature: 0.3,
		MaxTokens:   1000,
		Timeout:     2 * time.Second,
		MaxRetries:  retries,
		RetryDelay:  time.Millisecond,
	}, nil)
}

func TestClient_Complete(t *testing.T) {
	f := &fakeChat{}
	c := newTestClient(t, f, 0)

	got, err := c.Complete(context.Background(), "You are a pharmacist.", "What is aspirin?")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Take with food." {
		t.Errorf("got %q", got)
	}
	req := f.first()
	if req.Model != "gpt-test" || req.MaxTokens != 1000 || req.Temperature != 0.3 {
		t.Errorf("unexpected request settings: %+v", req)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Content != "What is aspirin?" {
		t.Errorf("unexpected messages: %+v", req.Messages)
	}
}

func TestClient_Complete_noSystemMessage(t *testing.T) {
	f := &fakeChat{}
	c := newTestClient(t, f, 0)
	if _, err := c.Complete(context.Background(), "", "hello"); err != nil {
		t.Fatal(err)
	}
	if msgs := f.first().Messages; len(msgs) != 1 {
		t.Errorf("messages: %+v", msgs)
	}
}

func TestClient_Complete_errors(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		retries   int
		wantKind  errs.Kind
		wantCalls int
		rateLimit bool
	}{
		{"server error retried then succeeds", []int{500}, 2, "", 2, false},
		{"server error exhausts retries", []int{500, 502, 503}, 2, errs.KindProvider, 3, false},
		{"rate limit", []int{429, 429}, 1, errs.KindProvider, 2, true},
		{"unauthorized is not retried", []int{401}, 3, errs.KindUnauthorized, 1, false},
		{"bad request is not retried", []int{400}, 3, errs.KindProvider, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeChat{statuses: append([]int(nil), tt.statuses...)}
			c := newTestClient(t, f, tt.retries)
			_, err := c.Complete(context.Background(), "", "q")
			if tt.wantKind == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			} else if !errs.IsKind(err, tt.wantKind) {
				t.Fatalf("error kind = %v (%v), want %v", errs.KindOf(err), err, tt.wantKind)
			}
			if got := errors.Is(err, ErrRateLimited); got != tt.rateLimit {
				t.Errorf("rate limited = %v, want %v", got, tt.rateLimit)
			}
			if f.calls() != tt.wantCalls {
				t.Errorf("calls = %d, want %d", f.calls(), tt.wantCalls)
			}
		})
	}
}

func TestClient_Complete_unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(NewOpenAI(config.OpenAIConfig{APIKey: "k", BaseURL: url + "/v1"}), Options{Timeout: time.Second}, nil)
	_, err := c.Complete(context.Background(), "", "q")
	if !errs.IsKind(err, errs.KindTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(
		config.LLMConfig{Model: "m", Temperature: 0.2, MaxTokens: 50, Timeout: time.Second},
		config.OpenAIConfig{MaxRetries: 4, RetryDelay: time.Millisecond},
	)
	if opts.Model != "m" || opts.MaxTokens != 50 || opts.MaxRetries != 4 {
		t.Errorf("unexpected options: %+v", opts)
	}
}
