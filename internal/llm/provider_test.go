package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// mockProvider is a test implementation of Provider
type mockProvider struct {
	name     string
	response *Response
	errs     []error // returned in order before response
	calls    atomic.Int32
}

func (m *mockProvider) Name() string {
	return m.name
}

func (m *mockProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	n := int(m.calls.Add(1))
	if n <= len(m.errs) {
		return nil, m.errs[n-1]
	}
	return m.response, nil
}

func TestRegistry_SetDefault(t *testing.T) {
	r := NewRegistry()
	r.Register("openrouter", &mockProvider{name: "openrouter"})

	if err := r.SetDefault("missing"); !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("SetDefault(missing) error = %v; want ErrProviderNotFound", err)
	}
	if err := r.SetDefault("openrouter"); err != nil {
		t.Fatalf("SetDefault() error = %v", err)
	}
	if r.DefaultName() != "openrouter" {
		t.Errorf("DefaultName() = %q; want openrouter", r.DefaultName())
	}
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()
	p := &mockProvider{name: "ollama"}
	r.Register("ollama", p)

	got, err := r.Get("ollama")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != p {
		t.Error("Get() returned different provider")
	}

	if _, err := r.Get("nope"); !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("Get(nope) error = %v; want ErrProviderNotFound", err)
	}
}

func TestRegistry_Default(t *testing.T) {
	r := NewRegistry()

	if _, err := r.Default(); !errors.Is(err, ErrNoDefaultProvider) {
		t.Errorf("Default() on empty registry error = %v; want ErrNoDefaultProvider", err)
	}

	r.Register("openrouter", &mockProvider{name: "openrouter"})
	r.Register("ollama", &mockProvider{name: "ollama"})

	// Without an explicit default the first name in sort order wins.
	p, err := r.Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if p.Name() != "ollama" {
		t.Errorf("Default().Name() = %q; want ollama", p.Name())
	}

	if err := r.SetDefault("openrouter"); err != nil {
		t.Fatal(err)
	}
	p, _ = r.Default()
	if p.Name() != "openrouter" {
		t.Errorf("Default().Name() = %q; want openrouter", p.Name())
	}
}

func TestRegistry_List(t *testing.T) {
	r := NewRegistry()
	r.Register("b", &mockProvider{name: "b"})
	r.Register("a", &mockProvider{name: "a"})

	got := r.List()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("List() = %v; want [a b]", got)
	}
}

func TestRegistry_Concurrency(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			r.Register(fmt.Sprintf("p%d", i), &mockProvider{name: "p"})
		}(i)
		go func() {
			defer wg.Done()
			_ = r.List()
			_, _ = r.Default()
		}()
	}
	wg.Wait()

	if got := len(r.List()); got != 50 {
		t.Errorf("len(List()) = %d; want 50", got)
	}
}

func TestUserPrompt(t *testing.T) {
	req := UserPrompt("be brief", "pick words")

	if req.System != "be brief" {
		t.Errorf("System = %q; want be brief", req.System)
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != RoleUser || req.Messages[0].Content != "pick words" {
		t.Errorf("Messages = %+v; want one user message", req.Messages)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"429", &StatusError{StatusCode: http.StatusTooManyRequests}, true},
		{"503 wrapped", fmt.Errorf("call: %w", &StatusError{StatusCode: http.StatusServiceUnavailable}), true},
		{"400", &StatusError{StatusCode: http.StatusBadRequest}, false},
		{"401", &StatusError{StatusCode: http.StatusUnauthorized}, false},
		{"empty response", fmt.Errorf("x: %w", ErrEmptyResponse), true},
		{"deadline", context.DeadlineExceeded, false},
		{"canceled", fmt.Errorf("do request: %w", context.Canceled), false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v; want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDefaultResilientConfig(t *testing.T) {
	cfg := DefaultResilientConfig()

	if !cfg.EnableCircuitBreaker || !cfg.EnableRetry || !cfg.EnableBulkhead || !cfg.EnableRateLimit {
		t.Errorf("all patterns should be enabled by default: %+v", cfg)
	}
	if cfg.RetryAttempts != 3 {
		t.Errorf("RetryAttempts = %d; want 3", cfg.RetryAttempts)
	}
}

func TestNewResilientProvider_NoPatterns(t *testing.T) {
	rp := NewResilientProvider(&mockProvider{name: "test"}, ResilientConfig{})

	if rp.circuitBreaker != nil || rp.retrier != nil || rp.bulkhead != nil || rp.rateLimit != nil {
		t.Error("no pattern should be configured when all are disabled")
	}
	if rp.Name() != "test" {
		t.Errorf("Name() = %q; want test", rp.Name())
	}
	if err := rp.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestResilientProvider_Generate_RetriesTransient(t *testing.T) {
	p := &mockProvider{
		name:     "test",
		errs:     []error{&StatusError{Provider: "test", StatusCode: http.StatusServiceUnavailable}},
		response: &Response{Content: `["river"]`},
	}
	rp := NewResilientProvider(p, ResilientConfig{
		EnableRetry:    true,
		RetryAttempts:  3,
		RetryBaseDelay: time.Millisecond,
	})

	resp, err := rp.Generate(context.Background(), &Request{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Content != `["river"]` {
		t.Errorf("Content = %q; want [\"river\"]", resp.Content)
	}
	if got := p.calls.Load(); got != 2 {
		t.Errorf("calls = %d; want 2", got)
	}
}

func TestResilientProvider_Generate_PermanentError(t *testing.T) {
	p := &mockProvider{
		name: "test",
		errs: []error{&StatusError{Provider: "test", StatusCode: http.StatusUnauthorized}},
	}
	rp := NewResilientProvider(p, ResilientConfig{
		EnableRetry:    true,
		RetryAttempts:  3,
		RetryBaseDelay: time.Millisecond,
	})

	if _, err := rp.Generate(context.Background(), &Request{}); err == nil {
		t.Fatal("Generate() expected error")
	}
	if got := p.calls.Load(); got != 1 {
		t.Errorf("calls = %d; want 1", got)
	}
}

func TestResilientProvider_Generate_AllPatterns(t *testing.T) {
	p := &mockProvider{name: "test", response: &Response{Content: "ok"}}
	cfg := DefaultResilientConfig()
	cfg.RatePerSecond = 10
	rp := NewResilientProvider(p, cfg)
	defer rp.Close()

	resp, err := rp.Generate(context.Background(), &Request{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("Content = %q; want ok", resp.Content)
	}
}

func TestOpenAIProvider_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Method = %v; want POST", r.Method)
		}
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("Path = %v; want /v1/chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q; want Bearer test-key", got)
		}
		if got := r.Header.Get("X-Title"); got != "Cloze Reader" {
			t.Errorf("X-Title = %q; want Cloze Reader", got)
		}

		var body openaiRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Model != DefaultOpenRouterModel {
			t.Errorf("Model = %q; want %q", body.Model, DefaultOpenRouterModel)
		}
		if len(body.Messages) != 2 || body.Messages[0].Role != "system" {
			t.Errorf("Messages = %+v; want system then user", body.Messages)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"id": "gen-1",
			"choices": []map[string]any{{
				"message":       map[string]any{"role": "assistant", "content": `["meadow"]`},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 3},
		})
	}))
	defer server.Close()

	p := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL + "/", Title: "Cloze Reader"})

	got, err := p.Generate(context.Background(), UserPrompt("system", "hello"))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got.Content != `["meadow"]` {
		t.Errorf("Content = %q", got.Content)
	}
	if got.Usage.InputTokens != 12 || got.Usage.OutputTokens != 3 {
		t.Errorf("Usage = %+v; want 12/3", got.Usage)
	}
}

func TestOpenAIProvider_Generate_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"slow down"}`))
	}))
	defer server.Close()

	p := NewOpenAIProvider(OpenAIConfig{BaseURL: server.URL})

	_, err := p.Generate(context.Background(), UserPrompt("", "hello"))
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v; want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d; want 429", statusErr.StatusCode)
	}
	if !IsRetryable(err) {
		t.Error("429 should be retryable")
	}
}

func TestOpenAIProvider_Generate_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"x","choices":[]}`))
	}))
	defer server.Close()

	p := NewOpenAIProvider(OpenAIConfig{BaseURL: server.URL})

	if _, err := p.Generate(context.Background(), UserPrompt("", "hello")); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("error = %v; want ErrEmptyResponse", err)
	}
}

func TestNewOpenAIProvider_Defaults(t *testing.T) {
	p := NewOpenAIProvider(OpenAIConfig{})

	if p.Name() != "openrouter" {
		t.Errorf("Name() = %q; want openrouter", p.Name())
	}
	if p.baseURL != DefaultOpenRouterURL {
		t.Errorf("baseURL = %q; want %q", p.baseURL, DefaultOpenRouterURL)
	}
	if p.model != DefaultOpenRouterModel {
		t.Errorf("model = %q; want %q", p.model, DefaultOpenRouterModel)
	}
}

func TestOllamaProvider_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("Path = %v; want /api/chat", r.URL.Path)
		}

		var body ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Stream {
			t.Error("Stream should be false")
		}
		if body.Options == nil || body.Options.NumPredict != 50 {
			t.Errorf("Options = %+v; want num_predict 50", body.Options)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"model":             "gemma3",
			"message":           map[string]any{"role": "assistant", "content": "lantern"},
			"done":              true,
			"eval_count":        2,
			"prompt_eval_count": 40,
		})
	}))
	defer server.Close()

	p := NewOllamaProvider(OllamaConfig{BaseURL: server.URL})
	req := UserPrompt("", "pick one word")
	req.MaxTokens = 50

	got, err := p.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got.Content != "lantern" {
		t.Errorf("Content = %q; want lantern", got.Content)
	}
	if got.FinishReason != "stop" {
		t.Errorf("FinishReason = %q; want stop", got.FinishReason)
	}
	if got.Usage.InputTokens != 40 {
		t.Errorf("InputTokens = %d; want 40", got.Usage.InputTokens)
	}
}

func TestOllamaProvider_Generate_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	p := NewOllamaProvider(OllamaConfig{BaseURL: server.URL})

	_, err := p.Generate(context.Background(), UserPrompt("", "x"))
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("error = %v; want 404 StatusError", err)
	}
	if IsRetryable(err) {
		t.Error("404 should not be retryable")
	}
}
