// Package llmtest provides an OpenAI-compatible chat completion stub for tests.
package llmtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

// Provider records every chat completion request it receives.
type Provider struct {
	*httptest.Server

	mu       sync.Mutex
	requests []ChatRequest
	status   int
	reply    string
	empty    bool
}

// NewProvider starts a stub answering every completion with reply.
func NewProvider(t *testing.T, reply string) *Provider {
	t.Helper()
	p := &Provider{status: http.StatusOK, reply: reply}
	p.Server = httptest.NewServer(http.HandlerFunc(p.serve))
	t.Cleanup(p.Close)
	return p
}

// FailWith makes the stub answer with an OpenAI-style error and status.
func (p *Provider) FailWith(status int) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = status
	return p
}

// WithoutChoices makes the stub answer 200 with an empty choices list.
func (p *Provider) WithoutChoices() *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.empty = true
	return p
}

func (p *Provider) Requests() []ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ChatRequest, len(p.requests))
	copy(out, p.requests)
	return out
}

func (p *Provider) serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/chat/completions") {
		http.NotFound(w, r)
		return
	}
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	p.requests = append(p.requests, req)
	status, reply, empty := p.status, p.reply, p.empty
	p.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"message": http.StatusText(status),
				"type":    "requests",
				"code":    "stub_error",
			},
		})
		return
	}
	choices := []map[string]any{{
		"index":         0,
		"message":       map[string]any{"role": "assistant", "content": reply},
		"finish_reason": "stop",
	}}
	if empty {
		choices = []map[string]any{}
	}
	json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   req.Model,
		"choices": choices,
		"usage":   map[string]any{"prompt_tokens": 10, "completion_tokens": 0, "total_tokens": 10},
	})
}
