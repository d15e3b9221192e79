// Package ai implements the model-execution engine for TaskPilot agents.
// It exposes a small provider abstraction over the Gemini and Claude REST
// APIs plus a router that picks the first configured provider and falls back
// on failure.
package ai

import (
	"context"
	"time"
)

// Provider identifies a language-model backend.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderClaude Provider = "claude"
)

// Request carries one agent task to a provider. Role, Goal and Backstory
// describe the persona and become the system prompt; Prompt is the task
// itself and ExpectedOutput hints at the desired response shape.
type Request struct {
	Role           string  `json:"role"`
	Goal           string  `json:"goal"`
	Backstory      string  `json:"backstory"`
	Prompt         string  `json:"prompt"`
	ExpectedOutput string  `json:"expected_output,omitempty"`
	MaxTokens      int     `json:"max_tokens,omitempty"`
	Temperature    float32 `json:"temperature,omitempty"`
}

// Response is the raw text answer from a provider.
type Response struct {
	Provider  Provider      `json:"provider"`
	Content   string        `json:"content"`
	Usage     *Usage        `json:"usage,omitempty"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}

// Usage reports token consumption for one call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Client is implemented by every provider backend.
type Client interface {
	// Complete submits a request and returns the model's raw text answer.
	Complete(ctx context.Context, req *Request) (*Response, error)

	// Provider returns the backend identifier.
	Provider() Provider

	// Healthy checks whether the backend is reachable.
	Healthy(ctx context.Context) error
}

// ProviderUsage tracks aggregate statistics for one provider.
type ProviderUsage struct {
	Provider     Provider  `json:"provider"`
	RequestCount int64     `json:"request_count"`
	TotalTokens  int64     `json:"total_tokens"`
	ErrorCount   int64     `json:"error_count"`
	AvgLatency   float64   `json:"avg_latency"`
	LastUsed     time.Time `json:"last_used"`
}

const defaultMaxTokens = 8000

func maxTokensFor(req *Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return defaultMaxTokens
}
