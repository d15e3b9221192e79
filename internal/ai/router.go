package ai

import (
	"context"
	"fmt"
)

// Router fans a request out to the configured providers in preference
// order. Gemini is tried first when configured; Claude is the fallback.
// A router built with no API keys reports Available() == false and every
// Complete call fails fast, which lets callers detect the missing
// credential at construction time instead of mid-run.
type Router struct {
	clients []Client
}

// NewRouter builds a router from the configured API keys. Empty keys are
// skipped, so a deployment with only one provider still works.
func NewRouter(geminiKey, claudeKey string) *Router {
	r := &Router{}
	if geminiKey != "" {
		r.clients = append(r.clients, NewGeminiClient(geminiKey))
	}
	if claudeKey != "" {
		r.clients = append(r.clients, NewClaudeClient(claudeKey))
	}
	return r
}

// NewRouterWithClients builds a router from pre-constructed clients,
// primarily for tests.
func NewRouterWithClients(clients ...Client) *Router {
	return &Router{clients: clients}
}

// Available reports whether at least one provider is configured.
func (r *Router) Available() bool {
	return len(r.clients) > 0
}

// Complete tries each configured provider in order and returns the first
// successful response. All provider errors are joined into the returned
// error when every backend fails.
func (r *Router) Complete(ctx context.Context, req *Request) (*Response, error) {
	if len(r.clients) == 0 {
		return nil, fmt.Errorf("no language model provider configured")
	}

	var lastErr error
	for _, client := range r.clients {
		resp, err := client.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = fmt.Errorf("%s: %w", client.Provider(), err)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

// Usage returns per-provider aggregate statistics for providers that
// expose them.
func (r *Router) Usage() []*ProviderUsage {
	type usageReporter interface {
		GetUsage() *ProviderUsage
	}
	var out []*ProviderUsage
	for _, client := range r.clients {
		if rep, ok := client.(usageReporter); ok {
			out = append(out, rep.GetUsage())
		}
	}
	return out
}
