package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const defaultClaudeModel = "claude-3-5-sonnet-20241022"

// ClaudeClient calls the Anthropic messages API.
type ClaudeClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client

	usage   *ProviderUsage
	usageMu sync.RWMutex
}

type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	Messages    []claudeMessage `json:"messages"`
	Temperature float32         `json:"temperature,omitempty"`
	System      string          `json:"system,omitempty"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	ID      string `json:"id"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewClaudeClient creates an Anthropic API client.
func NewClaudeClient(apiKey string) *ClaudeClient {
	return &ClaudeClient{
		apiKey:  apiKey,
		model:   defaultClaudeModel,
		baseURL: "https://api.anthropic.com/v1/messages",
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		usage: &ProviderUsage{
			Provider: ProviderClaude,
			LastUsed: time.Now(),
		},
	}
}

// Complete implements the Client interface for Claude.
func (c *ClaudeClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	claudeReq := &claudeRequest{
		Model:     c.model,
		MaxTokens: maxTokensFor(req),
		Messages: []claudeMessage{
			{Role: "user", Content: userPrompt(req)},
		},
		Temperature: req.Temperature,
		System:      systemPrompt(req),
	}

	resp, err := c.makeRequest(ctx, claudeReq)
	if err != nil {
		c.incrementErrorCount()
		return nil, err
	}

	content := ""
	if len(resp.Content) > 0 && resp.Content[0].Type == "text" {
		content = resp.Content[0].Text
	}

	duration := time.Since(start)
	totalTokens := resp.Usage.InputTokens + resp.Usage.OutputTokens
	c.updateUsage(totalTokens, duration)

	return &Response{
		Provider: ProviderClaude,
		Content:  content,
		Usage: &Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      totalTokens,
		},
		Duration:  duration,
		CreatedAt: time.Now(),
	}, nil
}

func (c *ClaudeClient) makeRequest(ctx context.Context, req *claudeRequest) (*claudeResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			return nil, fmt.Errorf("RATE_LIMIT: Claude API rate limit exceeded")
		case http.StatusUnauthorized:
			return nil, fmt.Errorf("UNAUTHORIZED: invalid Claude API key")
		case http.StatusForbidden:
			return nil, fmt.Errorf("FORBIDDEN: Claude API access denied")
		case 500, 502, 503, 504, 529:
			return nil, fmt.Errorf("SERVICE_ERROR: Claude temporarily unavailable (status %d)", resp.StatusCode)
		default:
			return nil, fmt.Errorf("API_ERROR: Claude request failed with status %d: %s", resp.StatusCode, string(body))
		}
	}

	var claudeResp claudeResponse
	if err := json.Unmarshal(body, &claudeResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if claudeResp.Error != nil {
		return nil, fmt.Errorf("Claude API error: %s", claudeResp.Error.Message)
	}

	return &claudeResp, nil
}

// Provider returns the backend identifier.
func (c *ClaudeClient) Provider() Provider {
	return ProviderClaude
}

// Healthy checks Claude reachability with a minimal request.
func (c *ClaudeClient) Healthy(ctx context.Context) error {
	_, err := c.makeRequest(ctx, &claudeRequest{
		Model:     c.model,
		MaxTokens: 5,
		Messages:  []claudeMessage{{Role: "user", Content: "ping"}},
	})
	return err
}

func (c *ClaudeClient) updateUsage(totalTokens int, duration time.Duration) {
	c.usageMu.Lock()
	defer c.usageMu.Unlock()

	c.usage.RequestCount++
	c.usage.TotalTokens += int64(totalTokens)
	c.usage.AvgLatency = (c.usage.AvgLatency*float64(c.usage.RequestCount-1) + duration.Seconds()) / float64(c.usage.RequestCount)
	c.usage.LastUsed = time.Now()
}

func (c *ClaudeClient) incrementErrorCount() {
	c.usageMu.Lock()
	defer c.usageMu.Unlock()
	c.usage.ErrorCount++
}

// GetUsage returns a copy of the current usage statistics.
func (c *ClaudeClient) GetUsage() *ProviderUsage {
	c.usageMu.RLock()
	defer c.usageMu.RUnlock()
	u := *c.usage
	return &u
}
