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

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiClient calls the Google Gemini generateContent API.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client

	usage   *ProviderUsage
	usageMu sync.RWMutex
}

type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	GenerationConfig *geminiGenConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float32 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
			Role string `json:"role"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// NewGeminiClient creates a Gemini API client. The key must already have
// been validated as present by the caller.
func NewGeminiClient(apiKey string) *GeminiClient {
	return &GeminiClient{
		apiKey:  apiKey,
		model:   defaultGeminiModel,
		baseURL: "https://generativelanguage.googleapis.com/v1beta/models",
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		usage: &ProviderUsage{
			Provider: ProviderGemini,
			LastUsed: time.Now(),
		},
	}
}

// Complete implements the Client interface for Gemini.
func (g *GeminiClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	geminiReq := &geminiRequest{
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: systemPrompt(req)}},
		},
		Contents: []geminiContent{
			{
				Role:  "user",
				Parts: []geminiPart{{Text: userPrompt(req)}},
			},
		},
		GenerationConfig: &geminiGenConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: maxTokensFor(req),
		},
	}

	resp, err := g.makeRequest(ctx, geminiReq)
	if err != nil {
		g.incrementErrorCount()
		return nil, err
	}

	content := ""
	if len(resp.Candidates) > 0 && len(resp.Candidates[0].Content.Parts) > 0 {
		content = resp.Candidates[0].Content.Parts[0].Text
	}

	duration := time.Since(start)
	g.updateUsage(resp.UsageMetadata.TotalTokenCount, duration)

	return &Response{
		Provider: ProviderGemini,
		Content:  content,
		Usage: &Usage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		},
		Duration:  duration,
		CreatedAt: time.Now(),
	}, nil
}

func (g *GeminiClient) makeRequest(ctx context.Context, req *geminiRequest) (*geminiResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
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
			return nil, fmt.Errorf("RATE_LIMIT: Gemini API rate limit exceeded")
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, fmt.Errorf("UNAUTHORIZED: Gemini API rejected the key (status %d)", resp.StatusCode)
		case 500, 502, 503, 504:
			return nil, fmt.Errorf("SERVICE_ERROR: Gemini temporarily unavailable (status %d)", resp.StatusCode)
		default:
			return nil, fmt.Errorf("API_ERROR: Gemini request failed with status %d: %s", resp.StatusCode, string(body))
		}
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if geminiResp.Error != nil {
		return nil, fmt.Errorf("Gemini API error: %s", geminiResp.Error.Message)
	}

	return &geminiResp, nil
}

// Provider returns the backend identifier.
func (g *GeminiClient) Provider() Provider {
	return ProviderGemini
}

// Healthy checks Gemini reachability with a minimal request.
func (g *GeminiClient) Healthy(ctx context.Context) error {
	_, err := g.makeRequest(ctx, &geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: "ping"}}},
		},
		GenerationConfig: &geminiGenConfig{MaxOutputTokens: 5},
	})
	return err
}

func (g *GeminiClient) updateUsage(totalTokens int, duration time.Duration) {
	g.usageMu.Lock()
	defer g.usageMu.Unlock()

	g.usage.RequestCount++
	g.usage.TotalTokens += int64(totalTokens)
	g.usage.AvgLatency = (g.usage.AvgLatency*float64(g.usage.RequestCount-1) + duration.Seconds()) / float64(g.usage.RequestCount)
	g.usage.LastUsed = time.Now()
}

func (g *GeminiClient) incrementErrorCount() {
	g.usageMu.Lock()
	defer g.usageMu.Unlock()
	g.usage.ErrorCount++
}

// GetUsage returns a copy of the current usage statistics.
func (g *GeminiClient) GetUsage() *ProviderUsage {
	g.usageMu.RLock()
	defer g.usageMu.RUnlock()
	u := *g.usage
	return &u
}
